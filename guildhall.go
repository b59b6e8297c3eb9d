// Package guildhall is a campaign manager for a tabletop game community.
//
// It keeps member profiles, characters, versioned classes, the mission log,
// looking-for-group posts, content pages, rulebook PDFs with per-member
// unlocks and the site navigation, all in one relational store.
//
// Basic usage:
//
//	client, err := guildhall.New(
//	    guildhall.WithSQLite("guildhall.db"),
//	    guildhall.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	ctx, err := client.SessionFor(ctx, profileID)
//	result, err := client.Import.ImportMission(ctx, notes)
//	fmt.Println(result.Mission.Title(), len(result.Unresolved))
package guildhall

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emberline/guildhall/application/service"
	"github.com/emberline/guildhall/domain/profile"
	"github.com/emberline/guildhall/domain/session"
	"github.com/emberline/guildhall/domain/store"
	"github.com/emberline/guildhall/infrastructure/auth"
	"github.com/emberline/guildhall/infrastructure/metrics"
	"github.com/emberline/guildhall/infrastructure/persistence"
	"github.com/emberline/guildhall/internal/config"
	"github.com/emberline/guildhall/internal/database"
)

// SystemProfileID is the profile id used for maintenance sessions.
const SystemProfileID = "system"

// Client is the main entry point for the guildhall library.
//
// Access resources via struct fields:
//
//	client.Characters.SearchPublic(ctx, "kael", 5)
//	client.Missions.List(ctx, &service.MissionListParams{Limit: 10})
//	client.Navigation.Tree(ctx, viewer)
type Client struct {
	Profiles   *service.Profiles
	Characters *service.Characters
	Classes    *service.Classes
	Missions   *service.Missions
	LFG        *service.LFG
	Pages      *service.Pages
	Rules      *service.Rules
	Navigation *service.Navigation
	Import     *service.Import

	db       database.Database
	verifier *auth.Verifier
	metrics  *metrics.Metrics
	importOn bool
	closers  []io.Closer
	logger   *slog.Logger
	dataDir  string
	closed   atomic.Bool
	mu       sync.Mutex
}

// New creates a Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.dbURL == "" {
		return nil, ErrNoDatabase
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	dataDir, err := config.PrepareDir(cfg.dataDir)
	if err != nil {
		return nil, fmt.Errorf("prepare data dir: %w", err)
	}

	verifier, err := buildVerifier(cfg)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	objects, bucket, err := buildObjectStore(ctx, cfg, dataDir)
	if err != nil {
		return nil, err
	}
	closers := slices.Clone(cfg.closers)
	closeBucket := func() error { return nil }
	if bucket != nil {
		closers = append(closers, bucket)
		closeBucket = bucket.Close
	}

	extractor, importOn, err := buildExtractor(cfg, logger)
	if err != nil {
		return nil, errors.Join(err, closeBucket())
	}

	db, err := database.NewDatabase(ctx, cfg.dbURL, database.WithLogger(logger))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open database: %w", err), closeBucket())
	}

	if err := persistence.AutoMigrate(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("auto migrate: %w", err), errClose, closeBucket())
	}

	profileStore := persistence.NewProfileStore(db)
	characterStore := persistence.NewCharacterStore(db)
	classStore := persistence.NewClassStore(db)
	versionStore := persistence.NewClassVersionStore(db)
	missionStore := persistence.NewMissionStore(db)
	participantStore := persistence.NewParticipantStore(db)
	postStore := persistence.NewLFGPostStore(db)
	pageStore := persistence.NewPageStore(db)
	pdfStore := persistence.NewRulesPDFStore(db)
	unlockStore := persistence.NewRulesUnlockStore(db)
	navStore := persistence.NewNavItemStore(db)

	var m *metrics.Metrics
	importOpts := []service.ImportOption{}
	if cfg.importMetrics {
		m = metrics.New()
		importOpts = append(importOpts, service.WithImportMetrics(m))
	}
	if cfg.publicCandidates > 0 {
		importOpts = append(importOpts, service.WithPublicCandidates(cfg.publicCandidates))
	}

	client := &Client{
		db:       db,
		verifier: verifier,
		metrics:  m,
		importOn: importOn,
		closers:  closers,
		logger:   logger,
		dataDir:  dataDir,
	}

	client.Profiles = service.NewProfiles(profileStore, logger)
	client.Characters = service.NewCharacters(characterStore, characterStore, participantStore, classStore, cfg.searchLimit, logger)
	client.Classes = service.NewClasses(classStore, versionStore, logger)
	client.Missions = service.NewMissions(missionStore, participantStore, characterStore, client.Profiles, logger)
	client.LFG = service.NewLFG(postStore, logger)
	client.Pages = service.NewPages(pageStore, logger)
	client.Rules = service.NewRules(pdfStore, unlockStore, objects, logger)
	client.Navigation = service.NewNavigation(navStore, logger)
	client.Import = service.NewImport(
		extractor,
		missionStore,
		participantStore,
		characterStore,
		characterStore,
		classStore,
		logger,
		importOpts...,
	)

	logger.Info("guildhall client ready",
		slog.Bool("auth", verifier != nil),
		slog.Bool("import", importOn),
		slog.Bool("metrics", m != nil),
		slog.String("data_dir", dataDir),
	)
	return client, nil
}

// Close releases the database and any registered resources.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	c.logger.Info("guildhall client closed")
	return nil
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// DataDir returns the local state directory.
func (c *Client) DataDir() string {
	return c.dataDir
}

// Verifier returns the access token verifier, or nil when auth is off.
func (c *Client) Verifier() *auth.Verifier {
	return c.verifier
}

// Metrics returns the metrics recorder, or nil when metrics are off.
func (c *Client) Metrics() *metrics.Metrics {
	return c.metrics
}

// ImportEnabled reports whether a language model is configured.
func (c *Client) ImportEnabled() bool {
	return c.importOn
}

// Ping checks the database connection.
func (c *Client) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	sqlDB, err := c.db.GORM().DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// SessionFor returns ctx carrying a session for an existing profile. It lets
// the CLI act as a member without a token.
func (c *Client) SessionFor(ctx context.Context, profileID string) (context.Context, error) {
	p, err := c.Profiles.Get(ctx, store.WithID(profileID))
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", profileID, err)
	}
	return session.WithSession(ctx, session.New("", p)), nil
}

// SystemContext returns ctx carrying an admin session that belongs to no
// member. Seeding uses it.
func (c *Client) SystemContext(ctx context.Context) context.Context {
	now := time.Now().UTC()
	p := profile.ReconstructProfile(SystemProfileID, SystemProfileID, "System", profile.RoleAdmin, now, now)
	return session.WithSession(ctx, session.New("", p))
}

func defaultStorageDir(dataDir string) string {
	return filepath.Join(dataDir, config.DefaultStorageSubdir)
}
