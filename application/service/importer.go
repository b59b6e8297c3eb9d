package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/emberline/guildhall/domain/character"
	"github.com/emberline/guildhall/domain/class"
	"github.com/emberline/guildhall/domain/extraction"
	"github.com/emberline/guildhall/domain/matching"
	"github.com/emberline/guildhall/domain/mission"
	"github.com/emberline/guildhall/domain/session"
	"github.com/emberline/guildhall/internal/domain"
	"github.com/google/uuid"
)

// DefaultPublicCandidates is how many public characters are considered per name.
const DefaultPublicCandidates = 5

// Import kinds.
const (
	KindMission   = "mission"
	KindCharacter = "character"
)

// Reasons the importer adds on top of matching.Reason.
const (
	ReasonLinkFailed    matching.Reason = "link_failed"
	ReasonUnknownClass  matching.Reason = "unknown_class"
	ReasonAlreadyLinked matching.Reason = "already_linked"
)

// MissionSchema is what the extractor must return for a mission write-up.
var MissionSchema = extraction.Schema{
	Name:        "mission",
	Description: "A tabletop game session report.",
	Fields: []extraction.Field{
		{Name: "title", Type: extraction.TypeString, Required: true, Description: "Short mission title."},
		{Name: "summary", Type: extraction.TypeString, Nullable: true, Description: "One paragraph summary of what happened."},
		{Name: "outcome", Type: extraction.TypeString, Nullable: true, Description: "How the mission ended, in a few words."},
		{Name: "played_at", Type: extraction.TypeString, Nullable: true, Description: "When the session was played."},
		{Name: "recap_url", Type: extraction.TypeString, Nullable: true, Description: "Link to a longer recap."},
		{Name: "xp_reward", Type: extraction.TypeInteger, Nullable: true, Description: "Experience awarded to each character."},
		{Name: "gold_reward", Type: extraction.TypeInteger, Nullable: true, Description: "Gold awarded to each character."},
		{
			Name:        "participants",
			Type:        extraction.TypeArray,
			Required:    true,
			Description: "Names of the player characters who took part.",
			Items:       &extraction.Field{Type: extraction.TypeString},
		},
	},
}

// CharacterSchema is what the extractor must return for a character sheet.
var CharacterSchema = extraction.Schema{
	Name:        "character",
	Description: "A player character description.",
	Fields: []extraction.Field{
		{Name: "name", Type: extraction.TypeString, Required: true, Description: "Character name."},
		{Name: "class_name", Type: extraction.TypeString, Nullable: true, Description: "Character class."},
		{Name: "level", Type: extraction.TypeInteger, Nullable: true, Description: "Character level."},
		{Name: "bio", Type: extraction.TypeString, Nullable: true, Description: "Short background."},
		{Name: "image_url", Type: extraction.TypeString, Nullable: true, Description: "Portrait URL."},
		{Name: "is_public", Type: extraction.TypeBoolean, Nullable: true, Description: "Whether others may see the character."},
	},
}

// Resolution is the outcome for one extracted name.
type Resolution struct {
	Name        string
	CharacterID string
	Source      matching.Source
	Score       float64
	Reason      matching.Reason
}

// ImportResult is a persisted mission with how each participant resolved.
// AlreadyLinked holds names that resolved to a character another name had
// already linked; they are neither linked again nor unregistered.
type ImportResult struct {
	Mission       mission.Mission
	Linked        []Resolution
	AlreadyLinked []Resolution
	Unresolved    []Resolution
}

// CharacterImportResult is a persisted character. Unresolved holds the class
// name when it matched no published class.
type CharacterImportResult struct {
	Character  character.Character
	ClassName  string
	Unresolved []Resolution
}

// ImportMetrics records import outcomes.
type ImportMetrics interface {
	ImportCompleted(kind string, linked, unresolved int)
	ImportFailed(kind, stage string)
}

type noopImportMetrics struct{}

func (noopImportMetrics) ImportCompleted(string, int, int) {}
func (noopImportMetrics) ImportFailed(string, string)      {}

// ImportOption configures an Import.
type ImportOption func(*Import)

// WithPublicCandidates sets how many public search hits are considered per name.
func WithPublicCandidates(n int) ImportOption {
	return func(i *Import) {
		if n > 0 {
			i.publicLimit = n
		}
	}
}

// WithImportMetrics records outcomes to m.
func WithImportMetrics(m ImportMetrics) ImportOption {
	return func(i *Import) {
		if m != nil {
			i.metrics = m
		}
	}
}

// WithImportClock sets the clock used for missing play dates.
func WithImportClock(now func() time.Time) ImportOption {
	return func(i *Import) { i.now = now }
}

// Import turns freeform write-ups into missions and characters.
type Import struct {
	extractor    extraction.Extractor
	missions     mission.Store
	participants mission.ParticipantStore
	characters   character.Store
	searcher     character.Searcher
	classes      class.Store
	publicLimit  int
	metrics      ImportMetrics
	now          func() time.Time
	logger       *slog.Logger
}

// NewImport creates an Import service.
func NewImport(
	extractor extraction.Extractor,
	missions mission.Store,
	participants mission.ParticipantStore,
	characters character.Store,
	searcher character.Searcher,
	classes class.Store,
	logger *slog.Logger,
	opts ...ImportOption,
) *Import {
	i := &Import{
		extractor:    extractor,
		missions:     missions,
		participants: participants,
		characters:   characters,
		searcher:     searcher,
		classes:      classes,
		publicLimit:  DefaultPublicCandidates,
		metrics:      noopImportMetrics{},
		now:          time.Now,
		logger:       loggerOrDefault(logger),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// extract runs the extractor and strictly validates its answer. Nothing is
// written before this succeeds.
func (s *Import) extract(ctx context.Context, kind, text string, schema extraction.Schema) (extraction.Record, error) {
	if strings.TrimSpace(text) == "" {
		s.metrics.ImportFailed(kind, "input")
		return nil, fmt.Errorf("%w: nothing to import", domain.ErrValidation)
	}
	raw, err := s.extractor.Extract(ctx, text, schema)
	if err != nil {
		s.metrics.ImportFailed(kind, "extract")
		return nil, fmt.Errorf("extract %s: %w", kind, err)
	}
	rec, err := schema.Validate(raw)
	if err != nil {
		s.metrics.ImportFailed(kind, "validate")
		s.logger.WarnContext(ctx, "extractor returned invalid data",
			slog.String("kind", kind),
			slog.Any("error", err),
		)
		return nil, err
	}
	return rec, nil
}

// ImportMission extracts a mission from text, creates it for the signed-in
// member and links the participants it can resolve.
func (s *Import) ImportMission(ctx context.Context, text string) (ImportResult, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return ImportResult{}, err
	}
	rec, err := s.extract(ctx, KindMission, text, MissionSchema)
	if err != nil {
		return ImportResult{}, err
	}

	title, _ := rec.String("title")
	summary, _ := rec.String("summary")
	outcomeText, _ := rec.String("outcome")
	playedText, _ := rec.String("played_at")
	recapText, _ := rec.String("recap_url")
	recap, _ := extraction.ParseURL(recapText)
	xp, _ := rec.Int("xp_reward")
	gold, _ := rec.Int("gold_reward")

	resolutions, err := s.resolve(ctx, sess.UserID(), matching.DedupeNames(rec.Strings("participants")))
	if err != nil {
		s.metrics.ImportFailed(KindMission, "resolve")
		return ImportResult{}, err
	}

	m, err := mission.NewMission(uuid.NewString(), sess.UserID(), title,
		mission.WithSummary(summary),
		mission.WithOutcome(mission.ParseOutcome(outcomeText)),
		mission.WithPlayedAt(extraction.ParseDate(playedText, s.now())),
		mission.WithRecapURL(recap),
		mission.WithRewards(int(max(xp, 0)), int(max(gold, 0))),
	)
	if err != nil {
		s.metrics.ImportFailed(KindMission, "validate")
		return ImportResult{}, err
	}
	m, err = s.missions.Save(ctx, m)
	if err != nil {
		s.metrics.ImportFailed(KindMission, "save")
		return ImportResult{}, fmt.Errorf("save mission: %w", err)
	}

	result := ImportResult{Mission: m}
	for _, r := range resolutions {
		if r.Reason != matching.ReasonMatched {
			result.Unresolved = append(result.Unresolved, r)
			continue
		}
		created, err := s.participants.Link(ctx, m.ID(), r.CharacterID)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to link participant",
				slog.String("mission_id", m.ID()),
				slog.String("character_id", r.CharacterID),
				slog.Any("error", err),
			)
			r.Reason = ReasonLinkFailed
			result.Unresolved = append(result.Unresolved, r)
			continue
		}
		if !created {
			r.Reason = ReasonAlreadyLinked
			result.AlreadyLinked = append(result.AlreadyLinked, r)
			continue
		}
		result.Linked = append(result.Linked, r)
	}

	if len(result.Unresolved) > 0 {
		names := make([]string, len(result.Unresolved))
		for i, r := range result.Unresolved {
			names[i] = r.Name
		}
		updated, err := s.missions.Save(ctx, m.WithUnregisteredNames(names...))
		if err != nil {
			s.metrics.ImportFailed(KindMission, "save")
			return result, fmt.Errorf("save unregistered names: %w", err)
		}
		result.Mission = updated
	}

	s.metrics.ImportCompleted(KindMission, len(result.Linked), len(result.Unresolved))
	s.logger.InfoContext(ctx, "mission imported",
		slog.String("mission_id", m.ID()),
		slog.Int("linked", len(result.Linked)),
		slog.Int("unresolved", len(result.Unresolved)),
	)
	return result, nil
}

// resolve matches each name against the member's own characters and a few
// public search hits for that name.
func (s *Import) resolve(ctx context.Context, ownerID string, names []string) ([]Resolution, error) {
	if len(names) == 0 {
		return nil, nil
	}
	owned, err := s.characters.Find(ctx, character.WithOwnerID(ownerID))
	if err != nil {
		return nil, fmt.Errorf("load own characters: %w", err)
	}
	own := candidates(owned, matching.SourceOwn)

	out := make([]Resolution, 0, len(names))
	for _, name := range names {
		hits, err := s.searcher.SearchPublic(ctx, name, s.publicLimit)
		if err != nil {
			return nil, fmt.Errorf("search characters: %w", err)
		}
		res := matching.PickBestMatch(name, matching.MergeCandidates(own, candidates(hits, matching.SourcePublic)))
		s.logger.DebugContext(ctx, "resolved participant",
			slog.String("name", name),
			slog.String("reason", string(res.Reason)),
			slog.Float64("score", res.Score),
		)
		out = append(out, Resolution{
			Name:        name,
			CharacterID: res.Candidate.ID,
			Source:      res.Candidate.Source,
			Score:       res.Score,
			Reason:      res.Reason,
		})
	}
	return out, nil
}

func candidates(chars []character.Character, source matching.Source) []matching.Candidate {
	out := make([]matching.Candidate, len(chars))
	for i, c := range chars {
		out[i] = matching.Candidate{ID: c.ID(), Name: c.Name(), Source: source}
	}
	return out
}

// ImportCharacter extracts a character from text and creates it for the
// signed-in member.
func (s *Import) ImportCharacter(ctx context.Context, text string) (CharacterImportResult, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return CharacterImportResult{}, err
	}
	rec, err := s.extract(ctx, KindCharacter, text, CharacterSchema)
	if err != nil {
		return CharacterImportResult{}, err
	}

	name, _ := rec.String("name")
	bio, _ := rec.String("bio")
	imageText, _ := rec.String("image_url")
	image, _ := extraction.ParseURL(imageText)
	public, _ := rec.Bool("is_public")
	opts := []character.Option{
		character.WithBio(bio),
		character.WithImageURL(image),
		character.WithPublic(public),
	}
	if level, ok := rec.Int("level"); ok && level >= 1 {
		opts = append(opts, character.WithLevel(int(level)))
	}

	result := CharacterImportResult{}
	if className, ok := rec.String("class_name"); ok {
		c, found, err := s.findClass(ctx, className)
		if err != nil {
			s.metrics.ImportFailed(KindCharacter, "resolve")
			return CharacterImportResult{}, err
		}
		if found {
			opts = append(opts, character.WithClass(c.ID()))
			result.ClassName = c.Name()
		} else {
			result.Unresolved = append(result.Unresolved, Resolution{Name: className, Reason: ReasonUnknownClass})
		}
	}

	c, err := character.NewCharacter(uuid.NewString(), sess.UserID(), name, opts...)
	if err != nil {
		s.metrics.ImportFailed(KindCharacter, "validate")
		return CharacterImportResult{}, err
	}
	c, err = s.characters.Save(ctx, c)
	if err != nil {
		s.metrics.ImportFailed(KindCharacter, "save")
		return CharacterImportResult{}, fmt.Errorf("save character: %w", err)
	}
	result.Character = c

	s.metrics.ImportCompleted(KindCharacter, 0, len(result.Unresolved))
	s.logger.InfoContext(ctx, "character imported", slog.String("character_id", c.ID()))
	return result, nil
}

// findClass looks up a published class by normalized name.
func (s *Import) findClass(ctx context.Context, name string) (class.Class, bool, error) {
	target := matching.Normalize(name)
	if target == "" {
		return class.Class{}, false, nil
	}
	published, err := s.classes.Find(ctx, class.WithPublishedOnly(), class.ByName())
	if err != nil {
		return class.Class{}, false, fmt.Errorf("list classes: %w", err)
	}
	for _, c := range published {
		if matching.Normalize(c.Name()) == target {
			return c, true, nil
		}
	}
	return class.Class{}, false, nil
}
