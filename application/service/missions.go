package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/emberline/guildhall/domain/character"
	"github.com/emberline/guildhall/domain/extraction"
	"github.com/emberline/guildhall/domain/mission"
	"github.com/emberline/guildhall/domain/session"
	"github.com/emberline/guildhall/domain/store"
	"github.com/emberline/guildhall/internal/domain"
	"github.com/google/uuid"
)

// MissionParams describes a new mission. A zero PlayedAt means now.
type MissionParams struct {
	Title      string
	Summary    string
	Outcome    string
	PlayedAt   time.Time
	RecapURL   string
	GMID       string
	XPReward   int
	GoldReward int
}

// MissionPatch lists the mission fields to change.
type MissionPatch struct {
	Title      *string
	Summary    *string
	Outcome    *string
	PlayedAt   *time.Time
	RecapURL   *string
	GMID       *string
	XPReward   *int
	GoldReward *int
}

// MissionListParams filters and pages the mission log.
type MissionListParams struct {
	Outcome   string
	CreatorID string
	Limit     int
	Offset    int
}

// MissionDetail is a mission with the people involved.
type MissionDetail struct {
	Mission      mission.Mission
	Participants []character.Character
	CreatorName  string
	GMName       string
}

// Missions manages the mission log.
type Missions struct {
	store        mission.Store
	participants mission.ParticipantStore
	characters   character.Store
	profiles     *Profiles
	logger       *slog.Logger
}

// NewMissions creates a Missions service.
func NewMissions(
	missions mission.Store,
	participants mission.ParticipantStore,
	characters character.Store,
	profiles *Profiles,
	logger *slog.Logger,
) *Missions {
	return &Missions{
		store:        missions,
		participants: participants,
		characters:   characters,
		profiles:     profiles,
		logger:       loggerOrDefault(logger),
	}
}

// List returns missions newest first with the total matching count.
func (s *Missions) List(ctx context.Context, params *MissionListParams) ([]mission.Mission, int64, error) {
	var filters []store.Option
	if params.Outcome != "" {
		o, err := mission.ValidateOutcome(params.Outcome)
		if err != nil {
			return nil, 0, err
		}
		filters = append(filters, mission.WithOutcomeFilter(o))
	}
	if params.CreatorID != "" {
		filters = append(filters, mission.WithCreatorID(params.CreatorID))
	}
	total, err := s.store.Count(ctx, filters...)
	if err != nil {
		return nil, 0, fmt.Errorf("count missions: %w", err)
	}
	opts := append(filters, mission.ByPlayedAtDesc())
	opts = append(opts, store.WithPage(params.Limit, params.Offset))
	missions, err := s.store.Find(ctx, opts...)
	if err != nil {
		return nil, 0, fmt.Errorf("list missions: %w", err)
	}
	return missions, total, nil
}

// Get returns one mission.
func (s *Missions) Get(ctx context.Context, id string) (mission.Mission, error) {
	m, err := s.store.FindOne(ctx, store.WithID(id))
	if err != nil {
		return mission.Mission{}, fmt.Errorf("get mission: %w", err)
	}
	return m, nil
}

// Detail returns a mission with the participants the viewer may see and the
// creator and GM display names.
func (s *Missions) Detail(ctx context.Context, id string) (MissionDetail, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return MissionDetail{}, err
	}
	participants, err := s.Participants(ctx, m.ID())
	if err != nil {
		return MissionDetail{}, err
	}
	names := s.profiles.DisplayNames(ctx, m.CreatorID(), m.GMID())
	return MissionDetail{
		Mission:      m,
		Participants: participants,
		CreatorName:  names[m.CreatorID()],
		GMName:       names[m.GMID()],
	}, nil
}

// Participants returns the linked characters visible to the viewer.
func (s *Missions) Participants(ctx context.Context, missionID string) ([]character.Character, error) {
	links, err := s.participants.Find(ctx, mission.WithMissionID(missionID))
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	if len(links) == 0 {
		return nil, nil
	}
	ids := make([]string, len(links))
	for i, l := range links {
		ids[i] = l.CharacterID()
	}
	chars, err := s.characters.Find(ctx, store.WithIDIn(ids), character.ByName())
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	viewer := session.FromContext(ctx).Viewer()
	visible := chars[:0]
	for _, c := range chars {
		if c.VisibleTo(viewer) {
			visible = append(visible, c)
		}
	}
	return visible, nil
}

// Create logs a mission for the signed-in member.
func (s *Missions) Create(ctx context.Context, params *MissionParams) (mission.Mission, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return mission.Mission{}, err
	}
	if err := checkGM(sess.Viewer(), params.GMID); err != nil {
		return mission.Mission{}, err
	}
	opts, err := missionOptions(params)
	if err != nil {
		return mission.Mission{}, err
	}
	m, err := mission.NewMission(uuid.NewString(), sess.UserID(), params.Title, opts...)
	if err != nil {
		return mission.Mission{}, err
	}
	saved, err := s.store.Save(ctx, m)
	if err != nil {
		return mission.Mission{}, fmt.Errorf("save mission: %w", err)
	}
	return saved, nil
}

func missionOptions(p *MissionParams) ([]mission.Option, error) {
	outcome := mission.OutcomePending
	if p.Outcome != "" {
		o, err := mission.ValidateOutcome(p.Outcome)
		if err != nil {
			return nil, err
		}
		outcome = o
	}
	recap, err := checkURL(p.RecapURL)
	if err != nil {
		return nil, err
	}
	opts := []mission.Option{
		mission.WithSummary(p.Summary),
		mission.WithOutcome(outcome),
		mission.WithRecapURL(recap),
		mission.WithGM(p.GMID),
		mission.WithRewards(p.XPReward, p.GoldReward),
	}
	if !p.PlayedAt.IsZero() {
		opts = append(opts, mission.WithPlayedAt(p.PlayedAt))
	}
	return opts, nil
}

func checkURL(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	u, ok := extraction.ParseURL(raw)
	if !ok {
		return "", fmt.Errorf("%w: %q is not an absolute URL", domain.ErrValidation, raw)
	}
	return u, nil
}

// checkGM allows naming someone else as GM only to GMs and admins.
func checkGM(v session.Viewer, gmID string) error {
	if gmID == "" || gmID == v.UserID || v.Role.CanRunGames() {
		return nil
	}
	return fmt.Errorf("%w: only game masters may assign another GM", domain.ErrForbidden)
}

// Update changes a mission. Creators and admins only.
func (s *Missions) Update(ctx context.Context, id string, patch *MissionPatch) (mission.Mission, error) {
	m, viewer, err := s.editable(ctx, id)
	if err != nil {
		return mission.Mission{}, err
	}
	var opts []mission.Option
	if patch.Title != nil {
		opts = append(opts, mission.WithTitle(*patch.Title))
	}
	if patch.Summary != nil {
		opts = append(opts, mission.WithSummary(*patch.Summary))
	}
	if patch.Outcome != nil {
		o, err := mission.ValidateOutcome(*patch.Outcome)
		if err != nil {
			return mission.Mission{}, err
		}
		opts = append(opts, mission.WithOutcome(o))
	}
	if patch.PlayedAt != nil {
		opts = append(opts, mission.WithPlayedAt(*patch.PlayedAt))
	}
	if patch.RecapURL != nil {
		recap, err := checkURL(*patch.RecapURL)
		if err != nil {
			return mission.Mission{}, err
		}
		opts = append(opts, mission.WithRecapURL(recap))
	}
	if patch.GMID != nil {
		if err := checkGM(viewer, *patch.GMID); err != nil {
			return mission.Mission{}, err
		}
		opts = append(opts, mission.WithGM(*patch.GMID))
	}
	if patch.XPReward != nil || patch.GoldReward != nil {
		xp, gold := m.XPReward(), m.GoldReward()
		if patch.XPReward != nil {
			xp = *patch.XPReward
		}
		if patch.GoldReward != nil {
			gold = *patch.GoldReward
		}
		opts = append(opts, mission.WithRewards(xp, gold))
	}
	updated, err := m.Apply(opts...)
	if err != nil {
		return mission.Mission{}, err
	}
	saved, err := s.store.Save(ctx, updated)
	if err != nil {
		return mission.Mission{}, fmt.Errorf("save mission: %w", err)
	}
	return saved, nil
}

// Delete removes a mission and its links. Creators and admins only.
func (s *Missions) Delete(ctx context.Context, id string) error {
	m, _, err := s.editable(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, m); err != nil {
		return fmt.Errorf("delete mission: %w", err)
	}
	return nil
}

// AddCharacter links a character to a mission. It reports false when the
// character was already linked.
func (s *Missions) AddCharacter(ctx context.Context, missionID, characterID string) (bool, error) {
	if _, _, err := s.editable(ctx, missionID); err != nil {
		return false, err
	}
	if _, err := s.characters.FindOne(ctx, store.WithID(characterID)); err != nil {
		return false, fmt.Errorf("get character: %w", err)
	}
	created, err := s.participants.Link(ctx, missionID, characterID)
	if err != nil {
		return false, fmt.Errorf("link character: %w", err)
	}
	return created, nil
}

// RemoveCharacter unlinks a character from a mission.
func (s *Missions) RemoveCharacter(ctx context.Context, missionID, characterID string) error {
	if _, _, err := s.editable(ctx, missionID); err != nil {
		return err
	}
	if err := s.participants.Unlink(ctx, missionID, characterID); err != nil {
		return fmt.Errorf("unlink character: %w", err)
	}
	return nil
}

func (s *Missions) editable(ctx context.Context, id string) (mission.Mission, session.Viewer, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return mission.Mission{}, session.Viewer{}, err
	}
	m, err := s.Get(ctx, id)
	if err != nil {
		return mission.Mission{}, session.Viewer{}, err
	}
	viewer := sess.Viewer()
	if !viewer.Owns(m.CreatorID()) {
		return mission.Mission{}, session.Viewer{}, fmt.Errorf("%w: not your mission", domain.ErrForbidden)
	}
	return m, viewer, nil
}
