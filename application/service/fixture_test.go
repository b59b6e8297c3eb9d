package service_test

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/emberline/guildhall/application/service"
	"github.com/emberline/guildhall/domain/character"
	"github.com/emberline/guildhall/domain/extraction"
	"github.com/emberline/guildhall/domain/profile"
	"github.com/emberline/guildhall/domain/session"
	"github.com/emberline/guildhall/infrastructure/persistence"
	"github.com/emberline/guildhall/internal/database"
	"github.com/emberline/guildhall/internal/domain"
	"github.com/emberline/guildhall/internal/testdb"
)

type fixture struct {
	db           database.Database
	profiles     persistence.ProfileStore
	characters   persistence.CharacterStore
	classes      persistence.ClassStore
	versions     persistence.ClassVersionStore
	missions     persistence.MissionStore
	participants persistence.ParticipantStore
	posts        persistence.LFGPostStore
	pages        persistence.PageStore
	pdfs         persistence.RulesPDFStore
	unlocks      persistence.RulesUnlockStore
	nav          persistence.NavItemStore
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testdb.New(t)
	return fixture{
		db:           db,
		profiles:     persistence.NewProfileStore(db),
		characters:   persistence.NewCharacterStore(db),
		classes:      persistence.NewClassStore(db),
		versions:     persistence.NewClassVersionStore(db),
		missions:     persistence.NewMissionStore(db),
		participants: persistence.NewParticipantStore(db),
		posts:        persistence.NewLFGPostStore(db),
		pages:        persistence.NewPageStore(db),
		pdfs:         persistence.NewRulesPDFStore(db),
		unlocks:      persistence.NewRulesUnlockStore(db),
		nav:          persistence.NewNavItemStore(db),
	}
}

// member saves a profile with role and returns a context signed in as it.
func (f fixture) member(t *testing.T, id string, role profile.Role) context.Context {
	t.Helper()
	p := profile.NewProfile(id, id, id).WithRole(role)
	_, err := f.profiles.Save(context.Background(), p)
	require.NoError(t, err)
	return session.WithSession(context.Background(), session.New("token-"+id, p))
}

func (f fixture) character(t *testing.T, id, owner, name string, public bool) character.Character {
	t.Helper()
	c, err := character.NewCharacter(id, owner, name, character.WithPublic(public))
	require.NoError(t, err)
	saved, err := f.characters.Save(context.Background(), c)
	require.NoError(t, err)
	return saved
}

func (f fixture) characterService() *service.Characters {
	return service.NewCharacters(f.characters, f.characters, f.participants, f.classes, 0, nil)
}

func (f fixture) missionService() *service.Missions {
	return service.NewMissions(f.missions, f.participants, f.characters, service.NewProfiles(f.profiles, nil), nil)
}

// stubExtractor answers every request with a fixed document.
type stubExtractor struct {
	doc   any
	err   error
	calls int
}

func (s *stubExtractor) Extract(_ context.Context, _ string, _ extraction.Schema) (json.RawMessage, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if raw, ok := s.doc.(string); ok {
		return json.RawMessage(raw), nil
	}
	return json.Marshal(s.doc)
}

// memoryObjects is an in-memory rules.ObjectStore.
type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: map[string][]byte{}}
}

func (m *memoryObjects) Put(_ context.Context, key string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return int64(len(data)), nil
}

func (m *memoryObjects) Open(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryObjects) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
