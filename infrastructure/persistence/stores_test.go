package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/emberline/guildhall/domain/character"
	"github.com/emberline/guildhall/domain/class"
	"github.com/emberline/guildhall/domain/mission"
	"github.com/emberline/guildhall/domain/nav"
	"github.com/emberline/guildhall/domain/page"
	"github.com/emberline/guildhall/domain/profile"
	"github.com/emberline/guildhall/domain/rules"
	"github.com/emberline/guildhall/domain/store"
	"github.com/emberline/guildhall/infrastructure/persistence"
	"github.com/emberline/guildhall/internal/domain"
	"github.com/emberline/guildhall/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileStore_UniqueUsername(t *testing.T) {
	ctx := context.Background()
	s := persistence.NewProfileStore(testdb.New(t))

	_, err := s.Save(ctx, profile.NewProfile("u1", "ysolde", ""))
	require.NoError(t, err)
	_, err = s.Save(ctx, profile.NewProfile("u2", "ysolde", ""))
	require.ErrorIs(t, err, domain.ErrConflict)

	got, err := s.FindOne(ctx, profile.WithUsername("ysolde"))
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID())
	assert.Equal(t, profile.RolePlayer, got.Role())

	_, err = s.FindOne(ctx, store.WithID("nobody"))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCharacterStore_SearchPublic(t *testing.T) {
	ctx := context.Background()
	s := persistence.NewCharacterStore(testdb.New(t))

	for _, c := range []struct {
		id, name string
		public   bool
	}{
		{"c1", "Ysolde Vane", true},
		{"c2", "Yorick", true},
		{"c3", "Ysabel", false},
		{"c4", "Bram", true},
	} {
		ch, err := character.NewCharacter(c.id, "u1", c.name, character.WithPublic(c.public))
		require.NoError(t, err)
		_, err = s.Save(ctx, ch)
		require.NoError(t, err)
	}

	hits, err := s.SearchPublic(ctx, "y", 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "Yorick", hits[0].Name())
	assert.Equal(t, "Ysolde Vane", hits[1].Name())

	hits, err = s.SearchPublic(ctx, "VANE", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	hits, err = s.SearchPublic(ctx, "y", 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestMissionStore_RoundTripAndLinks(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	missions := persistence.NewMissionStore(db)
	links := persistence.NewParticipantStore(db)
	characters := persistence.NewCharacterStore(db)

	played := time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC)
	m, err := mission.NewMission("m1", "u1", "Into the Mire",
		mission.WithOutcome(mission.OutcomeFailure),
		mission.WithPlayedAt(played),
		mission.WithRewards(100, 20),
	)
	require.NoError(t, err)
	m = m.WithUnregisteredNames("Zoë", "Bram")
	_, err = missions.Save(ctx, m)
	require.NoError(t, err)

	got, err := missions.FindOne(ctx, store.WithID("m1"))
	require.NoError(t, err)
	assert.Equal(t, mission.OutcomeFailure, got.Outcome())
	assert.True(t, played.Equal(got.PlayedAt()))
	assert.Equal(t, []string{"Zoë", "Bram"}, got.UnregisteredNames())
	assert.Empty(t, got.RecapURL())

	c, err := character.NewCharacter("c1", "u1", "Ysolde")
	require.NoError(t, err)
	_, err = characters.Save(ctx, c)
	require.NoError(t, err)

	created, err := links.Link(ctx, "m1", "c1")
	require.NoError(t, err)
	assert.True(t, created)
	created, err = links.Link(ctx, "m1", "c1")
	require.NoError(t, err)
	assert.False(t, created)
	_, err = links.Link(ctx, "m1", "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	history, err := links.MissionsFor(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 100, c.Progress(history).MissionXP)

	require.NoError(t, missions.Delete(ctx, got))
	remaining, err := links.Find(ctx, mission.WithMissionID("m1"))
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestClassStore_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	classes := persistence.NewClassStore(db)
	versions := persistence.NewClassVersionStore(db)
	characters := persistence.NewCharacterStore(db)

	c, err := class.NewClass("k1", "Storm Warden", "a1", class.WithPublished(true))
	require.NoError(t, err)
	_, err = classes.Save(ctx, c)
	require.NoError(t, err)
	v, err := class.NewVersion("v1", "k1", 1, "Call lightning", "Staff", "")
	require.NoError(t, err)
	_, err = versions.Save(ctx, v)
	require.NoError(t, err)

	dup, err := class.NewVersion("v2", "k1", 1, "", "", "")
	require.NoError(t, err)
	_, err = versions.Save(ctx, dup)
	require.ErrorIs(t, err, domain.ErrConflict)

	ch, err := character.NewCharacter("c1", "u1", "Ysolde", character.WithClass("k1"))
	require.NoError(t, err)
	_, err = characters.Save(ctx, ch)
	require.NoError(t, err)

	require.NoError(t, classes.Delete(ctx, c))

	n, err := versions.Count(ctx, class.WithClassID("k1"))
	require.NoError(t, err)
	assert.Zero(t, n)
	got, err := characters.FindOne(ctx, store.WithID("c1"))
	require.NoError(t, err)
	assert.Empty(t, got.ClassID())
}

func TestRulesUnlockStore_ExpiryRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	pdfs := persistence.NewRulesPDFStore(db)
	unlocks := persistence.NewRulesUnlockStore(db)

	pdf, err := rules.NewPDF("r1", "", "Core Rules", "", "rules/core.pdf", false, 10)
	require.NoError(t, err)
	_, err = pdfs.Save(ctx, pdf)
	require.NoError(t, err)

	expires := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	u, err := rules.NewUnlock("ul1", "r1", "p1", "a1", &expires)
	require.NoError(t, err)
	_, err = unlocks.Save(ctx, u)
	require.NoError(t, err)

	got, err := unlocks.Find(ctx, rules.WithPDFID("r1"), rules.WithProfileID("p1"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].ExpiresAt())
	assert.True(t, expires.Equal(*got[0].ExpiresAt()))

	require.NoError(t, pdfs.Delete(ctx, pdf))
	n, err := unlocks.Count(ctx, rules.WithPDFID("r1"))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNavItemStore_FindActiveResolvesSlugs(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	pages := persistence.NewPageStore(db)
	items := persistence.NewNavItemStore(db)

	p, err := page.NewPage("pg1", "House Rules", page.WithPublished(true))
	require.NoError(t, err)
	_, err = pages.Save(ctx, p)
	require.NoError(t, err)

	mk := func(id, label string, typ nav.Type, pos int, opts ...nav.ItemOption) {
		t.Helper()
		opts = append(opts, nav.WithPosition(pos))
		it, err := nav.NewItem(id, label, typ, opts...)
		require.NoError(t, err)
		_, err = items.Save(ctx, it)
		require.NoError(t, err)
	}
	mk("n1", "Rules", nav.TypePage, 2, nav.WithPage("pg1", ""))
	mk("n2", "Home", nav.TypeLink, 1, nav.WithURL("/"))
	mk("n3", "Gone", nav.TypePage, 3, nav.WithPage("missing", ""))
	mk("n4", "Hidden", nav.TypeLink, 0, nav.WithURL("/x"), nav.WithActive(false))

	active, err := items.FindActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, "n2", active[0].ID())
	assert.Equal(t, "house-rules", active[1].PageSlug())
	assert.Empty(t, active[2].PageSlug())
}
