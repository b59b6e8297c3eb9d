package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_CollectsConditionsInOrder(t *testing.T) {
	q := Build(
		WithID("abc"),
		WithConditionIn("owner_id", []string{"a", "b"}),
		WithContains("name", "jon"),
		WithWhere("expires_at IS NULL OR expires_at > ?", 42),
	)

	conds := q.Conditions()
	require.Len(t, conds, 4)
	assert.Equal(t, OpEqual, conds[0].Op())
	assert.Equal(t, "id", conds[0].Field())
	assert.Equal(t, OpIn, conds[1].Op())
	assert.Equal(t, []string{"a", "b"}, conds[1].Value())
	assert.Equal(t, OpContains, conds[2].Op())
	assert.Equal(t, OpRaw, conds[3].Op())
	assert.Equal(t, []any{42}, conds[3].Args())
}

func TestBuild_OrderingAndWindow(t *testing.T) {
	q := Build(WithOrderAsc("position"), WithOrderDesc("created_at"), WithPage(10, 20))

	orders := q.Orders()
	require.Len(t, orders, 2)
	assert.False(t, orders[0].Descending())
	assert.True(t, orders[1].Descending())
	assert.Equal(t, 10, q.Limit())
	assert.Equal(t, 20, q.Offset())

	assert.Equal(t, 0, Build().Limit())
	assert.Equal(t, 3, Build(WithPage(10, 20), WithLimit(3)).Limit())
}

func TestQuery_ConditionsReturnsCopy(t *testing.T) {
	q := Build(WithSlug("rules"))
	conds := q.Conditions()
	conds[0] = Condition{}

	assert.Equal(t, "slug", q.Conditions()[0].Field())
}
