package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoleSet(t *testing.T) {
	t.Run("known claims", func(t *testing.T) {
		roles, err := ParseRoleSet([]string{"publisher", "cartplanner"})
		require.NoError(t, err)
		assert.True(t, roles.Has(RolePublisher))
		assert.True(t, roles.Has(RoleCartPlanner))
		assert.False(t, roles.Has(RoleAdmin))
	})

	t.Run("unknown claim fails", func(t *testing.T) {
		_, err := ParseRoleSet([]string{"publisher", "superuser"})
		assert.Error(t, err)
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		roles, err := ParseRoleSet([]string{"publisher", "publisher"})
		require.NoError(t, err)
		assert.Len(t, roles, 1)
	})

	t.Run("empty set", func(t *testing.T) {
		roles, err := ParseRoleSet(nil)
		require.NoError(t, err)
		assert.Empty(t, roles)
	})
}

func TestRoleSetAllows(t *testing.T) {
	planner, err := ParseRoleSet([]string{"publisher", "fieldserviceplanner"})
	require.NoError(t, err)
	admin, err := ParseRoleSet([]string{"admin"})
	require.NoError(t, err)

	assert.True(t, planner.Allows(RoleFieldServicePlanner))
	assert.False(t, planner.Allows(RoleAdmin))

	// Admin passes every role gate without holding the claim itself.
	assert.True(t, admin.Allows(RoleFieldServicePlanner))
	assert.True(t, admin.Allows(RoleCartPlanner))
	assert.True(t, admin.Allows(RoleAdmin))
	assert.False(t, admin.Has(RoleFieldServicePlanner))
}
