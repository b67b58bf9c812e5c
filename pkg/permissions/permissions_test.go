package permissions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crossapp/crossapp-go/pkg/permissions"
)

func TestParse(t *testing.T) {
	t.Run("splits and trims", func(t *testing.T) {
		set := permissions.Parse("  read  write credits.consume ")
		assert.Equal(t, permissions.Set{"read", "write", "credits.consume"}, set)
	})

	t.Run("empty input returns nil", func(t *testing.T) {
		assert.Nil(t, permissions.Parse(""))
		assert.Nil(t, permissions.Parse("   "))
	})
}

func TestSet_Has(t *testing.T) {
	t.Run("direct match", func(t *testing.T) {
		set := permissions.Set{"read", "write"}
		assert.True(t, set.Has("read"))
		assert.False(t, set.Has("delete"))
	})

	t.Run("global wildcard", func(t *testing.T) {
		set := permissions.Set{"*"}
		assert.True(t, set.Has("anything.at.all"))
	})

	t.Run("namespace wildcard", func(t *testing.T) {
		set := permissions.Set{"credits.*"}
		assert.True(t, set.Has("credits.consume"))
		assert.True(t, set.Has("credits.purchase"))
		assert.False(t, set.Has("admin.users"))
		assert.False(t, set.Has("credits"))
	})

	t.Run("empty set grants nothing", func(t *testing.T) {
		assert.False(t, permissions.Set(nil).Has("read"))
	})
}

func TestSet_HasAll(t *testing.T) {
	set := permissions.Set{"credits.*", "read"}

	assert.True(t, set.HasAll())
	assert.True(t, set.HasAll("credits.consume", "read"))
	assert.False(t, set.HasAll("credits.consume", "write"))
	assert.True(t, permissions.Set{"*"}.HasAll("anything", "else"))
	assert.False(t, permissions.Set(nil).HasAll("read"))
}

func TestSet_HasAny(t *testing.T) {
	set := permissions.Set{"read"}

	assert.True(t, set.HasAny())
	assert.True(t, set.HasAny("delete", "read"))
	assert.False(t, set.HasAny("delete", "write"))
}

func TestSet_String(t *testing.T) {
	set := permissions.Set{"read", "credits.*"}
	assert.Equal(t, "read credits.*", set.String())
	assert.Equal(t, set, permissions.Parse(set.String()))
}
