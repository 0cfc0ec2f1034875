package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/co-france/internal/tags"
	"github.com/yegors/co-france/pkg/logger"
)

func newTestStorage(t *testing.T, path string) *TagStorage {
	t.Helper()
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	storage, err := NewTagStorage(db, logger.NewNop())
	require.NoError(t, err)
	return storage
}

func TestTagStorageUpsertKeepsLatestValue(t *testing.T) {
	s := newTestStorage(t, ":memory:")

	id, err := s.RegisterTagDefinition(tags.Definition{Name: "oceanic_flag"})
	require.NoError(t, err)

	require.NoError(t, s.UpdateTagValue(id, "AFR006", "OCL", &tags.ColorAwaiting))
	require.NoError(t, s.UpdateTagValue(id, "AFR006", "LCHG34", &tags.ColorCleared))
	require.NoError(t, s.UpdateTagValue(id, "DLH400", "", nil))

	values, err := s.Values(id)
	require.NoError(t, err)
	require.Len(t, values, 2)

	assert.Equal(t, "AFR006", values[0].Callsign)
	assert.Equal(t, "LCHG34", values[0].Value)
	require.NotNil(t, values[0].Color)
	assert.Equal(t, tags.ColorCleared, *values[0].Color)

	assert.Equal(t, "DLH400", values[1].Callsign)
	assert.Nil(t, values[1].Color)
	assert.False(t, values[1].UpdatedAt.IsZero())
}

func TestTagStorageRegisterIsIdempotent(t *testing.T) {
	s := newTestStorage(t, ":memory:")

	first, err := s.RegisterTagDefinition(tags.Definition{Name: "gate", DefaultValue: "--"})
	require.NoError(t, err)
	second, err := s.RegisterTagDefinition(tags.Definition{Name: "gate", DefaultValue: "??"})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	id, def, ok := s.LookupTag("gate")
	require.True(t, ok)
	assert.Equal(t, first, id)
	assert.Equal(t, "??", def.DefaultValue)

	_, _, ok = s.LookupTag("missing")
	assert.False(t, ok)
}

func TestTagStorageSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.db")

	s := newTestStorage(t, path)
	id, err := s.RegisterTagDefinition(tags.Definition{Name: "gate", DefaultValue: "--"})
	require.NoError(t, err)
	require.NoError(t, s.UpdateTagValue(id, "AFR006", "A12", nil))
	require.NoError(t, s.db.Close())

	reopened := newTestStorage(t, path)
	again, err := reopened.RegisterTagDefinition(tags.Definition{Name: "gate", DefaultValue: "--"})
	require.NoError(t, err)
	assert.Equal(t, id, again)

	values, err := reopened.Values(again)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "A12", values[0].Value)
}

func TestTagStorageRejectsBadTagID(t *testing.T) {
	s := newTestStorage(t, ":memory:")
	assert.Error(t, s.UpdateTagValue("gate", "AFR006", "A12", nil))
	_, err := s.Values("gate")
	assert.Error(t, err)
}
