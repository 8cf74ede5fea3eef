package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imi6/dandan/internal/structures"
)

func newTestStore(t *testing.T) VideoStoreInterface {
	t.Helper()
	conf := &structures.Config{
		Database: structures.DatabaseConfig{
			Path: filepath.Join(t.TempDir(), "dandan.db"),
		},
	}
	vs, err := NewVideoStore(conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = vs.Close() })
	return vs
}

func TestVideoStore_InsertAndGet(t *testing.T) {
	vs := newTestStore(t)
	ctx := context.Background()

	v := &Video{
		ID:   "abc-123",
		Name: "ep01.mp4",
		Ext:  ".mp4",
		Size: 1000,
		Path: "/tmp/videos/abc-123.mp4",
	}
	require.NoError(t, vs.Insert(ctx, v))
	assert.NotEmpty(t, v.CreatedAt)

	got, err := vs.Get(ctx, "abc-123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ep01.mp4", got.Name)
	assert.Equal(t, int64(1000), got.Size)
	assert.Equal(t, v.CreatedAt, got.CreatedAt)
}

func TestVideoStore_GetMissingReturnsNil(t *testing.T) {
	vs := newTestStore(t)

	got, err := vs.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestVideoStore_Delete(t *testing.T) {
	vs := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, vs.Insert(ctx, &Video{ID: "v1", Name: "a.mp4", Ext: ".mp4", Size: 1, Path: "/tmp/a"}))
	require.NoError(t, vs.Delete(ctx, "v1"))

	got, err := vs.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestVideoStore_DeleteMissingIsNoop(t *testing.T) {
	vs := newTestStore(t)
	assert.NoError(t, vs.Delete(context.Background(), "ghost"))
}

func TestVideoStore_Count(t *testing.T) {
	vs := newTestStore(t)
	ctx := context.Background()

	count, err := vs.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, vs.Insert(ctx, &Video{ID: "v1", Name: "a.mp4", Ext: ".mp4", Size: 1, Path: "/tmp/a"}))
	require.NoError(t, vs.Insert(ctx, &Video{ID: "v2", Name: "b.mkv", Ext: ".mkv", Size: 2, Path: "/tmp/b"}))

	count, err = vs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestVideoStore_DuplicateIDFails(t *testing.T) {
	vs := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, vs.Insert(ctx, &Video{ID: "dup", Name: "a.mp4", Ext: ".mp4", Size: 1, Path: "/tmp/a"}))
	assert.Error(t, vs.Insert(ctx, &Video{ID: "dup", Name: "b.mp4", Ext: ".mp4", Size: 2, Path: "/tmp/b"}))
}

func TestVideoStore_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "dandan.db")
	conf := &structures.Config{Database: structures.DatabaseConfig{Path: dbPath}}
	ctx := context.Background()

	vs, err := NewVideoStore(conf)
	require.NoError(t, err)
	require.NoError(t, vs.Insert(ctx, &Video{ID: "keep", Name: "a.mp4", Ext: ".mp4", Size: 1, Path: "/tmp/a"}))
	require.NoError(t, vs.Close())

	vs2, err := NewVideoStore(conf)
	require.NoError(t, err)
	defer vs2.Close()

	got, err := vs2.Get(ctx, "keep")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a.mp4", got.Name)
}
