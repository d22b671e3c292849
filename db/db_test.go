package db

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corecatalog/config"
)

type testSnapshot struct {
	Remote string `json:"remote"`
	Count  int    `json:"count"`
}

func newTestDB(t *testing.T) (*BoltDB, *config.Config) {
	t.Helper()

	cfg, err := config.NewConfigBuilder().
		WithDBPath(t.TempDir()).
		WithDBFile("test.db").
		WithBucket("test").
		Build()
	require.NoError(t, err)

	database, err := NewBoltDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return database, cfg
}

// TestBoltDB_Integration tests BoltDB with a real database file
func TestBoltDB_Integration(t *testing.T) {
	database, cfg := newTestDB(t)
	ctx := context.Background()
	bucket := cfg.DB.Bucket

	t.Run("PutKV and GetKV", func(t *testing.T) {
		key := []byte("test-key")
		value := []byte("test-value")

		require.NoError(t, database.PutKV(ctx, bucket, key, value))

		got, err := database.GetKV(ctx, bucket, key)
		assert.NoError(t, err)
		assert.Equal(t, value, got)
	})

	t.Run("DeleteKV", func(t *testing.T) {
		key := []byte("to-delete")
		require.NoError(t, database.PutKV(ctx, bucket, key, []byte("v")))
		require.NoError(t, database.DeleteKV(ctx, bucket, key))

		got, err := database.GetKV(ctx, bucket, key)
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("GetAllKV and DeleteAllKV", func(t *testing.T) {
		b := ManifestsBucket(cfg)
		for i := 0; i < 3; i++ {
			require.NoError(t, database.PutKV(ctx, b, []byte(strconv.Itoa(i)), []byte("value-"+strconv.Itoa(i))))
		}

		all, err := database.GetAllKV(ctx, b)
		require.NoError(t, err)
		assert.Len(t, all, 3)
		assert.Equal(t, []byte("value-1"), all["1"])

		require.NoError(t, database.DeleteAllKV(ctx, b))
		all, err = database.GetAllKV(ctx, b)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("missing bucket", func(t *testing.T) {
		_, err := database.GetKV(ctx, "absent", []byte("k"))
		assert.Error(t, err)

		all, err := database.GetAllKV(ctx, "absent")
		assert.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("empty key is rejected", func(t *testing.T) {
		assert.Error(t, database.PutKV(ctx, bucket, []byte(""), []byte("v")))
	})
}

func TestNewBoltDB_CreatesBuckets(t *testing.T) {
	database, cfg := newTestDB(t)
	ctx := context.Background()

	for _, name := range []string{cfg.DB.Bucket, ManifestsBucket(cfg), FailuresBucket(cfg)} {
		_, err := database.GetKV(ctx, name, []byte("probe"))
		assert.NoError(t, err, name)
	}
	assert.Equal(t, "test_manifests", ManifestsBucket(cfg))
	assert.Equal(t, "test_failures", FailuresBucket(cfg))
}

func TestGenericRepository(t *testing.T) {
	database, cfg := newTestDB(t)
	ctx := context.Background()
	repo := NewGenericRepository[*testSnapshot](database, ManifestsBucket(cfg))

	require.NoError(t, repo.Save(ctx, "remote/", &testSnapshot{Remote: "", Count: 4}))
	require.NoError(t, repo.Save(ctx, "remote/daily", &testSnapshot{Remote: "daily", Count: 2}))

	got, err := repo.Get(ctx, "remote/daily")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count)

	_, err = repo.Get(ctx, "remote/absent")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 4, all["remote/"].Count)

	require.NoError(t, repo.Delete(ctx, "remote/daily"))
	all, err = repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.DeleteAll(ctx))
	all, err = repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestGenericRepository_CorruptValue(t *testing.T) {
	database, cfg := newTestDB(t)
	ctx := context.Background()
	bucket := FailuresBucket(cfg)
	repo := NewGenericRepository[testSnapshot](database, bucket)

	require.NoError(t, database.PutKV(ctx, bucket, []byte("bad"), []byte("{not json")))

	_, err := repo.Get(ctx, "bad")
	assert.Error(t, err)
	_, err = repo.GetAll(ctx)
	assert.Error(t, err)
}
