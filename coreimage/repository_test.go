package coreimage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"corecatalog/config"
	"corecatalog/db"
	"corecatalog/internal/validation"
)

func newTestDatabase(t *testing.T) (*db.BoltDB, *config.Config) {
	t.Helper()

	cfg, err := config.NewConfigBuilder().
		WithDBPath(t.TempDir()).
		WithDBFile("test.db").
		WithBucket("test").
		Build()
	require.NoError(t, err)

	database, err := db.NewBoltDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return database, cfg
}

func TestManifestRepository(t *testing.T) {
	database, cfg := newTestDatabase(t)
	repo := NewManifestRepository(database, db.ManifestsBucket(cfg))
	ctx := context.Background()

	def := &ManifestSnapshot{
		Remote:   DefaultRemote,
		Products: []ImageRecord{{Aliases: []string{"a"}, Release: "r-a", ID: "h1"}},
	}
	require.NoError(t, repo.Save(ctx, def))
	assert.False(t, def.UpdatedAt.IsZero())

	require.NoError(t, repo.Save(ctx, &ManifestSnapshot{Remote: "mirror"}))

	snapshots, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, DefaultRemote, snapshots[0].Remote)
	assert.Equal(t, "mirror", snapshots[1].Remote)
	assert.Equal(t, "h1", snapshots[0].Products[0].ID)

	// Saving again replaces the remote's snapshot
	def.Products = nil
	require.NoError(t, repo.Save(ctx, def))
	snapshots, err = repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Empty(t, snapshots[0].Products)

	require.NoError(t, repo.DeleteAll(ctx))
	snapshots, err = repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, snapshots)
}

func TestFailureRepository(t *testing.T) {
	database, cfg := newTestDatabase(t)
	repo := NewFailureRepository(database, db.FailuresBucket(cfg))
	ctx := context.Background()

	older := &FailureEvent{Message: "first", OccurredAt: jan1}
	require.NoError(t, repo.Save(ctx, older))
	assert.NotEmpty(t, older.ID)

	newer := &FailureEvent{Message: "second"}
	require.NoError(t, repo.Save(ctx, newer))
	assert.NotEqual(t, older.ID, newer.ID)
	assert.False(t, newer.OccurredAt.IsZero())

	events, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "first", events[0].Message)
	assert.Equal(t, "second", events[1].Message)
}

func TestHost_RestoreFromBolt(t *testing.T) {
	database, cfg := newTestDatabase(t)
	repo := NewManifestRepository(database, db.ManifestsBucket(cfg))
	ctx := context.Background()

	f := newHostFixture(t, nil, WithManifestRepository(repo))
	f.host.Refresh(ctx)

	// A fresh host over the same database serves without fetching
	g := newHostFixture(t, nil, WithManifestRepository(repo))
	require.NoError(t, g.host.Restore(ctx))

	rec, err := g.host.Lookup("b", DefaultRemote)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "h2", rec.ID)
	assert.Zero(t, g.fetcher.callCount())

	g.host.Clear()
	snapshots, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, snapshots)
}

func TestFailureRecorder(t *testing.T) {
	ctx := context.Background()

	t.Run("records and lists newest first", func(t *testing.T) {
		database, cfg := newTestDatabase(t)
		recorder := NewFailureRecorder(NewFailureRepository(database, db.FailuresBucket(cfg)), zaptest.NewLogger(t))

		recorder.OnManifestUpdateFailure("first")
		time.Sleep(2 * time.Millisecond)
		recorder.OnManifestUpdateFailure("second")
		time.Sleep(2 * time.Millisecond)
		recorder.OnManifestUpdateFailure("third")

		recent, err := recorder.Recent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, "third", recent[0].Message)
		assert.Equal(t, "second", recent[1].Message)

		all, err := recorder.Recent(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("save failure is swallowed", func(t *testing.T) {
		repo := new(MockFailureRepository)
		repo.On("Save", ctx, &FailureEvent{Message: "boom"}).Return(assert.AnError)

		recorder := NewFailureRecorder(repo, zaptest.NewLogger(t))
		recorder.OnManifestUpdateFailure("boom")

		repo.AssertExpectations(t)
	})

	t.Run("without repository", func(t *testing.T) {
		recorder := NewFailureRecorder(nil, zaptest.NewLogger(t))
		recorder.OnManifestUpdateFailure("logged only")

		recent, err := recorder.Recent(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, recent)
	})

	t.Run("sink of a host", func(t *testing.T) {
		repo := new(MockFailureRepository)
		repo.On("Save", ctx, &FailureEvent{Message: "last modified http://x/img-a.xz: refused"}).Return(nil)

		fetcher := scenarioFetcher()
		fetcher.setFailure("http://x/img-a.xz", errors.New("refused"))
		validator := validation.NewRemoteValidator([]string{DefaultRemote}, nil)

		host := NewHost("x86_64", scenarioTable(), fetcher, validator, NewFailureRecorder(repo, zaptest.NewLogger(t)), zaptest.NewLogger(t))
		host.Refresh(ctx)

		repo.AssertExpectations(t)
	})
}
