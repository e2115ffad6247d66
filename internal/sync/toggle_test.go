package sync

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory RelationStore with scriptable failures
type fakeStore struct {
	relations map[string]bool
	createErr error
	deleteErr error
	creates   int
	deletes   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{relations: make(map[string]bool)}
}

func (f *fakeStore) key(subjectID string, userID uint) string {
	return fmt.Sprintf("%s/%d", subjectID, userID)
}

func (f *fakeStore) Exists(_ context.Context, subjectID string, userID uint) (bool, error) {
	return f.relations[f.key(subjectID, userID)], nil
}

func (f *fakeStore) Create(_ context.Context, subjectID string, userID uint) error {
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	f.relations[f.key(subjectID, userID)] = true
	return nil
}

func (f *fakeStore) Delete(_ context.Context, subjectID string, userID uint) error {
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.relations, f.key(subjectID, userID))
	return nil
}

func TestToggleFlipsStateAndCount(t *testing.T) {
	c := NewCoordinator()
	store := newFakeStore()
	c.Register(KindPostLike, store)
	c.Seed(KindPostLike, "post1", 7, false, 3)

	require.NoError(t, c.Toggle(context.Background(), KindPostLike, "post1", 7))
	assert.True(t, c.Active(KindPostLike, "post1", 7))
	assert.Equal(t, int64(4), c.Count(KindPostLike, "post1"))

	require.NoError(t, c.Toggle(context.Background(), KindPostLike, "post1", 7))
	assert.False(t, c.Active(KindPostLike, "post1", 7))
	assert.Equal(t, int64(3), c.Count(KindPostLike, "post1"))
}

func TestToggleRevertsOnCreateFailure(t *testing.T) {
	c := NewCoordinator()
	store := newFakeStore()
	store.createErr = errors.New("connection reset")
	c.Register(KindFollow, store)
	c.Seed(KindFollow, "user9", 7, false, 10)

	err := c.Toggle(context.Background(), KindFollow, "user9", 7)
	require.Error(t, err)
	assert.False(t, c.Active(KindFollow, "user9", 7))
	assert.Equal(t, int64(10), c.Count(KindFollow, "user9"))
}

func TestToggleRevertsOnDeleteFailure(t *testing.T) {
	c := NewCoordinator()
	store := newFakeStore()
	store.deleteErr = errors.New("connection reset")
	c.Register(KindPostLike, store)
	c.Seed(KindPostLike, "post1", 7, true, 5)

	err := c.Toggle(context.Background(), KindPostLike, "post1", 7)
	require.Error(t, err)
	assert.True(t, c.Active(KindPostLike, "post1", 7))
	assert.Equal(t, int64(5), c.Count(KindPostLike, "post1"))
}

func TestToggleTreatsDuplicateCreateAsSuccess(t *testing.T) {
	c := NewCoordinator()
	store := newFakeStore()
	store.createErr = ErrExists
	c.Register(KindCommentLike, store)
	c.Seed(KindCommentLike, "42", 7, false, 1)

	require.NoError(t, c.Toggle(context.Background(), KindCommentLike, "42", 7))
	assert.True(t, c.Active(KindCommentLike, "42", 7))
	assert.Equal(t, int64(2), c.Count(KindCommentLike, "42"))
}

func TestToggleTreatsMissingDeleteAsSuccess(t *testing.T) {
	c := NewCoordinator()
	store := newFakeStore()
	store.deleteErr = ErrNotFound
	c.Register(KindPostLike, store)
	c.Seed(KindPostLike, "post1", 7, true, 1)

	require.NoError(t, c.Toggle(context.Background(), KindPostLike, "post1", 7))
	assert.False(t, c.Active(KindPostLike, "post1", 7))
	assert.Equal(t, int64(0), c.Count(KindPostLike, "post1"))
}

func TestToggleSkipsCreateWhenRelationExists(t *testing.T) {
	c := NewCoordinator()
	store := newFakeStore()
	store.relations[store.key("post1", 7)] = true
	c.Register(KindPostLike, store)

	// Local state lags the store (another device already liked).
	require.NoError(t, c.Toggle(context.Background(), KindPostLike, "post1", 7))
	assert.Zero(t, store.creates)
	assert.True(t, c.Active(KindPostLike, "post1", 7))
}

func TestToggleUnregisteredKindFails(t *testing.T) {
	c := NewCoordinator()
	err := c.Toggle(context.Background(), KindFollow, "user1", 2)
	require.Error(t, err)
}
