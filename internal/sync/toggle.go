package sync

import (
	"context"
	"fmt"
	stdsync "sync"

	"github.com/pkg/errors"
)

// Kind names a toggleable relation
type Kind string

const (
	KindPostLike    Kind = "post_like"
	KindCommentLike Kind = "comment_like"
	KindFollow      Kind = "follow"
)

// Sentinel errors a RelationStore reports for constraint conditions. Both
// are benign to a toggle: they mean the store already holds the state the
// toggle was driving toward.
var (
	ErrExists   = errors.New("sync: relation already exists")
	ErrNotFound = errors.New("sync: relation not found")
)

// RelationStore is the durable side of a toggleable relation, such as a
// post like or a follow edge.
type RelationStore interface {
	Exists(ctx context.Context, subjectID string, userID uint) (bool, error)
	Create(ctx context.Context, subjectID string, userID uint) error
	Delete(ctx context.Context, subjectID string, userID uint) error
}

type stateKey struct {
	kind      Kind
	subjectID string
	userID    uint
}

type countKey struct {
	kind      Kind
	subjectID string
}

// Coordinator applies like/follow toggles optimistically: the local
// boolean and counter flip before the store round-trip, and are restored
// if the round-trip fails. A successful round-trip needs no further
// action because local state already reflects the outcome.
type Coordinator struct {
	mu     stdsync.Mutex
	stores map[Kind]RelationStore
	active map[stateKey]bool
	counts map[countKey]int64
}

// NewCoordinator creates an empty coordinator
func NewCoordinator() *Coordinator {
	return &Coordinator{
		stores: make(map[Kind]RelationStore),
		active: make(map[stateKey]bool),
		counts: make(map[countKey]int64),
	}
}

// Register binds a relation kind to its durable store
func (c *Coordinator) Register(kind Kind, store RelationStore) {
	c.mu.Lock()
	c.stores[kind] = store
	c.mu.Unlock()
}

// Seed primes local state from a server fetch
func (c *Coordinator) Seed(kind Kind, subjectID string, userID uint, isActive bool, count int64) {
	c.mu.Lock()
	c.active[stateKey{kind, subjectID, userID}] = isActive
	c.counts[countKey{kind, subjectID}] = count
	c.mu.Unlock()
}

// Active reports the local boolean state of a relation
func (c *Coordinator) Active(kind Kind, subjectID string, userID uint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active[stateKey{kind, subjectID, userID}]
}

// Count reports the local counter for a subject
func (c *Coordinator) Count(kind Kind, subjectID string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[countKey{kind, subjectID}]
}

// Toggle flips the relation for (subjectID, userID). The local state
// changes immediately; on store failure it is reverted and the error
// returned. A create that hits the at-most-once constraint, or a delete
// of an already absent relation, is treated as success since the store
// already holds the target state.
func (c *Coordinator) Toggle(ctx context.Context, kind Kind, subjectID string, userID uint) error {
	c.mu.Lock()
	store, ok := c.stores[kind]
	if !ok {
		c.mu.Unlock()
		return errors.Errorf("sync: no store registered for kind %q", kind)
	}
	sk := stateKey{kind, subjectID, userID}
	ck := countKey{kind, subjectID}
	wasActive := c.active[sk]
	adding := !wasActive
	c.active[sk] = adding
	if adding {
		c.counts[ck]++
	} else {
		c.counts[ck]--
	}
	c.mu.Unlock()

	var err error
	if adding {
		var exists bool
		exists, err = store.Exists(ctx, subjectID, userID)
		if err == nil && !exists {
			err = store.Create(ctx, subjectID, userID)
			if errors.Is(err, ErrExists) {
				// Lost a race with another toggle; the relation is there.
				err = nil
			}
		}
	} else {
		err = store.Delete(ctx, subjectID, userID)
		if errors.Is(err, ErrNotFound) {
			err = nil
		}
	}
	if err == nil {
		return nil
	}

	// Revert to the pre-toggle state.
	c.mu.Lock()
	c.active[sk] = wasActive
	if adding {
		c.counts[ck]--
	} else {
		c.counts[ck]++
	}
	c.mu.Unlock()
	return errors.Wrap(err, fmt.Sprintf("toggle %s", kind))
}
