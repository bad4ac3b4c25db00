package pathoram

import (
	"context"
	mrand "math/rand"
	"testing"

	"github.com/oramlab/pathoram/bucketstore"
	"github.com/oramlab/pathoram/wire"
)

// seededRand returns a reproducible math/rand.Rand for tests, per the
// "same seed for pmap init" requirement of spec.md §8 invariant 5.
func seededRand(seed int64) *mrand.Rand {
	return mrand.New(mrand.NewSource(seed))
}

// inspectableMemStore is a Transport over bucketstore.MemStore that also
// exposes per-bucket reads for property checks (spec.md §8 invariants 1-2),
// which the client-facing Transport interface deliberately doesn't expose.
type inspectableMemStore struct {
	store      *bucketstore.MemStore
	numBuckets int
	bucketSize int
}

func newInspectableMemStore(t *testing.T, cfg Config) *inspectableMemStore {
	t.Helper()
	_, _, numBuckets := cfg.ComputeTreeParams()
	store := bucketstore.NewMemStore()
	if f := store.Setup(numBuckets, cfg.BucketSize); f != nil {
		t.Fatalf("setup store: %v", f)
	}
	return &inspectableMemStore{store: store, numBuckets: numBuckets, bucketSize: cfg.BucketSize}
}

func (s *inspectableMemStore) SetupTree(ctx context.Context, numBuckets, bucketSize int) error {
	s.numBuckets, s.bucketSize = numBuckets, bucketSize
	if f := s.store.Setup(numBuckets, bucketSize); f != nil {
		return f
	}
	return nil
}

func (s *inspectableMemStore) ReadPath(ctx context.Context, indices []int) ([]Block, error) {
	blocks, f := s.store.ReadBlock(indices)
	if f != nil {
		return nil, f
	}
	return fromWireBlocks(blocks), nil
}

func (s *inspectableMemStore) WritePath(ctx context.Context, indices []int, blocks []Block) error {
	if f := s.store.WriteBlock(indices, toWireBlocks(blocks)); f != nil {
		return f
	}
	return nil
}

func (s *inspectableMemStore) BucketSize() int { return s.bucketSize }

// bucket returns the current contents of a single bucket.
func (s *inspectableMemStore) bucket(t *testing.T, idx int) []wire.Block {
	t.Helper()
	blocks, f := s.store.ReadBlock([]int{idx})
	if f != nil {
		t.Fatalf("ReadBlock(%d): %v", idx, f)
	}
	return blocks
}

// allIndices returns every bucket index currently allocated.
func (s *inspectableMemStore) allIndices() []int {
	out := make([]int, s.numBuckets)
	for i := range out {
		out[i] = i
	}
	return out
}

// containsOnPath reports whether logical address a's tag appears in any
// bucket along path.
func (s *inspectableMemStore) containsOnPath(t *testing.T, a int, path []int) bool {
	t.Helper()
	for _, idx := range path {
		for _, b := range s.bucket(t, idx) {
			if b.Index == a {
				return true
			}
		}
	}
	return false
}
