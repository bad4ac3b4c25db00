package pathoram

import (
	"context"

	"github.com/oramlab/pathoram/bucketstore"
	"github.com/oramlab/pathoram/wire"
)

// memTransport is a Transport backed directly by an in-process
// bucketstore.MemStore — no network, no RPC framing. It exists for tests
// and the property checks of spec.md §8, where the round trip itself isn't
// under test.
type memTransport struct {
	store      *bucketstore.MemStore
	bucketSize int
}

// NewMemTransport creates a Transport over a fresh in-memory bucket store
// of numBuckets buckets of bucketSize slots each.
func NewMemTransport(numBuckets, bucketSize int) Transport {
	store := bucketstore.NewMemStore()
	_ = store.Setup(numBuckets, bucketSize)
	return &memTransport{store: store, bucketSize: bucketSize}
}

func (t *memTransport) SetupTree(ctx context.Context, numBuckets, bucketSize int) error {
	t.bucketSize = bucketSize
	if f := t.store.Setup(numBuckets, bucketSize); f != nil {
		return f
	}
	return nil
}

func (t *memTransport) ReadPath(ctx context.Context, indices []int) ([]Block, error) {
	blocks, f := t.store.ReadBlock(indices)
	if f != nil {
		return nil, f
	}
	return fromWireBlocks(blocks), nil
}

func (t *memTransport) WritePath(ctx context.Context, indices []int, blocks []Block) error {
	if f := t.store.WriteBlock(indices, toWireBlocks(blocks)); f != nil {
		return f
	}
	return nil
}

func (t *memTransport) BucketSize() int { return t.bucketSize }

func toWireBlocks(blocks []Block) []wire.Block {
	out := make([]wire.Block, len(blocks))
	for i, b := range blocks {
		out[i] = wire.Block{Index: b.Index, Value: b.Value}
	}
	return out
}

func fromWireBlocks(blocks []wire.Block) []Block {
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = Block{Index: b.Index, Value: b.Value}
	}
	return out
}
