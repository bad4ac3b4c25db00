package pathoram

import "context"

// Transport is the client's view of spec.md §4.2/§6: the external bucket
// store, spoken to only through whole-bucket reads and whole-bucket
// overwrites keyed by implicit-heap bucket index. One logical Access calls
// ReadPath exactly once and WritePath exactly once (spec.md §1, §4.1 steps
// 3 and 6, §5's ordering guarantee).
//
// Indices is the one load-bearing collection type on this interface, and
// ordering matters: ReadPath receives indices root-to-leaf; WritePath
// receives indices leaf-to-root, each with exactly BucketSize() blocks per
// index, in the order listed (spec.md §6).
type Transport interface {
	// SetupTree allocates a fresh tree of numBuckets buckets of bucketSize
	// EMPTY blocks, destroying any previous state (spec.md §4.2 Setup).
	SetupTree(ctx context.Context, numBuckets, bucketSize int) error

	// ReadPath fetches the buckets at indices (root-to-leaf order) and
	// returns their concatenated blocks, len(indices)*BucketSize() long,
	// grouped by index in the order requested.
	ReadPath(ctx context.Context, indices []int) ([]Block, error)

	// WritePath overwrites the buckets at indices (leaf-to-root order)
	// with blocks, which must have len(indices)*BucketSize() entries,
	// BucketSize() consecutive slots per index.
	WritePath(ctx context.Context, indices []int, blocks []Block) error

	// BucketSize returns Z, the number of block slots per bucket.
	BucketSize() int
}

// Block is the wire-level representation of a single slot: a logical
// address tag (EmptyBlockID for a dummy slot) plus its opaque payload.
// Dummy slots are always transmitted explicitly — never omitted — per
// spec.md §9 ("Dummy blocks on the wire").
type Block struct {
	Index int
	Value []byte
}
