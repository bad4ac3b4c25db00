// Package bucketstore implements the minimally-trusted bucket storage
// server of spec.md §4.2: a keyed array of fixed-size buckets, addressed
// only by implicit-heap index, with no notion of logical addresses, leaf
// labels, or plaintext. It is adapted from the teacher's in-memory Storage
// abstraction, generalized to serve whole paths per request and to carry
// the NotFound/Invalid/Internal fault taxonomy of spec.md §7.
package bucketstore

import (
	"fmt"
	"strings"
	"sync"

	"github.com/oramlab/pathoram/wire"
)

// Store is the server-side contract: Setup, ReadBlock (read a set of
// buckets), WriteBlock (overwrite a set of buckets), and Print (debug
// dump). Every method is safe for concurrent use.
type Store interface {
	Setup(numBuckets, bucketSize int) *wire.Fault
	ReadBlock(indices []int) ([]wire.Block, *wire.Fault)
	WriteBlock(indices []int, blocks []wire.Block) *wire.Fault
	Print() (string, *wire.Fault)
}

// MemStore is an in-memory Store. It holds the whole tree as a flat slice
// of buckets; buckets are addressed by the implicit-heap index the client
// computes (spec.md §4.1's get_index), never by logical address.
type MemStore struct {
	mu         sync.RWMutex
	buckets    [][]wire.Block
	bucketSize int
}

// NewMemStore creates an uninitialized store; call Setup before use.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Setup allocates numBuckets buckets of bucketSize empty slots each,
// discarding any previous contents (spec.md §4.2 Setup).
func (s *MemStore) Setup(numBuckets, bucketSize int) *wire.Fault {
	if numBuckets <= 0 || bucketSize <= 0 {
		return wire.NewFault(wire.FaultInvalid, "numBuckets and bucketSize must be positive, got %d, %d", numBuckets, bucketSize)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	buckets := make([][]wire.Block, numBuckets)
	for i := range buckets {
		buckets[i] = emptyBucket(bucketSize)
	}
	s.buckets = buckets
	s.bucketSize = bucketSize
	return nil
}

// ReadBlock returns a copy of the buckets at indices, in request order.
func (s *MemStore) ReadBlock(indices []int) ([]wire.Block, *wire.Fault) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]wire.Block, 0, len(indices)*s.bucketSize)
	for _, idx := range indices {
		if idx < 0 || idx >= len(s.buckets) {
			return nil, wire.NewFault(wire.FaultNotFound, "bucket index %d out of range [0,%d)", idx, len(s.buckets))
		}
		for _, b := range s.buckets[idx] {
			out = append(out, copyBlock(b))
		}
	}
	return out, nil
}

// WriteBlock overwrites the buckets at indices with blocks, bucketSize
// slots per index, in the order of indices.
func (s *MemStore) WriteBlock(indices []int, blocks []wire.Block) *wire.Fault {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(blocks) != len(indices)*s.bucketSize {
		return wire.NewFault(wire.FaultInvalid, "expected %d blocks for %d buckets of size %d, got %d",
			len(indices)*s.bucketSize, len(indices), s.bucketSize, len(blocks))
	}
	for i, idx := range indices {
		if idx < 0 || idx >= len(s.buckets) {
			return wire.NewFault(wire.FaultNotFound, "bucket index %d out of range [0,%d)", idx, len(s.buckets))
		}
		slots := blocks[i*s.bucketSize : (i+1)*s.bucketSize]
		bucket := make([]wire.Block, s.bucketSize)
		for j, b := range slots {
			bucket[j] = copyBlock(b)
		}
		s.buckets[idx] = bucket
	}
	return nil
}

// Print renders every bucket's occupied slots, for manual inspection —
// never part of the client's logical access path.
func (s *MemStore) Print() (string, *wire.Fault) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sb strings.Builder
	for i, bucket := range s.buckets {
		fmt.Fprintf(&sb, "bucket %d:", i)
		for _, b := range bucket {
			if b.Index == wire.EmptyIndex {
				fmt.Fprint(&sb, " _")
				continue
			}
			fmt.Fprintf(&sb, " %d", b.Index)
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func emptyBucket(bucketSize int) []wire.Block {
	bucket := make([]wire.Block, bucketSize)
	for i := range bucket {
		bucket[i] = wire.Block{Index: wire.EmptyIndex}
	}
	return bucket
}

func copyBlock(b wire.Block) wire.Block {
	v := make([]byte, len(b.Value))
	copy(v, b.Value)
	return wire.Block{Index: b.Index, Value: v}
}
