// Package wire defines the request/response types exchanged between a Path
// ORAM client and the bucket-storage server, carried over
// github.com/keegancsmith/rpc (net/rpc-style, gob-encoded, context-aware).
// Everything here is deliberately minimal: the server never sees logical
// addresses, leaf labels, or plaintext block contents — it only moves
// whole buckets keyed by implicit-heap index (spec.md §4.2, §6).
package wire

import "fmt"

// Block is a single slot on the wire: a tag (EmptyIndex for a dummy slot)
// plus an opaque, fixed-width payload. Index has no Leaf field — the server
// is never told which leaf a block belongs to (spec.md §6).
type Block struct {
	Index int
	Value []byte
}

// EmptyIndex marks a dummy slot.
const EmptyIndex = -1

// SetupRequest asks the server to allocate a fresh tree, destroying any
// previous contents (spec.md §4.2 Setup).
type SetupRequest struct {
	NumBuckets int
	BucketSize int
}

// SetupResponse carries nothing besides a possible *Fault.
//
// Faults travel inside the response struct, not as the RPC call's error
// return: github.com/keegancsmith/rpc, like net/rpc, flattens a returned
// error to its Error() string on the wire, which would throw away Kind.
// Embedding *Fault in the response preserves it.
type SetupResponse struct {
	Fault *Fault
}

// ReadBlockRequest asks for the buckets at Indices, in the order given.
// Named ReadBlock per spec.md §4.2's RPC name, even though it transfers
// whole buckets rather than a single block.
type ReadBlockRequest struct {
	Indices []int
}

// ReadBlockResponse holds BucketSize blocks per requested index,
// concatenated in request order.
type ReadBlockResponse struct {
	Blocks []Block
	Fault  *Fault
}

// WriteBlockRequest overwrites the buckets at Indices with Blocks
// (BucketSize consecutive slots per index, in the order of Indices).
type WriteBlockRequest struct {
	Indices []int
	Blocks  []Block
}

// WriteBlockResponse carries nothing besides a possible *Fault.
type WriteBlockResponse struct {
	Fault *Fault
}

// PrintRequest asks the server to dump its bucket contents, for the
// debugging affordance of spec.md §4.2.
type PrintRequest struct{}

// PrintResponse holds the server's rendering of its current state.
type PrintResponse struct {
	Dump  string
	Fault *Fault
}

// FaultKind classifies a server-side failure (spec.md §7), so a client can
// tell a malformed request apart from a server-internal problem.
type FaultKind int

const (
	// FaultNotFound means a requested bucket index is out of range.
	FaultNotFound FaultKind = iota
	// FaultInvalid means the request itself is malformed (wrong block
	// count, wrong payload width, ...).
	FaultInvalid
	// FaultInternal is anything else; the server's own invariants broke.
	FaultInternal
)

func (k FaultKind) String() string {
	switch k {
	case FaultNotFound:
		return "not_found"
	case FaultInvalid:
		return "invalid"
	default:
		return "internal"
	}
}

// Fault is the error type returned across the RPC boundary. It's a
// concrete struct carried as a response field rather than a plain string so
// a client can branch on Kind without parsing error text.
type Fault struct {
	Kind    FaultKind
	Message string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// NewFault constructs a *Fault with a formatted message.
func NewFault(kind FaultKind, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
