package pathoram

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
	"sync"
)

// Client is the Path ORAM client of spec.md §4.1: it owns the secret
// position map, stash, and tree geometry, and translates each logical
// Read/Write into exactly one ReadPath and one WritePath call against a
// Transport.
type Client struct {
	mu sync.Mutex // serializes logical accesses; see SPEC_FULL.md §5

	cfg       Config
	leafLevel int // L: spec.md's tree depth / leaf level
	numLeaves int
	numBuckets int

	transport Transport
	posMap    PositionMap
	encrypt   Encryptor
	rng       *mrand.Rand

	stash    []block
	poisoned bool // set on any transport error; see failure semantics (spec.md §4.1)
}

// New creates a Client with explicit dependencies. rng drives pmap
// initialization and per-access leaf remapping; pass a seeded
// math/rand.Rand for reproducible tests or NewCSPRNGSource() for
// production.
func New(cfg Config, transport Transport, posMap PositionMap, enc Encryptor, rng *mrand.Rand) (*Client, error) {
	cfg, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	if transport.BucketSize() != cfg.BucketSize {
		return nil, ErrInvalidConfig
	}

	height, numLeaves, numBuckets := cfg.ComputeTreeParams()

	return &Client{
		cfg:        cfg,
		leafLevel:  height - 1,
		numLeaves:  numLeaves,
		numBuckets: numBuckets,
		transport:  transport,
		posMap:     posMap,
		encrypt:    enc,
		rng:        rng,
	}, nil
}

// NewInMemory creates a Client backed by an in-process bucket store (no
// network, no encryption) — the fastest path for tests and the property
// checks of spec.md §8.
func NewInMemory(cfg Config, seed int64) (*Client, error) {
	cfg, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	_, _, numBuckets := cfg.ComputeTreeParams()

	transport := NewMemTransport(numBuckets, cfg.BucketSize)
	posMap := NewInMemoryPositionMap()
	return New(cfg, transport, posMap, NoOpEncryptor{}, mrand.New(mrand.NewSource(seed)))
}

// NewCSPRNGSource returns a math/rand.Rand backed by crypto/rand, for
// deployments that need unpredictable leaf assignment rather than test
// reproducibility (spec.md §4.1 "Randomness").
func NewCSPRNGSource() *mrand.Rand {
	return mrand.New(cryptoSource{})
}

type cryptoSource struct{}

func (cryptoSource) Seed(int64) {}

func (cryptoSource) Int63() int64 {
	return int64(cryptoSource{}.Uint64() &^ (1 << 63))
}

func (cryptoSource) Uint64() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("pathoram: crypto/rand failed: " + err.Error())
	}
	return binary.BigEndian.Uint64(buf[:])
}

// Capacity returns N, the number of logical addresses this client supports.
func (c *Client) Capacity() int { return c.cfg.NumBlocks }

// LeafLevel returns L, the tree's leaf level.
func (c *Client) LeafLevel() int { return c.leafLevel }

// NumLeaves returns 2^L.
func (c *Client) NumLeaves() int { return c.numLeaves }

// NumBuckets returns 2^(L+1) - 1.
func (c *Client) NumBuckets() int { return c.numBuckets }

// StashSize returns the current number of blocks held in the stash.
func (c *Client) StashSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stash)
}

// Size returns the number of logical addresses with an assigned position,
// i.e. pmap's domain so far.
func (c *Client) Size() int { return c.posMap.Size() }

// Setup initializes a fresh ORAM holding data[0..N), per spec.md §4.1
// "setup": it re-allocates the remote tree, assigns every address a fresh
// random leaf, and then writes each value in address order. A transport
// error during setup is fatal, as for any other access.
func (c *Client) Setup(ctx context.Context, data [][]byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(data) != c.cfg.NumBlocks {
		return ErrInvalidConfig
	}
	if err := c.transport.SetupTree(ctx, c.numBuckets, c.cfg.BucketSize); err != nil {
		c.poisoned = true
		return err
	}
	c.stash = nil
	c.poisoned = false

	for a := 0; a < c.cfg.NumBlocks; a++ {
		c.posMap.Set(a, c.randomLeaf())
	}
	for a := 0; a < c.cfg.NumBlocks; a++ {
		if len(data[a]) != c.cfg.BlockSize {
			return ErrInvalidDataSize
		}
		if _, err := c.access(ctx, a, data[a]); err != nil {
			return err
		}
	}
	return nil
}

// Read returns the current value at logical address a, or a zero-filled
// slice if a has never been written (spec.md §4.1 "read").
func (c *Client) Read(ctx context.Context, a int) ([]byte, error) {
	if a < 0 || a >= c.cfg.NumBlocks {
		return nil, ErrInvalidBlockID
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.access(ctx, a, nil)
}

// Write stores v at logical address a and returns the prior value (or
// zeros if a had never been written), per spec.md §4.1 "write".
func (c *Client) Write(ctx context.Context, a int, v []byte) ([]byte, error) {
	if a < 0 || a >= c.cfg.NumBlocks {
		return nil, ErrInvalidBlockID
	}
	if len(v) != c.cfg.BlockSize {
		return nil, ErrInvalidDataSize
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.access(ctx, a, v)
}

// randomLeaf draws a uniform leaf label in [0, numLeaves).
func (c *Client) randomLeaf() int {
	if c.numLeaves <= 1 {
		return 0
	}
	return c.rng.Intn(c.numLeaves)
}

// access implements spec.md §4.1's access procedure. newData == nil means
// read; non-nil means write. Any Transport error poisons the client per
// the failure semantics: a retried access would read a path the server
// never serviced together with a consistent write-back, which would break
// obliviousness.
func (c *Client) access(ctx context.Context, a int, newData []byte) ([]byte, error) {
	if c.poisoned {
		return nil, ErrPoisoned
	}

	// Step 1: x is the *old* leaf for a.
	x, exists := c.posMap.Get(a)
	if !exists {
		x = c.randomLeaf()
	}

	// Step 2: replace pmap[a] before the network round trip.
	c.posMap.Set(a, c.randomLeaf())

	// Step 3: stash refresh via one ReadPath RPC, root-to-leaf order.
	path := c.rootToLeafPath(x)
	if err := c.readPathIntoStash(ctx, path); err != nil {
		c.poisoned = true
		return nil, err
	}

	// Step 4: core action.
	var out []byte
	var idx int
	if c.cfg.ConstantTime {
		idx, _ = c.findInStashConstantTime(a)
	} else {
		idx = c.findInStash(a)
	}
	if idx == -1 {
		out = make([]byte, c.cfg.BlockSize)
		newLeaf, _ := c.posMap.Get(a)
		nb := block{id: a, leaf: newLeaf, data: make([]byte, c.cfg.BlockSize)}
		if newData != nil {
			copy(nb.data, newData)
		}
		c.stash = append(c.stash, nb)
	} else {
		out = make([]byte, c.cfg.BlockSize)
		copy(out, c.stash[idx].data)
		newLeaf, _ := c.posMap.Get(a)
		c.stash[idx].leaf = newLeaf
		if newData != nil {
			copy(c.stash[idx].data, newData)
		}
	}

	// Steps 5-6: eviction / write-back, one WritePath RPC, leaf-to-root order.
	if err := c.evict(ctx, x); err != nil {
		c.poisoned = true
		return nil, err
	}

	return out, nil
}

// rootToLeafPath returns the L+1 bucket indices on the path to leaf x, in
// root-to-leaf order (level 0 first), per GetIndex.
func (c *Client) rootToLeafPath(x int) []int {
	path := make([]int, c.leafLevel+1)
	for l := 0; l <= c.leafLevel; l++ {
		path[l] = GetIndex(x, l, c.leafLevel)
	}
	return path
}

// findInStash returns the stash slice index holding blockID a, or -1.
func (c *Client) findInStash(a int) int {
	for i := range c.stash {
		if c.stash[i].id == a {
			return i
		}
	}
	return -1
}

// readPathIntoStash issues one ReadPath RPC for path and merges every
// non-empty returned block into the stash, overwriting any stale entry
// with the same tag — an invariant-preserving no-op, since the on-disk and
// stash copies for a given tag must already agree (spec.md §4.1 step 3).
func (c *Client) readPathIntoStash(ctx context.Context, path []int) error {
	blocks, err := c.transport.ReadPath(ctx, path)
	if err != nil {
		return err
	}
	for _, b := range blocks {
		if b.Index == EmptyBlockID {
			continue
		}
		plaintext, err := c.encrypt.Decrypt(b.Index, b.Value)
		if err != nil {
			return ErrDecryptionFailed
		}
		if i := c.findInStash(b.Index); i != -1 {
			c.stash[i].data = plaintext
			continue
		}
		c.stash = append(c.stash, block{id: b.Index, data: plaintext})
	}
	// Every stash entry's leaf must reflect pmap, including blocks we just
	// read off the path for the first time this access.
	for i := range c.stash {
		if leaf, ok := c.posMap.Get(c.stash[i].id); ok {
			c.stash[i].leaf = leaf
		}
	}
	return nil
}

// canPlaceAt reports whether a block assigned to leaf can be placed in the
// bucket at the given level on leaf x's path, i.e. whether leaf falls in
// onpath(x, level).
func (c *Client) canPlaceAt(leaf, x, level int) bool {
	lo, hi := OnPath(x, level, c.leafLevel)
	return inRange(leaf, lo, hi)
}

// PositionMap is spec.md §3's pmap: a mapping from logical address to its
// current leaf label, consulted and overwritten once per access (client.go's
// access, step 1/2). It's pluggable so a recursive position map — spec.md
// §9's open question, out of scope here — could replace InMemoryPositionMap
// without Client itself changing.
type PositionMap interface {
	// Get returns the leaf position for blockID.
	// Returns (leaf, true) if found, (0, false) if not.
	Get(blockID int) (leaf int, exists bool)

	// Set assigns blockID to leaf.
	Set(blockID int, leaf int)

	// Size returns the number of blocks with assigned positions.
	Size() int
}

// InMemoryPositionMap is the flat PositionMap every Client in this package
// uses: O(N) client memory, one map entry per address ever accessed.
type InMemoryPositionMap struct {
	m map[int]int
}

// NewInMemoryPositionMap creates a new empty position map.
func NewInMemoryPositionMap() *InMemoryPositionMap {
	return &InMemoryPositionMap{
		m: make(map[int]int),
	}
}

func (p *InMemoryPositionMap) Get(blockID int) (int, bool) {
	leaf, ok := p.m[blockID]
	return leaf, ok
}

func (p *InMemoryPositionMap) Set(blockID int, leaf int) {
	p.m[blockID] = leaf
}

func (p *InMemoryPositionMap) Size() int {
	return len(p.m)
}
