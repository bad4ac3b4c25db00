package rpctransport

import (
	"context"
	"sync"
	"time"

	"github.com/keegancsmith/rpc"
	"github.com/pkg/errors"

	"github.com/oramlab/pathoram"
	"github.com/oramlab/pathoram/wire"
)

// Client implements pathoram.Transport by speaking to a Server over HTTP
// RPC. Bucket contents cross the wire as wire.Block; Client converts to
// and from pathoram.Block at the interface boundary so the wire contract
// stays independent of the client package's internal type.
type Client struct {
	addr, path string
	bucketSize int

	mu sync.Mutex // protects cl and gen
	cl *rpc.Client
	gen int
}

// Dial returns a Client for the bucket-store RPC server at address
// (host:port) on DefaultPath; the connection itself is made on the first
// call. bucketSize is the Z the client and server already agree on
// out of band (spec.md's Config); it is not negotiated over RPC.
func Dial(address string, bucketSize int) *Client {
	return DialAtPath(address, DefaultPath, bucketSize)
}

// DialAtPath connects at an explicit HTTP path.
func DialAtPath(address, path string, bucketSize int) *Client {
	return &Client{addr: address, path: path, bucketSize: bucketSize}
}

func (c *Client) BucketSize() int { return c.bucketSize }

func (c *Client) SetupTree(ctx context.Context, numBuckets, bucketSize int) error {
	var reply wire.SetupResponse
	if err := c.call(ctx, "Store.Setup", &wire.SetupRequest{NumBuckets: numBuckets, BucketSize: bucketSize}, &reply); err != nil {
		return err
	}
	return faultOrNil(reply.Fault)
}

func (c *Client) ReadPath(ctx context.Context, indices []int) ([]pathoram.Block, error) {
	var reply wire.ReadBlockResponse
	if err := c.call(ctx, "Store.ReadBlock", &wire.ReadBlockRequest{Indices: indices}, &reply); err != nil {
		return nil, err
	}
	if err := faultOrNil(reply.Fault); err != nil {
		return nil, err
	}
	return fromWire(reply.Blocks), nil
}

func (c *Client) WritePath(ctx context.Context, indices []int, blocks []pathoram.Block) error {
	var reply wire.WriteBlockResponse
	req := &wire.WriteBlockRequest{Indices: indices, Blocks: toWire(blocks)}
	if err := c.call(ctx, "Store.WriteBlock", req, &reply); err != nil {
		return err
	}
	return faultOrNil(reply.Fault)
}

func toWire(blocks []pathoram.Block) []wire.Block {
	out := make([]wire.Block, len(blocks))
	for i, b := range blocks {
		out[i] = wire.Block{Index: b.Index, Value: b.Value}
	}
	return out
}

func fromWire(blocks []wire.Block) []pathoram.Block {
	out := make([]pathoram.Block, len(blocks))
	for i, b := range blocks {
		out[i] = pathoram.Block{Index: b.Index, Value: b.Value}
	}
	return out
}

// Print fetches the server's debug dump of current bucket contents.
func (c *Client) Print(ctx context.Context) (string, error) {
	var reply wire.PrintResponse
	if err := c.call(ctx, "Store.Print", &wire.PrintRequest{}, &reply); err != nil {
		return "", err
	}
	if err := faultOrNil(reply.Fault); err != nil {
		return "", err
	}
	return reply.Dump, nil
}

// Close releases the underlying RPC connection, if dialed.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cl != nil {
		c.cl.Close()
	}
}

func (c *Client) call(ctx context.Context, serviceMethod string, args, reply any) error {
	cl, gen, err := c.rpcClient(ctx, 0)
	if err == nil {
		err = cl.Call(ctx, serviceMethod, args, reply)
		if !errors.Is(err, rpc.ErrShutdown) {
			return err
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(100 * time.Millisecond):
	}

	cl, _, err = c.rpcClient(ctx, gen)
	if err != nil {
		return errors.Wrap(err, "dial bucket store")
	}
	return cl.Call(ctx, serviceMethod, args, reply)
}

// rpcClient returns the current connection, redialing if gen matches the
// generation already observed by the caller (i.e. nobody redialed since).
func (c *Client) rpcClient(ctx context.Context, gen int) (*rpc.Client, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return c.cl, c.gen, nil
	}

	var timeout time.Duration
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	cl, err := rpc.DialHTTPPathTimeout("tcp", c.addr, c.path, timeout)
	if err != nil {
		return nil, c.gen, err
	}
	c.cl = cl
	c.gen++
	return c.cl, c.gen, nil
}

// faultOrNil converts a *wire.Fault into an error, returning it unwrapped
// so callers can errors.As to the concrete fault kind.
func faultOrNil(f *wire.Fault) error {
	if f == nil {
		return nil
	}
	return f
}
