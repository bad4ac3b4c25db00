// Package rpctransport wires spec.md §4.2/§6's bucket-store RPCs onto
// github.com/keegancsmith/rpc, the same net/rpc-style, gob-encoded,
// context-aware framework sourcegraph/zoekt uses for its Searcher service.
package rpctransport

import (
	"context"
	"net/http"

	"github.com/keegancsmith/rpc"

	"github.com/oramlab/pathoram/bucketstore"
	"github.com/oramlab/pathoram/wire"
)

// DefaultPath is the HTTP path the server listens on and the client dials,
// mirroring zoekt's DefaultRPCPath convention.
const DefaultPath = "/rpc"

// Store is the RPC-exported server side of bucketstore.Store. Its exported
// method set becomes the "Store.Setup", "Store.ReadBlock", "Store.WriteBlock",
// and "Store.Print" service methods (spec.md §4.2's RPC names).
type Store struct {
	backend bucketstore.Store
}

// Server returns an http.Handler serving backend over RPC at whatever path
// it is mounted on; cmd/pathoram-server mounts it at DefaultPath.
func Server(backend bucketstore.Store) http.Handler {
	server := rpc.NewServer()
	if err := server.Register(&Store{backend: backend}); err != nil {
		panic("rpctransport: unexpected error registering server: " + err.Error())
	}
	return server
}

func (s *Store) Setup(ctx context.Context, args *wire.SetupRequest, reply *wire.SetupResponse) error {
	reply.Fault = s.backend.Setup(args.NumBuckets, args.BucketSize)
	return nil
}

func (s *Store) ReadBlock(ctx context.Context, args *wire.ReadBlockRequest, reply *wire.ReadBlockResponse) error {
	blocks, fault := s.backend.ReadBlock(args.Indices)
	reply.Blocks = blocks
	reply.Fault = fault
	return nil
}

func (s *Store) WriteBlock(ctx context.Context, args *wire.WriteBlockRequest, reply *wire.WriteBlockResponse) error {
	reply.Fault = s.backend.WriteBlock(args.Indices, args.Blocks)
	return nil
}

func (s *Store) Print(ctx context.Context, args *wire.PrintRequest, reply *wire.PrintResponse) error {
	dump, fault := s.backend.Print()
	reply.Dump = dump
	reply.Fault = fault
	return nil
}
