// Command pathoram-client drives a Path ORAM client against a remote
// bucket-storage server (spec.md §6's CLI). Usage:
//
//	pathoram-client --port 9201 --n 10 --z 4 --b 4 setup
//	pathoram-client --port 9201 --n 10 --z 4 --b 4 get <addr>
//	pathoram-client --port 9201 --n 10 --z 4 --b 4 put <addr> <uint32 value>
package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/oramlab/pathoram"
	"github.com/oramlab/pathoram/rpctransport"
)

func main() {
	var (
		host    = flag.String("host", "localhost", "bucket-store server host")
		port    = flag.Int("port", 9201, "bucket-store server port")
		logN    = flag.Int("n", 10, "log2 of the number of logical addresses")
		z       = flag.Int("z", 4, "bucket size (Z)")
		b       = flag.Int("b", 4, "block payload width in bytes")
		verbose = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Str("component", "pathoram-client").Logger()
	if *verbose {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	args := flag.Args()
	if len(args) == 0 {
		log.Fatal().Msg("usage: pathoram-client [flags] setup|get <addr>|put <addr> <value>")
	}

	cfg := pathoram.Config{
		NumBlocks:  1 << uint(*logN),
		BlockSize:  *b,
		BucketSize: *z,
	}
	cfg, err := cfg.Validate()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	addr := fmt.Sprintf("%s:%d", *host, *port)
	transport := rpctransport.Dial(addr, cfg.BucketSize)
	defer transport.Close()

	client, err := pathoram.New(cfg, transport, pathoram.NewInMemoryPositionMap(), pathoram.NoOpEncryptor{}, pathoram.NewCSPRNGSource())
	if err != nil {
		log.Fatal().Err(err).Msg("create client")
	}

	ctx := context.Background()

	switch args[0] {
	case "setup":
		data := make([][]byte, cfg.NumBlocks)
		for i := range data {
			data[i] = make([]byte, cfg.BlockSize)
		}
		if err := client.Setup(ctx, data); err != nil {
			log.Fatal().Err(err).Msg("setup")
		}
		log.Info().Int("n", cfg.NumBlocks).Msg("setup complete")

	case "get":
		if len(args) != 2 {
			log.Fatal().Msg("usage: get <addr>")
		}
		a, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal().Err(err).Msg("invalid address")
		}
		v, err := client.Read(ctx, a)
		if err != nil {
			log.Fatal().Err(err).Msg("read")
		}
		fmt.Println(decodeValue(v))

	case "put":
		if len(args) != 3 {
			log.Fatal().Msg("usage: put <addr> <value>")
		}
		a, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal().Err(err).Msg("invalid address")
		}
		val, err := strconv.ParseUint(args[2], 10, 32)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid value")
		}
		prev, err := client.Write(ctx, a, encodeValue(uint32(val), cfg.BlockSize))
		if err != nil {
			log.Fatal().Err(err).Msg("write")
		}
		fmt.Println(decodeValue(prev))

	default:
		log.Fatal().Str("command", args[0]).Msg("unknown command")
	}
}

// encodeValue packs v as a little-endian uint32 into a zero-padded
// blockSize-byte payload, matching spec.md §6's demo-scenario `value: int32`.
func encodeValue(v uint32, blockSize int) []byte {
	buf := make([]byte, blockSize)
	if blockSize >= 4 {
		binary.LittleEndian.PutUint32(buf, v)
	}
	return buf
}

func decodeValue(data []byte) uint32 {
	if len(data) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(data)
}
