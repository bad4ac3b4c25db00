// Command pathoram-server runs the minimally-trusted bucket-storage server
// of spec.md §4.2: a keyed array of buckets, spoken to only through
// Setup/ReadBlock/WriteBlock/Print RPCs, with no view of logical addresses
// or plaintext.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/oramlab/pathoram/bucketstore"
	"github.com/oramlab/pathoram/rpctransport"
)

func main() {
	var (
		port    = flag.Int("port", 9201, "port to listen on")
		verbose = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Str("component", "pathoram-server").Logger()
	if *verbose {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	store := bucketstore.NewMemStore()
	handler := rpctransport.Server(store)

	mux := http.NewServeMux()
	mux.Handle(rpctransport.DefaultPath, handler)

	addr := fmt.Sprintf(":%d", *port)
	log.Info().Str("addr", addr).Str("path", rpctransport.DefaultPath).Msg("listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
