// Command astmsend drives a file of records through the ASTM client
// engine against a remote host:port, the way an instrument driver
// would replay a batch of results to a LIS. Records are read from a
// plain JSON array-of-arrays (see internal/demo.LoadRecordsFile).
package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/labconn/astm/internal/demo"
	"github.com/labconn/astm/pkg/astm"
	"github.com/labconn/astm/pkg/astm/client"
	"github.com/labconn/astm/pkg/astm/emitter"
	"github.com/labconn/astm/pkg/astm/transport"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	host := flag.String("host", "127.0.0.1", "remote ASTM server host")
	port := flag.Int("port", 1201, "remote ASTM server port")
	recordsPath := flag.String("records", "", "path to a JSON array-of-arrays records file")
	bulk := flag.Bool("bulk", false, "send all records as one bulk message instead of one per frame")
	timeout := flag.Duration("timeout", 15*time.Second, "inactivity timeout for the session")
	flag.Parse()

	if *recordsPath == "" {
		log.Fatal().Msg("-records is required")
	}

	records, err := demo.LoadRecordsFile(*recordsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load records file")
	}
	log.Info().Int("count", len(records)).Str("path", *recordsPath).Msg("records loaded")

	addr := net.JoinHostPort(*host, strconv.Itoa(*port))
	conn, err := transport.DialTCP("tcp", addr)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to ASTM server")
	}

	cfg := astm.NewClientConfig(*host, *port)
	cfg.Timeout = *timeout
	cfg.BulkMode = *bulk

	engine := client.New(cfg, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 2*(*timeout))
	defer cancel()

	if err := engine.Run(ctx, emitter.Slice(records)); err != nil {
		if errors.Is(err, astm.ErrRejected) {
			log.Fatal().Err(err).Msg("session rejected by server")
		}
		log.Fatal().Err(err).Msg("session failed")
	}

	log.Info().Msg("session completed")
}
