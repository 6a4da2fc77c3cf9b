// Command wikigraph wires internal/ingest.Orchestrator and
// internal/api.Server together. It is a thin entry point: fetching
// dumps over HTTP and any terminal UI are external collaborators this
// module does not implement.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/WeGoToMars/WikiGraph-Explorer/internal/api"
	"github.com/WeGoToMars/WikiGraph-Explorer/internal/ingest"
)

func main() {
	var (
		pagesPath       = flag.String("pages", "", "path to the gzip-compressed page SQL dump")
		linkTargetsPath = flag.String("linktargets", "", "path to the gzip-compressed linktarget SQL dump")
		pageLinksPath   = flag.String("pagelinks", "", "path to the gzip-compressed pagelinks SQL dump")
		listenAddr      = flag.String("listen", ":8080", "address for the optional HTTP query façade")
		parallel        = flag.Bool("parallel", false, "use the parallel decompression profile")
		refreshRate     = flag.Duration("refresh-rate", 200*time.Millisecond, "minimum interval between progress callbacks")
		parallelism     = flag.Int("parallelism", 0, "worker count for the parallel profile (0 = all hardware threads)")
		chunkSize       = flag.Int64("chunk-size", 4<<20, "decompression stripe size in bytes for the parallel profile")
	)
	flag.Parse()

	log := logrus.NewEntry(logrus.StandardLogger())

	if *pagesPath == "" || *linkTargetsPath == "" || *pageLinksPath == "" {
		log.Fatal("-pages, -linktargets and -pagelinks are all required")
	}

	cfg := ingest.NewConfig(
		ingest.WithRefreshRate(*refreshRate),
		ingest.WithParallelism(*parallelism),
		ingest.WithChunkSize(*chunkSize),
	)
	orchestrator := ingest.New(cfg, log, *parallel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	engine, err := orchestrator.Run(ctx, ingest.DumpPaths{
		Pages:       *pagesPath,
		LinkTargets: *linkTargetsPath,
		PageLinks:   *pageLinksPath,
	})
	if err != nil {
		log.WithError(err).Fatal("ingestion failed")
	}

	srv, err := api.NewServer(api.Config{
		Engine:     engine,
		ListenAddr: *listenAddr,
		Logger:     log,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to start query façade")
	}

	log.WithField("addr", *listenAddr).Info("serving wikigraph queries")
	if err := srv.ListenAndServe(ctx); err != nil {
		log.WithError(err).Fatal("query façade exited with error")
	}
}
