// Package api exposes title resolution, all-shortest-paths, and graph
// stats over HTTP for collaborators that would rather shell out than
// link the Go package directly. Nothing in the ingestion or query path
// depends on this package; it is a thin, optional transport.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/WeGoToMars/WikiGraph-Explorer/internal/wikigraph"
)

const (
	pagesEndpoint = "/pages/{title}"
	pathsEndpoint = "/paths"
	statsEndpoint = "/stats"
)

// Config encapsulates the settings for configuring the query façade.
type Config struct {
	// Engine answers every query this façade serves.
	Engine *wikigraph.QueryEngine

	// ListenAddr is the address to listen for incoming requests on.
	ListenAddr string

	// Logger is the logger to use. If not defined an output-discarding
	// logger is used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	if cfg.ListenAddr == "" {
		return xerrors.Errorf("listen address has not been specified")
	}
	if cfg.Engine == nil {
		return xerrors.Errorf("query engine has not been provided")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}
	return nil
}

// Server implements an optional query transport: a gorilla/mux router
// exposing resolve_title, all_shortest_paths, page_count and link_count
// as JSON endpoints over an already-built, immutable graph.
type Server struct {
	cfg    Config
	router *mux.Router
}

// NewServer validates cfg and returns a ready-to-run Server.
func NewServer(cfg Config) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("api: invalid config: %w", err)
	}

	svc := &Server{cfg: cfg, router: mux.NewRouter()}
	svc.router.HandleFunc(pagesEndpoint, svc.handleResolveTitle).Methods(http.MethodGet)
	svc.router.HandleFunc(pathsEndpoint, svc.handleAllShortestPaths).Methods(http.MethodGet)
	svc.router.HandleFunc(statsEndpoint, svc.handleStats).Methods(http.MethodGet)
	return svc, nil
}

// ListenAndServe blocks serving HTTP requests on cfg.ListenAddr until
// ctx is cancelled.
func (svc *Server) ListenAndServe(ctx context.Context) error {
	httpSrv := &http.Server{Addr: svc.cfg.ListenAddr, Handler: svc.router}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return httpSrv.Shutdown(context.Background())
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return xerrors.Errorf("api: serve: %w", err)
	}
}

func (svc *Server) handleResolveTitle(w http.ResponseWriter, r *http.Request) {
	title := mux.Vars(r)["title"]
	idx, err := svc.cfg.Engine.ResolveTitle(title)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"index": idx})
}

func (svc *Server) handleAllShortestPaths(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseFromTo(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}

	paths, err := svc.cfg.Engine.Search(r.Context(), start, end)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"paths": paths})
}

func (svc *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"pages": svc.cfg.Engine.PageCount(),
		"links": svc.cfg.Engine.LinkCount(),
	})
}

func parseFromTo(r *http.Request) (wikigraph.Index, wikigraph.Index, error) {
	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")
	from, err := strconv.ParseUint(fromStr, 10, 32)
	if err != nil {
		return 0, 0, xerrors.Errorf("invalid 'from' query parameter: %w", err)
	}
	to, err := strconv.ParseUint(toStr, 10, 32)
	if err != nil {
		return 0, 0, xerrors.Errorf("invalid 'to' query parameter: %w", err)
	}
	return wikigraph.Index(from), wikigraph.Index(to), nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
