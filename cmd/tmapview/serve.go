package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/recera/tmapview/cmd/tmapview/internal/reload"
	"github.com/recera/tmapview/internal/cache"
	"github.com/recera/tmapview/internal/storage"
	"github.com/recera/tmapview/pkg/dataset"
	"github.com/recera/tmapview/pkg/live"
)

// DatasetPath serves the current dataset as JSON
const DatasetPath = "/tmap/dataset"

type server struct {
	path    string
	name    string
	log     zerolog.Logger
	cache   *cache.Cache
	live    *live.Server
	store   *storage.Manager
	watcher *reload.Watcher
}

func newServeCommand(a *app) *cobra.Command {
	var port int
	var host string
	var noWatch bool

	cmd := &cobra.Command{
		Use:   "serve [dataset]",
		Short: "Serve a dataset over the live websocket protocol",
		Long: `Starts an HTTP server with the live endpoint at /tmap/live/{session}.
The dataset file is watched and sessions are told to reload when it changes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// CLI takes precedence
			if port != 0 {
				a.cfg.Serve.Port = port
			}
			if host != "" {
				a.cfg.Serve.Host = host
			}
			if noWatch {
				a.cfg.Serve.Watch = false
			}
			path, err := a.datasetPath(args)
			if err != nil {
				return err
			}
			return runServe(a, path)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Disable dataset hot reload")

	return cmd
}

func newServer(a *app, path string) (*server, error) {
	strategy, err := a.cfg.Cache.EvictionStrategy()
	if err != nil {
		return nil, err
	}

	s := &server{
		path: path,
		name: filepath.Base(path),
		log:  a.log.With().Str("component", "serve").Logger(),
		cache: cache.New(cache.Config{
			MaxEntries: a.cfg.Cache.MaxEntries,
			MaxAge:     a.cfg.Cache.MaxAge,
			Strategy:   strategy,
			Logger:     &a.log,
		}),
	}

	d, _, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}

	opts := live.Options{
		Width:         a.cfg.Serve.Width,
		Height:        a.cfg.Serve.Height,
		ExportTimeout: a.cfg.Serve.ExportTimeout,

		DevicePixelRatio: a.cfg.Viewer.DevicePixelRatio,
		ZoomPadding:      a.cfg.Viewer.ZoomPadding,
		Strict:           a.cfg.Viewer.Strict,
		Logger:           &a.log,
	}

	s.store = storage.NewManager(a.cfg.Storage.StorageManagerConfig(), a.log)
	if err := s.store.Connect(); err != nil {
		s.log.Warn().Err(err).Msg("bookmarks disabled")
		s.store = nil
	} else {
		opts.Bookmarks = s.store
	}

	s.live = live.NewServer(d, s.name, opts)

	if a.cfg.Serve.Watch {
		s.watcher, err = reload.New(path, a.cfg.Serve.Debounce, s.reload, a.log)
		if err != nil {
			s.close()
			return nil, err
		}
	}
	return s, nil
}

// reload parses the changed file and swaps the dataset of every session.
// Saving identical content is not a change.
func (s *server) reload(path string) {
	current, _ := s.live.Dataset()

	start := time.Now()
	d, hit, err := s.cache.Load(path)
	if err != nil {
		s.log.Error().Err(err).Msg("reload failed, keeping current dataset")
		return
	}
	if current != nil && current.Hash == d.Hash {
		return
	}
	s.log.Info().
		Bool("cached", hit).
		Dur("took", time.Since(start)).
		Int("sessions", s.live.Sessions()).
		Msg("dataset reloaded")
	s.live.SetDataset(d, s.name)
}

func (s *server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(live.PathPrefix, s.live.Handler())
	mux.HandleFunc("GET "+DatasetPath, s.serveDataset)
	return mux
}

func (s *server) serveDataset(w http.ResponseWriter, r *http.Request) {
	d, _ := s.live.Dataset()
	data, err := dataset.Encode(d, dataset.FormatJSON)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *server) close() {
	if s.watcher != nil {
		s.watcher.Close()
	}
	if s.live != nil {
		s.live.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log.Warn().Err(err).Msg("closing bookmark store")
		}
	}
}

func runServe(a *app, path string) error {
	s, err := newServer(a, path)
	if err != nil {
		return err
	}
	defer s.close()

	addr := a.cfg.Serve.Addr()
	srv := &http.Server{
		Addr:    addr,
		Handler: s.handler(),
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		s.log.Info().Msg("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	s.log.Info().
		Str("addr", "http://"+addr).
		Str("dataset", path).
		Bool("watch", s.watcher != nil).
		Msg("serving")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
