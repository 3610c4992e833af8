package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/facility-watch/detention-cli/internal/config"
	"github.com/facility-watch/detention-cli/internal/model"
	"github.com/facility-watch/detention-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored facility snapshots as a read-only JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate(config.ModeServe); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           buildRouter(st, cfg.Server.CORSOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// facilityEntry is a facility together with its identity key.
type facilityEntry struct {
	Key string `json:"key"`
	*model.Facility
}

type facilitiesResponse struct {
	RunID      string          `json:"run_id"`
	Count      int             `json:"count"`
	Facilities []facilityEntry `json:"facilities"`
}

// buildRouter returns the API handler. Every facility request reads the
// latest stored snapshot.
func buildRouter(st store.Store, origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/facilities", func(w http.ResponseWriter, req *http.Request) {
		run, snap, err := st.LatestSnapshot(req.Context())
		if err != nil {
			writeStoreError(w, err)
			return
		}
		state := req.URL.Query().Get("state")
		office := req.URL.Query().Get("field_office")

		resp := facilitiesResponse{RunID: run.ID, Facilities: []facilityEntry{}}
		for _, key := range snap.Keys() {
			f := snap.Facilities[key]
			if !matchesFilter(f, state, office) {
				continue
			}
			resp.Facilities = append(resp.Facilities, facilityEntry{Key: key, Facility: f})
		}
		resp.Count = len(resp.Facilities)
		writeJSON(w, http.StatusOK, resp)
	})

	r.Get("/facilities/{key}", func(w http.ResponseWriter, req *http.Request) {
		key := chi.URLParam(req, "key")
		if unescaped, err := url.PathUnescape(key); err == nil {
			key = unescaped
		}
		_, snap, err := st.LatestSnapshot(req.Context())
		if err != nil {
			writeStoreError(w, err)
			return
		}
		f, ok := snap.Facilities[key]
		if !ok {
			writeError(w, http.StatusNotFound, "facility not found")
			return
		}
		writeJSON(w, http.StatusOK, facilityEntry{Key: key, Facility: f})
	})

	r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		filter := store.RunFilter{Mode: model.RunMode(q.Get("mode"))}
		var err error
		if filter.Limit, err = intParam(q.Get("limit")); err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if filter.Offset, err = intParam(q.Get("offset")); err != nil {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		runs, err := st.ListRuns(req.Context(), filter)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if runs == nil {
			runs = []model.Run{}
		}
		writeJSON(w, http.StatusOK, runs)
	})

	r.Get("/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
		run, err := st.GetRun(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, run)
	})

	return r
}

// matchesFilter compares state and field office case-insensitively. The
// office filter accepts either the office name or its AOR code.
func matchesFilter(f *model.Facility, state, office string) bool {
	if state != "" && !strings.EqualFold(f.Address.AdministrativeArea, state) {
		return false
	}
	if office != "" &&
		!strings.EqualFold(f.FieldOffice.FieldOffice, office) &&
		!strings.EqualFold(f.FieldOffice.ID, office) {
		return false
	}
	return true
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, eris.Errorf("invalid value %q", s)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("serve: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	zap.L().Error("serve: store request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
