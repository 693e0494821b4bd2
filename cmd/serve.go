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

	"github.com/w-datascientist/arbovirose/internal/catalog"
	"github.com/w-datascientist/arbovirose/internal/model"
	"github.com/w-datascientist/arbovirose/internal/pipeline"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the JSON API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		p, err := initPipeline()
		if err != nil {
			return err
		}

		handler := buildRouter(p, &pipeline.Tracker{}, cfg.Server.AllowedOrigins)
		return startServer(ctx, handler, resolvePort(servePort, cfg.Server.Port))
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// resolvePort prefers the flag value over config.
func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

// startServer serves handler until ctx is cancelled, then shuts down
// gracefully.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

// buildRouter registers the API routes.
func buildRouter(p *pipeline.Pipeline, tracker *pipeline.Tracker, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
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

	r.Get("/municipalities", func(w http.ResponseWriter, r *http.Request) {
		names := p.Catalog().Names()
		if q := r.URL.Query().Get("q"); q != "" {
			names = p.Catalog().Search(q)
		}
		if names == nil {
			names = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"municipalities": names})
	})

	r.Get("/municipalities/{name}", func(w http.ResponseWriter, r *http.Request) {
		name, err := url.PathUnescape(chi.URLParam(r, "name"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid municipality name")
			return
		}
		m, err := p.Catalog().Lookup(name)
		if err != nil {
			writeErr(w, err)
			return
		}
		if r.URL.Query().Get("format") == "geojson" {
			w.Header().Set("Content-Type", "application/geo+json")
			if err := catalog.WriteGeoJSON(w, []*model.Municipality{m}); err != nil {
				zap.L().Error("serve: write geojson", zap.Error(err))
			}
			return
		}
		writeJSON(w, http.StatusOK, municipalityView(m))
	})

	r.Get("/overview", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		diseases, err := parseDiseases(splitList(q.Get("diseases")))
		if err != nil {
			writeErr(w, err)
			return
		}
		year, err := intParam(q, "year")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		ov, err := p.Overview(r.Context(), q.Get("municipality"), diseases, year)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ov)
	})

	r.Get("/forecast", func(w http.ResponseWriter, r *http.Request) {
		req, err := requestFromQuery(r.URL.Query())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		seq := tracker.Begin()
		res, err := p.Forecast(r.Context(), req)
		if err != nil {
			tracker.Fail(seq)
			writeErr(w, err)
			return
		}
		if !tracker.Commit(seq, res) {
			zap.L().Debug("serve: newer forecast already accepted", zap.String("run_id", res.RunID))
		}
		writeJSON(w, http.StatusOK, res)
	})

	r.Get("/forecast/latest", func(w http.ResponseWriter, _ *http.Request) {
		res, _ := tracker.Latest()
		if res == nil {
			writeError(w, http.StatusNotFound, "no forecast has completed yet")
			return
		}
		writeJSON(w, http.StatusOK, res)
	})

	return r
}

// requestFromQuery parses forecast parameters. Absent parameters fall back
// to config.
func requestFromQuery(q url.Values) (pipeline.Request, error) {
	req := pipeline.Request{
		Municipality: q.Get("municipality"),
		Disease:      model.Disease(q.Get("disease")),
		Model:        model.ModelKind(q.Get("model")),
	}

	var err error
	for _, p := range []struct {
		key string
		dst *int
	}{
		{"start_year", &req.StartYear},
		{"end_year", &req.EndYear},
		{"target_year", &req.TargetYear},
	} {
		if *p.dst, err = intParam(q, p.key); err != nil {
			return req, err
		}
	}

	for _, s := range splitList(q.Get("years")) {
		y, err := strconv.Atoi(s)
		if err != nil {
			return req, eris.Errorf("invalid years entry %q", s)
		}
		req.Years = append(req.Years, y)
	}

	if s := q.Get("split"); s != "" {
		if req.SplitRatio, err = strconv.ParseFloat(s, 64); err != nil || req.SplitRatio <= 0 || req.SplitRatio >= 1 {
			return req, eris.Errorf("invalid split %q", s)
		}
	}
	if s := q.Get("seed"); s != "" {
		seed, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return req, eris.Errorf("invalid seed %q", s)
		}
		req.Seed = &seed
	}
	if req.CrossValidation, err = boolParam(q, "cv"); err != nil {
		return req, err
	}
	if req.CombineYears, err = boolParam(q, "combine_years"); err != nil {
		return req, err
	}
	return req, nil
}

func intParam(q url.Values, key string) (int, error) {
	s := q.Get(key)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, eris.Errorf("invalid %s %q", key, s)
	}
	return v, nil
}

func boolParam(q url.Values, key string) (*bool, error) {
	s := q.Get(key)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil, eris.Errorf("invalid %s %q", key, s)
	}
	return &v, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// statusFor maps pipeline conditions to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrCatalogUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, model.ErrMunicipalityNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidDisease), errors.Is(err, model.ErrInvalidModel):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrDataUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, model.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("serve: request failed", zap.Int("status", status), zap.Error(err))
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("serve: encode response", zap.Error(err))
	}
}
