package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/veracity/internal/crossval"
	"github.com/sells-group/veracity/internal/model"
	"github.com/sells-group/veracity/internal/report"
	"github.com/sells-group/veracity/internal/validate"
)

var servePort int

// validateRequest is the wire shape of POST /v1/validate.
type validateRequest struct {
	Record      model.Record              `json:"record,omitempty"`
	Batch       []model.Record            `json:"batch,omitempty"`
	Collections map[string][]model.Record `json:"collections,omitempty"`
	References  []crossval.Reference      `json:"references,omitempty"`
	Schema      string                    `json:"schema,omitempty"`
	Level       string                    `json:"level,omitempty"`
	Context     struct {
		Provider      string    `json:"provider,omitempty"`
		WindowStart   time.Time `json:"window_start,omitempty"`
		WindowEnd     time.Time `json:"window_end,omitempty"`
		ExpectedCount int       `json:"expected_count,omitempty"`
	} `json:"context,omitempty"`
}

// newRouter builds the validation API routes over a wired env.
func newRouter(e *env) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/v1/validate", func(w http.ResponseWriter, req *http.Request) {
		var body validateRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var level model.ValidationLevel
		if body.Level != "" {
			lv, err := model.ParseLevel(body.Level)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			level = lv
		}

		res, err := e.Validator.Evaluate(validate.Request{
			Record:      body.Record,
			Batch:       body.Batch,
			Collections: body.Collections,
			References:  body.References,
			Schema:      body.Schema,
			Level:       level,
			Context: model.RecordContext{
				Provider:      body.Context.Provider,
				WindowStart:   body.Context.WindowStart,
				WindowEnd:     body.Context.WindowEnd,
				ExpectedCount: body.Context.ExpectedCount,
			},
		})
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := e.Store.SaveResult(req.Context(), res); err != nil {
			zap.L().Error("serve: save result", zap.Error(err))
		}

		writeJSON(w, http.StatusOK, res)
	})

	r.Get("/v1/metrics", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, e.Metrics.Snapshot())
	})

	r.Get("/v1/report", func(w http.ResponseWriter, req *http.Request) {
		provider := req.URL.Query().Get("provider")
		hours := 24
		if raw := req.URL.Query().Get("hours"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "hours must be a positive integer")
				return
			}
			hours = n
		}

		to := time.Now().UTC()
		from := to.Add(-time.Duration(hours) * time.Hour)
		summary, err := report.NewReporter(e.Store).Summarize(req.Context(), provider, from, to)
		if err != nil {
			zap.L().Error("serve: summarize", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "report failed")
			return
		}

		writeJSON(w, http.StatusOK, summary)
	})

	return r
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the validation HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx, true)
		if err != nil {
			return err
		}
		defer e.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(e),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
