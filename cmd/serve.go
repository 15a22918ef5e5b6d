package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/deckcheck/internal/extract"
	"github.com/sells-group/deckcheck/internal/model"
	"github.com/sells-group/deckcheck/internal/pipeline"
	"github.com/sells-group/deckcheck/internal/store"
)

// maxUploadBytes caps deck uploads at 100 MiB.
const maxUploadBytes = 100 << 20

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP analysis server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initPipeline(ctx, "")
		if err != nil {
			return err
		}
		defer e.Close()

		router := buildRouter(e)
		return startServer(ctx, router, resolvePort(servePort, cfg.Server.Port))
	},
}

func resolvePort(flag, configured int) int {
	if flag != 0 {
		return flag
	}
	return configured
}

// buildRouter assembles the analysis API.
func buildRouter(e *env) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/analyze", handleAnalyze(e))
	r.Get("/runs", handleListRuns(e))
	r.Get("/runs/{id}", handleGetRun(e))

	return r
}

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
		srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

// handleAnalyze accepts a multipart deck upload, runs the pipeline
// synchronously, and returns the report.
func handleAnalyze(e *env) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		req.Body = http.MaxBytesReader(w, req.Body, maxUploadBytes)

		file, header, err := req.FormFile("deck")
		if err != nil {
			writeError(w, http.StatusBadRequest, "multipart field 'deck' is required")
			return
		}
		defer file.Close()

		tmp, err := os.CreateTemp("", "deckcheck-upload-*"+filepath.Ext(header.Filename))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not store upload")
			return
		}
		defer os.Remove(tmp.Name())

		if _, err := io.Copy(tmp, file); err != nil {
			tmp.Close()
			writeError(w, http.StatusInternalServerError, "could not store upload")
			return
		}
		tmp.Close()

		report, err := e.Pipeline.Run(req.Context(), tmp.Name())
		if err != nil {
			status := analysisErrorStatus(err)
			zap.L().Error("upload analysis failed",
				zap.String("filename", header.Filename),
				zap.Int("status", status),
				zap.Error(err),
			)
			writeError(w, status, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, report)
	}
}

func handleListRuns(e *env) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if e.Store == nil {
			writeError(w, http.StatusNotFound, "run history is disabled")
			return
		}
		runs, err := e.Store.ListRuns(req.Context(), store.RunFilter{
			Status: model.RunStatus(req.URL.Query().Get("status")),
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if runs == nil {
			runs = []model.Run{}
		}
		writeJSON(w, http.StatusOK, runs)
	}
}

func handleGetRun(e *env) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if e.Store == nil {
			writeError(w, http.StatusNotFound, "run history is disabled")
			return
		}
		run, err := e.Store.GetRun(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, run)
	}
}

// analysisErrorStatus maps pipeline failures to HTTP statuses: bad decks
// are the client's fault, model failures are upstream's.
func analysisErrorStatus(err error) int {
	var xerr *extract.ExtractionError
	if errors.As(err, &xerr) {
		return http.StatusBadRequest
	}
	var aerr *pipeline.AnalysisError
	var ferr *pipeline.ResponseFormatError
	if errors.As(err, &aerr) || errors.As(err, &ferr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
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
