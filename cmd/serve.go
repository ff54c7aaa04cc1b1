package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/RextonRZ/equallens-scoring/internal/interview"
	"github.com/RextonRZ/equallens-scoring/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scoring HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, true)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		}))

		r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/v1/score", func(w http.ResponseWriter, req *http.Request) {
			var in scoreInput
			if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}

			card := env.Scorer.Score(req.Context(), interview.ScoreRequest{
				Question:       in.Question,
				JobDescription: in.JobDescription,
				Transcript:     in.Transcript,
				WordTimings:    in.timings(),
				AudioSamples:   in.AudioSamples,
				SampleRate:     in.SampleRate,
			})
			writeJSON(w, http.StatusOK, card)
		})

		r.Post("/v1/duplicates/scan", func(w http.ResponseWriter, req *http.Request) {
			var in struct {
				JobID  string             `json:"job_id"`
				Resume model.ResumeFields `json:"resume"`
			}
			if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if in.JobID == "" {
				writeError(w, http.StatusBadRequest, "job_id is required")
				return
			}

			existing, err := env.Store.ListCandidates(req.Context(), in.JobID)
			if err != nil {
				zap.L().Error("list candidates failed", zap.String("job_id", in.JobID), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "candidate lookup failed")
				return
			}
			writeJSON(w, http.StatusOK, env.Dup.Scan(req.Context(), in.Resume, existing))
		})

		r.Post("/v1/assessments", func(w http.ResponseWriter, req *http.Request) {
			var in struct {
				CandidateID string `json:"candidate_id"`
				assessInput
			}
			if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}

			assessment := env.Agg.Assess(req.Context(), in.Content, in.CrossRef)
			if in.CandidateID != "" {
				if err := env.Store.SaveAssessment(req.Context(), in.CandidateID, assessment); err != nil {
					zap.L().Error("save assessment failed", zap.String("candidate_id", in.CandidateID), zap.Error(err))
					writeError(w, http.StatusInternalServerError, "save failed")
					return
				}
			}
			writeJSON(w, http.StatusOK, assessment)
		})

		r.Get("/v1/assessments/{candidateID}", func(w http.ResponseWriter, req *http.Request) {
			candID := chi.URLParam(req, "candidateID")
			assessment, err := env.Store.GetAssessment(req.Context(), candID)
			if err != nil {
				zap.L().Error("get assessment failed", zap.String("candidate_id", candID), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "lookup failed")
				return
			}
			if assessment == nil {
				writeError(w, http.StatusNotFound, "assessment not found")
				return
			}
			writeJSON(w, http.StatusOK, assessment)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
