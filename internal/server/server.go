package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/wodscribe/internal/ingest"
	"github.com/claude/wodscribe/internal/ingest/alpha"
	"github.com/claude/wodscribe/internal/ingest/text"
	"github.com/claude/wodscribe/internal/models"
	"github.com/claude/wodscribe/internal/parse"
	"github.com/claude/wodscribe/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// AlphaMaxBody caps Alpha Progression CSV uploads.
const AlphaMaxBody = 32 << 20

// Store is the persistence the HTTP handlers need. *storage.DB implements it.
type Store interface {
	ingest.Store
	Ping(ctx context.Context) error
	GetWorkout(ctx context.Context, id uuid.UUID) (*models.StoredWorkout, error)
	QueryWorkouts(ctx context.Context, f storage.WorkoutFilter) ([]models.WorkoutRow, error)
	DeleteWorkout(ctx context.Context, id uuid.UUID) error
	QueryParseLogs(ctx context.Context, limit int) ([]storage.ParseLog, error)
	GetTrainingSummary(ctx context.Context, start, end time.Time, bucket string) ([]storage.TrainingSummaryPeriod, error)
	GetExerciseProgression(ctx context.Context, canonical string, start, end time.Time) ([]storage.ExerciseProgression, error)
	GetDataStats(ctx context.Context, top int) (*storage.DataStats, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store  Store
	parser *parse.Parser
	text   *text.Provider
	alpha  *alpha.Provider
	log    *slog.Logger
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(store Store, parser *parse.Parser, log *slog.Logger) *Server {
	s := &Server{
		store:  store,
		parser: parser,
		text:   text.NewProvider(store, parser, log),
		alpha:  alpha.NewProvider(store, parser.Lexicon(), log),
		log:    log,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(EchoRequestID)
	s.router.Use(RequestLogging(s.log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(CORS)

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/structures", s.handleStructures)
		r.Get("/parse-logs", s.handleParseLogs)
		r.Get("/stats", s.handleStats)
		r.Get("/summary", s.handleSummary)
		r.Get("/progression", s.handleProgression)

		r.Group(func(r chi.Router) {
			r.Use(MaxBody(textMaxBody(s.parser.MaxInput())))
			r.Post("/parse", s.handleParse)
			r.Post("/workouts", s.handleCreateWorkout)
		})
		r.With(MaxBody(AlphaMaxBody)).Post("/workouts/alpha", s.handleAlphaIngest)

		r.Get("/workouts", s.handleQueryWorkouts)
		r.Get("/workouts/{id}", s.handleGetWorkout)
		r.Delete("/workouts/{id}", s.handleDeleteWorkout)
	})
}

// textMaxBody leaves room for a JSON envelope and escaping around the text.
func textMaxBody(maxRunes int) int64 {
	if maxRunes <= 0 {
		return 0
	}
	return int64(maxRunes)*6 + 4096 //nolint:mnd
}
