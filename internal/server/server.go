package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/semaphore"

	"github.com/copyleftdev/bioristor/internal/config"
	"github.com/copyleftdev/bioristor/internal/device"
	apierrors "github.com/copyleftdev/bioristor/internal/errors"
	"github.com/copyleftdev/bioristor/internal/logging"
	"github.com/copyleftdev/bioristor/internal/optimization"
	"github.com/copyleftdev/bioristor/internal/solver"
)

// SolveRequest is the body of a solve or job submission. Profile keys that
// are omitted keep the values of the server's default profile.
type SolveRequest struct {
	Currents device.Currents `json:"currents" validate:"required"`
	Profile  json.RawMessage `json:"profile,omitempty"`
}

// Server implements the HTTP and JSON-RPC surface of the solver service.
// Synchronous solves run on the request goroutine. Submitted jobs run on
// their own goroutine, at most cfg.Solver.Workers at a time, and are
// tracked until Close.
type Server struct {
	cfg      *config.Config
	logger   *logging.Logger
	solver   *solver.Solver
	profile  solver.Profile
	validate *validator.Validate

	// Job state management
	jobs    map[string]*Job
	order   []string
	jobsMu  sync.RWMutex
	wg      sync.WaitGroup
	workers *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new server. profile is used for every request that
// does not carry its own.
func NewServer(cfg *config.Config, logger *logging.Logger, s *solver.Solver, profile solver.Profile) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	workers := int64(cfg.Solver.Workers)
	if workers < 1 {
		workers = 1
	}
	return &Server{
		cfg:      cfg,
		logger:   logger.WithField("component", "server"),
		solver:   s,
		profile:  profile,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		jobs:     make(map[string]*Job),
		workers:  semaphore.NewWeighted(workers),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/solve", s.handleSolve)
		r.Get("/algorithms", s.handleAlgorithms)
		r.Post("/jobs", s.handleSubmit)
		r.Get("/jobs/{id}", s.handleStatus)
		r.Delete("/jobs/{id}", s.handleCancel)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// parseRequest validates a request and merges its profile over the
// default one.
func (s *Server) parseRequest(req SolveRequest) (solver.Profile, error) {
	if err := s.validate.Struct(req); err != nil {
		return solver.Profile{}, fmt.Errorf("%w: %w", optimization.ErrInvalidParams, err)
	}

	p := s.profile
	if len(req.Profile) > 0 {
		if err := json.Unmarshal(req.Profile, &p); err != nil {
			return solver.Profile{}, apierrors.InvalidRequest(fmt.Errorf("profile: %w", err))
		}
	}
	return p, nil
}

// solve runs a request. A diverged run is returned as an API error whose
// details carry the last estimate.
func (s *Server) solve(ctx context.Context, req SolveRequest) (solver.Report, error) {
	p, err := s.parseRequest(req)
	if err != nil {
		return solver.Report{}, err
	}

	report, err := s.solver.Solve(ctx, p, req.Currents)
	if errors.Is(err, optimization.ErrDiverged) {
		return report, apierrors.NewWithDetails(http.StatusUnprocessableEntity,
			apierrors.CodeDiverged, err.Error(), report.Estimate())
	}
	return report, err
}

// handleSolve handles POST /api/v1/solve.
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.renderError(w, r, apierrors.InvalidRequest(err))
		return
	}

	report, err := s.solve(r.Context(), req)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, report)
}

// handleAlgorithms handles GET /api/v1/algorithms.
func (s *Server) handleAlgorithms(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"algorithms": solver.Algorithms(),
		"default":    s.profile,
	})
}

// handleSubmit handles POST /api/v1/jobs.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.renderError(w, r, apierrors.InvalidRequest(err))
		return
	}

	job, err := s.submit(req)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, job)
}

// handleStatus handles GET /api/v1/jobs/{id}.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.status(chi.URLParam(r, "id"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, job)
}

// handleCancel handles DELETE /api/v1/jobs/{id}.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	job, err := s.cancelJob(chi.URLParam(r, "id"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	render.JSON(w, r, job)
}

// renderError writes err as an API error and logs server-side failures.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := apierrors.FromSolver(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).WithError(err).Error("Request failed")
	}
	_ = render.Render(w, r, apiErr)
}

// Close cancels pending jobs and waits for running ones to finish.
func (s *Server) Close() error {
	s.cancel()
	s.wg.Wait()
	return nil
}
