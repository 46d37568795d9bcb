package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/copyleftdev/orbitplan/internal/config"
	"github.com/copyleftdev/orbitplan/internal/logging"
	"github.com/copyleftdev/orbitplan/internal/optimization"
	"github.com/copyleftdev/orbitplan/internal/planner"
	"github.com/copyleftdev/orbitplan/internal/trajectory"
)

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

// Logger defines the logging interface used by the server
// This allows us to be flexible with our logging implementation
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// planRequest is the body of a plan request.
type planRequest struct {
	// PlanID lets a client name the plan so it can cancel it while it runs.
	PlanID     string                  `json:"plan_id,omitempty"`
	Snapshot   trajectory.SnapshotSpec `json:"snapshot"`
	Seed       int64                   `json:"seed,omitempty"`
	Iterations int                     `json:"iterations,omitempty"`
}

type planResponse struct {
	PlanID string `json:"plan_id"`
	*planner.Result
}

type survivalEntry struct {
	Thrust       trajectory.Vec `json:"thrust"`
	SurvivalTime int            `json:"survival_time"`
}

type survivalResponse struct {
	Best    survivalEntry   `json:"best"`
	Thrusts []survivalEntry `json:"thrusts"`
}

var errPlanNotFound = errors.New("plan not found")

// runningPlan is the registry entry of one in-flight plan request.
type runningPlan struct {
	cancel context.CancelFunc
}

// badRequestError marks errors caused by the request content.
type badRequestError struct{ err error }

func (e badRequestError) Error() string { return e.err.Error() }
func (e badRequestError) Unwrap() error { return e.err }

func isBadRequest(err error) bool {
	var br badRequestError
	return errors.As(err, &br) || optimization.IsInvariantViolation(err)
}

// Server exposes the planner over HTTP and JSON-RPC. Plans run
// synchronously within the request; running plans can be cancelled by ID.
type Server struct {
	cfg     *config.Config
	logger  Logger
	planner *planner.Planner

	running   map[string]*runningPlan
	runningMu sync.Mutex
}

// NewServer creates a server instance with the given config, logger and planner.
func NewServer(cfg *config.Config, logger Logger, p *planner.Planner) *Server {
	return &Server{
		cfg:     cfg,
		logger:  logger,
		planner: p,
		running: make(map[string]*runningPlan),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/plan", s.handlePlan)
		r.Delete("/plan/{id}", s.handleCancel)
		r.Post("/survival", s.handleSurvival)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// plan runs one planning request to completion or cancellation.
func (s *Server) plan(ctx context.Context, req planRequest) (*planResponse, error) {
	snap, err := req.Snapshot.Snapshot()
	if err != nil {
		return nil, err
	}

	p := s.planner
	if req.Seed != 0 {
		p = p.WithSeed(req.Seed)
	}
	if req.Iterations != 0 {
		if limit := s.cfg.Planning.MaxRequestIterations; limit > 0 && req.Iterations > limit {
			return nil, badRequestError{fmt.Errorf("iterations %d exceeds the limit of %d", req.Iterations, limit)}
		}
		if p, err = p.WithIterations(req.Iterations); err != nil {
			return nil, err
		}
	}

	id := req.PlanID
	if id == "" {
		id = uuid.NewString()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	rp, err := s.track(id, cancel)
	if err != nil {
		return nil, err
	}
	defer s.untrack(id, rp)

	res, err := p.Plan(ctx, snap)
	if err != nil {
		return nil, err
	}
	return &planResponse{PlanID: id, Result: res}, nil
}

func (s *Server) track(id string, cancel context.CancelFunc) (*runningPlan, error) {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()
	if _, exists := s.running[id]; exists {
		return nil, badRequestError{fmt.Errorf("plan %s is already running", id)}
	}
	rp := &runningPlan{cancel: cancel}
	s.running[id] = rp
	return rp, nil
}

// untrack removes rp once its request returns. The entry is only removed
// while it still belongs to rp.
func (s *Server) untrack(id string, rp *runningPlan) {
	s.runningMu.Lock()
	if s.running[id] == rp {
		delete(s.running, id)
	}
	s.runningMu.Unlock()
}

// cancel stops a running plan. The plan still answers its own request with
// the best result found so far, and its ID stays taken until it does.
func (s *Server) cancel(id string) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	rp, exists := s.running[id]
	if !exists {
		return badRequestError{fmt.Errorf("plan %s: %w", id, errPlanNotFound)}
	}
	rp.cancel()

	s.logger.Info("Plan cancelled", map[string]interface{}{"plan_id": id})
	return nil
}

func survival(spec trajectory.SnapshotSpec) (*survivalResponse, error) {
	snap, err := spec.Snapshot()
	if err != nil {
		return nil, err
	}
	resp := &survivalResponse{Thrusts: make([]survivalEntry, 0, len(trajectory.Accelerations))}
	for _, a := range trajectory.Accelerations {
		resp.Thrusts = append(resp.Thrusts, survivalEntry{Thrust: a, SurvivalTime: trajectory.SurvivalTime(snap, a)})
	}
	best, t := trajectory.BestSingleThrust(snap)
	resp.Best = survivalEntry{Thrust: best, SurvivalTime: t}
	return resp, nil
}

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request struct {
		JSONRPC string            `json:"jsonrpc"`
		ID      interface{}       `json:"id"`
		Method  string            `json:"method"`
		Params  []json.RawMessage `json:"params,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, codeParseError, "Parse error", nil)
		return
	}

	// Validate JSON-RPC 2.0 request
	if request.JSONRPC != "2.0" {
		s.respondWithError(w, codeInvalidRequest, "Invalid Request", request.ID)
		return
	}

	var result interface{}
	var err error

	switch request.Method {
	case "trajectory.plan":
		var req planRequest
		if err = decodeParam(request.Params, &req); err == nil {
			result, err = s.plan(r.Context(), req)
		}
	case "trajectory.survival":
		var spec trajectory.SnapshotSpec
		if err = decodeParam(request.Params, &spec); err == nil {
			result, err = survival(spec)
		}
	case "trajectory.cancel":
		var req struct {
			PlanID string `json:"plan_id"`
		}
		if err = decodeParam(request.Params, &req); err == nil {
			err = s.cancel(req.PlanID)
			result = map[string]string{"status": "cancellation requested"}
		}
	default:
		s.respondWithError(w, codeMethodNotFound, "Method not found", request.ID)
		return
	}

	if err != nil {
		code := codeServerError
		if isBadRequest(err) {
			code = codeInvalidParams
		}
		s.respondWithError(w, code, err.Error(), request.ID)
		return
	}

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// decodeParam decodes the first positional parameter into v.
func decodeParam(params []json.RawMessage, v interface{}) error {
	if len(params) == 0 {
		return badRequestError{errors.New("missing required parameters")}
	}
	if err := json.Unmarshal(params[0], v); err != nil {
		return badRequestError{fmt.Errorf("invalid parameter format: %w", err)}
	}
	return nil
}

// respondWithError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Warn("RPC error", map[string]interface{}{
		"code":    code,
		"message": message,
	})

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// Close cancels every running plan. Each plan still removes itself from
// the registry when its request returns.
func (s *Server) Close() error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	for _, rp := range s.running {
		rp.cancel()
	}
	return nil
}

// handlePlan handles POST /api/v1/plan.
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": fmt.Sprintf("Invalid request body: %v", err),
		})
		return
	}

	resp, err := s.plan(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSurvival handles POST /api/v1/survival.
func (s *Server) handleSurvival(w http.ResponseWriter, r *http.Request) {
	var spec trajectory.SnapshotSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": fmt.Sprintf("Invalid request body: %v", err),
		})
		return
	}

	resp, err := survival(spec)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCancel handles DELETE /api/v1/plan/{id}.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.cancel(id); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errPlanNotFound) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, map[string]interface{}{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancellation requested"})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if isBadRequest(err) {
		status = http.StatusBadRequest
	} else {
		s.logger.Error("Request failed", map[string]interface{}{"error": err.Error()})
	}
	writeJSON(w, status, map[string]interface{}{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
