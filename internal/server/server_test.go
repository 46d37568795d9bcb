package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/orbitplan/internal/config"
	"github.com/copyleftdev/orbitplan/internal/logging"
	"github.com/copyleftdev/orbitplan/internal/planner"
)

// testConfig creates a test configuration with default values
func testConfig(t *testing.T) *config.Config {
	cfg := &config.Config{
		Environment: "test",
	}

	cfg.HTTP.Port = 8080
	cfg.HTTP.ReadTimeout = 30 * time.Second
	cfg.HTTP.WriteTimeout = 30 * time.Second

	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "console"
	cfg.Logging.Output = "stdout"

	cfg.Annealing.StartTemperature = 20
	cfg.Annealing.EndTemperature = 0.2
	cfg.Annealing.Iterations = 2000
	cfg.Annealing.Cooling = "geometric"
	cfg.Annealing.Restarts = 2
	cfg.Annealing.Workers = 2
	cfg.Annealing.Seed = 1

	cfg.Planning.HorizonCap = 20
	cfg.Planning.MaxRequestIterations = 50000

	return cfg
}

// testLogger creates a test logger
func testLogger(t *testing.T) *logging.Logger {
	logger, err := logging.NewLogger(&logging.Config{
		Level:  "debug",
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return logger
}

func testServer(t *testing.T) (*Server, chi.Router) {
	cfg := testConfig(t)
	logger := testLogger(t)
	p, err := planner.New(cfg, logger, nil)
	require.NoError(t, err)

	srv := NewServer(cfg, logger, p)
	r := chi.NewRouter()
	srv.RegisterRoutes(r)
	return srv, r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

const escapeSnapshot = `{"position": {"x": 3, "y": 0}, "velocity": {"x": 1, "y": 0},
	"boundary": {"inner_radius": 2, "outer_radius": 100}, "turns_remaining": 5}`

func TestNewServer(t *testing.T) {
	srv, _ := testServer(t)
	assert.NotNil(t, srv, "Server should be created")
}

func TestRegisterRoutes(t *testing.T) {
	_, r := testServer(t)

	tests := []struct {
		method      string
		path        string
		shouldExist bool
	}{
		{"POST", "/api/v1/plan", true},
		{"DELETE", "/api/v1/plan/123", true},
		{"POST", "/api/v1/survival", true},
		{"POST", "/rpc", true},
		{"GET", "/healthz", false}, // Not registered by server package
		{"GET", "/nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if tt.shouldExist {
				assert.NotEqual(t, "404 page not found\n", rr.Body.String(), "route should be registered")
			} else {
				assert.Equal(t, http.StatusNotFound, rr.Code)
			}
		})
	}
}

func TestHandlePlan(t *testing.T) {
	_, r := testServer(t)

	rr := doJSON(t, r, http.MethodPost, "/api/v1/plan", map[string]interface{}{
		"plan_id":  "escape-1",
		"snapshot": json.RawMessage(escapeSnapshot),
		"seed":     5,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		PlanID   string                 `json:"plan_id"`
		Score    float64                `json:"score"`
		Horizon  int                    `json:"horizon"`
		Seed     int64                  `json:"seed"`
		Outcome  map[string]interface{} `json:"outcome"`
		Baseline map[string]interface{} `json:"baseline"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.Equal(t, "escape-1", resp.PlanID)
	assert.Equal(t, 0.0, resp.Score)
	assert.Equal(t, 5, resp.Horizon)
	assert.Equal(t, int64(5), resp.Seed)
	assert.Equal(t, false, resp.Outcome["crashed"])
	assert.NotNil(t, resp.Baseline["thrust"])
}

func TestHandlePlanGeneratesID(t *testing.T) {
	_, r := testServer(t)

	rr := doJSON(t, r, http.MethodPost, "/api/v1/plan", map[string]interface{}{
		"snapshot": map[string]interface{}{"turns_remaining": 3},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp["plan_id"], 36)
}

func TestHandlePlanErrors(t *testing.T) {
	_, r := testServer(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{"turns beyond a match", map[string]interface{}{"snapshot": map[string]interface{}{"turns_remaining": 100000}}},
		{"no turns remaining", map[string]interface{}{"snapshot": map[string]interface{}{"turns_remaining": 0}}},
		{"unknown gravity", map[string]interface{}{"snapshot": map[string]interface{}{"turns_remaining": 3, "gravity": "newtonian"}}},
		{"too many iterations", map[string]interface{}{"snapshot": map[string]interface{}{"turns_remaining": 3}, "iterations": 10_000_000}},
		{"negative iterations", map[string]interface{}{"snapshot": map[string]interface{}{"turns_remaining": 3}, "iterations": -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, r, http.MethodPost, "/api/v1/plan", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/plan", bytes.NewBufferString("{"))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandleSurvival(t *testing.T) {
	_, r := testServer(t)

	rr := doJSON(t, r, http.MethodPost, "/api/v1/survival", map[string]interface{}{
		"position":        map[string]int{"x": -20, "y": -20},
		"obstacle":        map[string]int{"gravity_radius": 16, "stage_half_size": 64},
		"turns_remaining": 50,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp survivalResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Thrusts, 9)
	assert.Equal(t, 1, resp.Best.Thrust.X)
	assert.Equal(t, 0, resp.Best.Thrust.Y)
	assert.Equal(t, 3, resp.Best.SurvivalTime)

	rr = doJSON(t, r, http.MethodPost, "/api/v1/survival", map[string]interface{}{
		"turns_remaining": 100000000,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
}

func TestHandleCancel(t *testing.T) {
	srv, r := testServer(t)

	rr := doJSON(t, r, http.MethodDelete, "/api/v1/plan/missing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := srv.track("running", cancel)
	require.NoError(t, err)

	rr = doJSON(t, r, http.MethodDelete, "/api/v1/plan/running", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Error(t, ctx.Err(), "plan context must be cancelled")

	_, err = srv.track("dup", func() {})
	require.NoError(t, err)
	_, err = srv.track("dup", func() {})
	assert.Error(t, err, "plan IDs must be unique while running")
}

func TestCancelledPlanKeepsIDUntilDone(t *testing.T) {
	srv, r := testServer(t)

	first, err := srv.track("orbit", func() {})
	require.NoError(t, err)

	rr := doJSON(t, r, http.MethodDelete, "/api/v1/plan/orbit", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	// The cancelled plan is still winding down, so its ID is not free yet.
	_, err = srv.track("orbit", func() {})
	assert.Error(t, err)

	srv.untrack("orbit", first)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	second, err := srv.track("orbit", cancel)
	require.NoError(t, err)

	// A late untrack of the first request must not drop the second.
	srv.untrack("orbit", first)

	rr = doJSON(t, r, http.MethodDelete, "/api/v1/plan/orbit", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Error(t, ctx.Err(), "second plan must still be cancellable")

	srv.untrack("orbit", second)
	rr = doJSON(t, r, http.MethodDelete, "/api/v1/plan/orbit", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestJSONRPC(t *testing.T) {
	_, r := testServer(t)

	call := func(t *testing.T, method string, params ...interface{}) map[string]interface{} {
		t.Helper()
		rr := doJSON(t, r, http.MethodPost, "/rpc", map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      1,
			"method":  method,
			"params":  params,
		})
		require.Equal(t, http.StatusOK, rr.Code)
		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		return resp
	}

	t.Run("plan", func(t *testing.T) {
		resp := call(t, "trajectory.plan", map[string]interface{}{
			"snapshot": json.RawMessage(escapeSnapshot),
		})
		require.Nil(t, resp["error"])
		result := resp["result"].(map[string]interface{})
		assert.Equal(t, 0.0, result["score"])
	})

	t.Run("survival", func(t *testing.T) {
		resp := call(t, "trajectory.survival", json.RawMessage(escapeSnapshot))
		require.Nil(t, resp["error"])
		result := resp["result"].(map[string]interface{})
		assert.Len(t, result["thrusts"], 9)
	})

	t.Run("invalid params", func(t *testing.T) {
		resp := call(t, "trajectory.plan", map[string]interface{}{
			"snapshot": map[string]interface{}{"turns_remaining": 0},
		})
		errObj := resp["error"].(map[string]interface{})
		assert.Equal(t, float64(codeInvalidParams), errObj["code"])
	})

	t.Run("missing params", func(t *testing.T) {
		resp := call(t, "trajectory.survival")
		errObj := resp["error"].(map[string]interface{})
		assert.Equal(t, float64(codeInvalidParams), errObj["code"])
	})

	t.Run("cancel unknown plan", func(t *testing.T) {
		resp := call(t, "trajectory.cancel", map[string]string{"plan_id": "nope"})
		errObj := resp["error"].(map[string]interface{})
		assert.Equal(t, float64(codeInvalidParams), errObj["code"])
		assert.Contains(t, errObj["message"], "plan not found")
	})

	t.Run("unknown method", func(t *testing.T) {
		resp := call(t, "optimization.start")
		errObj := resp["error"].(map[string]interface{})
		assert.Equal(t, float64(codeMethodNotFound), errObj["code"])
	})

	t.Run("wrong version", func(t *testing.T) {
		rr := doJSON(t, r, http.MethodPost, "/rpc", map[string]interface{}{"jsonrpc": "1.0", "id": 2, "method": "trajectory.plan"})
		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		errObj := resp["error"].(map[string]interface{})
		assert.Equal(t, float64(codeInvalidRequest), errObj["code"])
		assert.Equal(t, 2.0, resp["id"])
	})
}

func TestClose(t *testing.T) {
	srv, _ := testServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := srv.track("a", cancel)
	require.NoError(t, err)

	err = srv.Close()
	assert.NoError(t, err, "Close should not return an error")
	assert.Error(t, ctx.Err())
}

func TestRespondWithError(t *testing.T) {
	srv, _ := testServer(t)

	tests := []struct {
		name       string
		code       int
		message    string
		id         interface{}
		expectedID interface{}
	}{
		{
			name:       "valid error response",
			code:       codeInvalidParams,
			message:    "invalid input",
			id:         "123",
			expectedID: "123",
		},
		{
			name:       "nil id",
			code:       codeServerError,
			message:    "server error",
			id:         nil,
			expectedID: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			srv.respondWithError(rr, tt.code, tt.message, tt.id)

			// JSON-RPC errors are carried in a 200 response body
			assert.Equal(t, http.StatusOK, rr.Code, "status code should match")

			var response map[string]interface{}
			err := json.NewDecoder(rr.Body).Decode(&response)
			assert.NoError(t, err, "should decode response body")

			errObj, ok := response["error"].(map[string]interface{})
			assert.True(t, ok, "response should contain error object")
			assert.Equal(t, float64(tt.code), errObj["code"], "error code should match")
			assert.Equal(t, tt.message, errObj["message"], "error message should match")
			assert.Equal(t, tt.expectedID, response["id"], "response ID should match")
		})
	}
}
