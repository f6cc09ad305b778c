package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	gocalculus "github.com/njchilds90/gocalculus"
	"github.com/njchilds90/gocalculus/internal/config"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := &server{
		calc:    gocalculus.New(),
		logger:  zaptest.NewLogger(t),
		maxBody: 1 << 20,
	}
	ts := httptest.NewServer(s.routes())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestServer_TestEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/test")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "Backend is working!", out["message"])
}

func TestServer_RequestIDEchoed(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "abc-123", resp.Header.Get(requestIDHeader))
}

func TestServer_CalculateIntegral(t *testing.T) {
	ts := newTestServer(t)

	t.Run("polynomial", func(t *testing.T) {
		resp, out := postJSON(t, ts.URL+"/calculate-integral", map[string]interface{}{
			"function_string": "x**2", "start_x": 0, "end_x": 1,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.InDelta(t, 1.0/3, out["area"].(float64), 1e-9)
		assert.Equal(t, "x^{2}", out["latex_expression"])
		assert.Len(t, out["function_points"], 200)
		assert.NotContains(t, out, "error")
	})

	t.Run("implicit multiplication", func(t *testing.T) {
		resp, out := postJSON(t, ts.URL+"/calculate-integral", map[string]interface{}{
			"function_string": "2x+1", "start_x": 0, "end_x": 2,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.InDelta(t, 6.0, out["area"].(float64), 1e-9)
	})

	t.Run("reversed limits give negative area", func(t *testing.T) {
		resp, out := postJSON(t, ts.URL+"/calculate-integral", map[string]interface{}{
			"function_string": "x", "start_x": 1, "end_x": 0,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.InDelta(t, -0.5, out["area"].(float64), 1e-9)
	})

	t.Run("singularity is a warning", func(t *testing.T) {
		resp, out := postJSON(t, ts.URL+"/calculate-integral", map[string]interface{}{
			"function_string": "1/x", "start_x": -1, "end_x": 1,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, out["error"], "numerical error")
	})

	for name, fn := range map[string]string{
		"empty":            "",
		"unknown function": "invalid_function(x)",
		"unbalanced":       "(x+1",
	} {
		t.Run(name+" is a bad request", func(t *testing.T) {
			resp, out := postJSON(t, ts.URL+"/calculate-integral", map[string]interface{}{
				"function_string": fn, "start_x": 0, "end_x": 1,
			})
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, out["detail"], "parse error")
		})
	}

	t.Run("missing fields", func(t *testing.T) {
		resp, out := postJSON(t, ts.URL+"/calculate-integral", map[string]interface{}{
			"function_string": "x**2",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "field required: start_x", out["detail"])
	})

	t.Run("wrong type", func(t *testing.T) {
		resp, _ := postJSON(t, ts.URL+"/calculate-integral", map[string]interface{}{
			"function_string": "x**2", "start_x": "invalid", "end_x": 1,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func TestServer_CalculateDerivative(t *testing.T) {
	ts := newTestServer(t)

	resp, out := postJSON(t, ts.URL+"/calculate-derivative", map[string]interface{}{
		"function_string": "x^3", "x_value": 2,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "3*x^2", out["derivative"])
	assert.InDelta(t, 12.0, out["derivative_value"].(float64), 1e-12)
	assert.Len(t, out["derivative_points"], 200)
}

func TestServer_CriticalPoints(t *testing.T) {
	ts := newTestServer(t)

	resp, out := postJSON(t, ts.URL+"/critical-points", map[string]interface{}{
		"function_string": "x^2 - 4x + 3", "start_x": -1, "end_x": 5,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	points := out["critical_points"].([]interface{})
	require.Len(t, points, 1)
	p := points[0].(map[string]interface{})
	assert.InDelta(t, 2.0, p["x"].(float64), 1e-8)
	assert.Equal(t, "minimum", p["type"])
}

func TestServer_CalculateLimit(t *testing.T) {
	ts := newTestServer(t)

	t.Run("finite", func(t *testing.T) {
		resp, out := postJSON(t, ts.URL+"/calculate-limit", map[string]interface{}{
			"function_string": "sin(x)/x", "approach": 0,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.InDelta(t, 1.0, out["limit_value"].(float64), 1e-9)
		assert.Equal(t, "1", out["limit_repr"])
	})

	t.Run("infinite has no value", func(t *testing.T) {
		resp, out := postJSON(t, ts.URL+"/calculate-limit", map[string]interface{}{
			"function_string": "1/x", "approach": 0, "direction": "+",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "inf", out["limit_repr"])
		assert.NotContains(t, out, "limit_value")
	})

	t.Run("bad direction", func(t *testing.T) {
		resp, out := postJSON(t, ts.URL+"/calculate-limit", map[string]interface{}{
			"function_string": "x", "approach": 0, "direction": "sideways",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, out["detail"], "invalid limit direction")
	})
}

func TestServer_Tool(t *testing.T) {
	ts := newTestServer(t)

	resp, out := postJSON(t, ts.URL+"/tool", gocalculus.ToolRequest{
		Tool:   "diff",
		Params: map[string]interface{}{"expr": "x^2"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2*x", out["string"])

	resp, out = postJSON(t, ts.URL+"/tool", map[string]interface{}{"tool": "diff", "bogus": 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out["error"], "invalid JSON")
}

func TestServer_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/calculate-integral")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRunServer_GracefulShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runServer(ctx, ln, config.DefaultConfig(), gocalculus.New(), zaptest.NewLogger(t))
	}()

	transport := &http.Transport{DisableKeepAlives: true}
	client := &http.Client{Transport: transport, Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	transport.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
