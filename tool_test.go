package gocalculus_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gc "github.com/njchilds90/gocalculus"
)

func call(tool string, params map[string]interface{}) gc.ToolResponse {
	return gc.HandleToolCall(gc.ToolRequest{Tool: tool, Params: params})
}

func TestHandleToolCall_Diff(t *testing.T) {
	resp := call("diff", map[string]interface{}{"expr": "x^3"})
	require.Empty(t, resp.Error)
	assert.Equal(t, "3*x^2", resp.String)
	assert.Equal(t, "3 x^{2}", resp.LaTeX)

	resp = call("diff", map[string]interface{}{"expr": "x^3", "n": float64(2)})
	assert.Equal(t, "6*x", resp.String)

	resp = call("diff", map[string]interface{}{"expr": "x^3", "n": float64(0)})
	assert.Equal(t, "x^3", resp.String)

	for _, bad := range []interface{}{-1.0, 1.5, "2"} {
		resp = call("diff", map[string]interface{}{"expr": "x", "n": bad})
		assert.NotEmpty(t, resp.Error, "n=%v", bad)
	}
}

func TestHandleToolCall_DiffIsBounded(t *testing.T) {
	resp := call("diff", map[string]interface{}{"expr": "x", "n": float64(9)})
	assert.Equal(t, "param n must be at most 8", resp.Error)

	resp = call("diff", map[string]interface{}{"expr": "sin(x)/x", "n": float64(8)})
	assert.Contains(t, resp.Error, "expression too large")
	assert.Empty(t, resp.String)

	calc := gc.New(gc.WithOptions(gc.Options{MaxDiffOrder: 2}))
	resp = calc.HandleToolCall(gc.ToolRequest{Tool: "diff", Params: map[string]interface{}{"expr": "x^3", "n": float64(3)}})
	assert.Equal(t, "param n must be at most 2", resp.Error)
}

func TestHandleToolCall_Evaluate(t *testing.T) {
	resp := call("evaluate", map[string]interface{}{"expr": "2x+1", "x": float64(3)})
	require.Empty(t, resp.Error)
	assert.Equal(t, 7.0, resp.Result)
	assert.Equal(t, "7", resp.String)

	resp = call("evaluate", map[string]interface{}{"expr": "ln(x)", "x": float64(-1)})
	assert.Contains(t, resp.Error, "domain error")
}

func TestHandleToolCall_SimplifyAndLaTeX(t *testing.T) {
	resp := call("simplify", map[string]interface{}{"expr": "0 + 1*x^1"})
	assert.Equal(t, "x", resp.String)

	resp = call("to_latex", map[string]interface{}{"expr": "sqrt(x)/2"})
	assert.Equal(t, `\frac{\sqrt{x}}{2}`, resp.LaTeX)
	assert.Equal(t, "sqrt(x)/2", resp.String)
}

func TestHandleToolCall_Integral(t *testing.T) {
	resp := call("integral", map[string]interface{}{"expr": "x^2", "start": float64(0), "end": float64(3)})
	require.Empty(t, resp.Error)
	assert.Equal(t, "9", resp.String)
	res, ok := resp.Result.(*gc.IntegralResult)
	require.True(t, ok)
	assert.InDelta(t, 9.0, res.Area, 1e-9)
}

func TestHandleToolCall_Derivative(t *testing.T) {
	resp := call("derivative", map[string]interface{}{"expr": "sin(x)", "at": float64(0)})
	require.Empty(t, resp.Error)
	assert.Equal(t, "cos(x)", resp.String)
	res := resp.Result.(*gc.DerivativeResult)
	require.NotNil(t, res.DerivativeValue)
	assert.Equal(t, 1.0, *res.DerivativeValue)

	resp = call("derivative", map[string]interface{}{"expr": "x", "at": "zero"})
	assert.Equal(t, "param at must be a number", resp.Error)
}

func TestHandleToolCall_CriticalPoints(t *testing.T) {
	resp := call("critical_points", map[string]interface{}{"expr": "x^2 - 4x + 3", "start": float64(-1), "end": float64(5)})
	require.Empty(t, resp.Error)
	assert.Equal(t, "1 critical points", resp.String)
}

func TestHandleToolCall_Limit(t *testing.T) {
	resp := call("limit", map[string]interface{}{"expr": "1/x", "point": float64(0), "direction": "-"})
	require.Empty(t, resp.Error)
	assert.Equal(t, "-inf", resp.String)
	assert.Equal(t, `-\infty`, resp.LaTeX)

	resp = call("limit", map[string]interface{}{"expr": "1/x", "point": float64(0), "direction": 1})
	assert.Equal(t, "param direction must be a string", resp.Error)
}

func TestHandleToolCall_Errors(t *testing.T) {
	cases := []struct {
		tool   string
		params map[string]interface{}
		want   string
	}{
		{"bogus", nil, "unknown tool: bogus"},
		{"diff", map[string]interface{}{}, "missing param: expr"},
		{"diff", map[string]interface{}{"expr": 3}, "param expr must be a string"},
		{"evaluate", map[string]interface{}{"expr": "x"}, "missing param: x"},
		{"integral", map[string]interface{}{"expr": "x", "start": float64(0)}, "missing param: end"},
		{"limit", map[string]interface{}{"expr": "x"}, "missing param: point"},
		{"simplify", map[string]interface{}{"expr": "(x"}, "parse error at 0: unbalanced parenthesis: missing ')'"},
	}
	for _, c := range cases {
		resp := call(c.tool, c.params)
		assert.Equal(t, c.want, resp.Error, "%s %v", c.tool, c.params)
	}
}

func TestMCPToolSpec(t *testing.T) {
	var spec struct {
		Tools []struct {
			Name        string `json:"name"`
			InputSchema struct {
				Required []string `json:"required"`
			} `json:"inputSchema"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal([]byte(gc.MCPToolSpec()), &spec))

	names := map[string]bool{}
	for _, tool := range spec.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{
		"integral", "derivative", "critical_points", "limit",
		"diff", "evaluate", "simplify", "to_latex", "mcp_spec",
	} {
		assert.True(t, names[want], "missing tool %s", want)
		// Every advertised tool is dispatched.
		resp := call(want, map[string]interface{}{})
		assert.NotContains(t, resp.Error, "unknown tool", want)
	}

	resp := call("mcp_spec", nil)
	assert.Equal(t, gc.MCPToolSpec(), resp.Result)
}
