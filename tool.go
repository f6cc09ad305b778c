package gocalculus

import (
	"encoding/json"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// ============================================================
// MCP Tool Interface
// ============================================================

type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	LaTeX  string      `json:"latex,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// HandleToolCall dispatches req with a default Calculator.
func HandleToolCall(req ToolRequest) ToolResponse {
	return New().HandleToolCall(req)
}

// HandleToolCall dispatches a tool request by name. Expressions are passed
// as text in the "expr" param.
func (c *Calculator) HandleToolCall(req ToolRequest) ToolResponse {
	getString := func(key string) (string, error) {
		v, ok := req.Params[key]
		if !ok {
			return "", fmt.Errorf("missing param: %s", key)
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("param %s must be a string", key)
		}
		return s, nil
	}
	getNumber := func(key string) (float64, error) {
		v, ok := req.Params[key]
		if !ok {
			return 0, fmt.Errorf("missing param: %s", key)
		}
		f, ok := v.(float64)
		if !ok {
			return 0, fmt.Errorf("param %s must be a number", key)
		}
		return f, nil
	}
	optNumber := func(key string) (*float64, error) {
		if _, ok := req.Params[key]; !ok {
			return nil, nil
		}
		f, err := getNumber(key)
		if err != nil {
			return nil, err
		}
		return &f, nil
	}
	getExpr := func() (Expr, error) {
		s, err := getString("expr")
		if err != nil {
			return nil, err
		}
		return c.parseExpr(s)
	}
	respond := func(e Expr) ToolResponse {
		return ToolResponse{Result: String(e), LaTeX: LaTeX(e), String: String(e)}
	}

	switch req.Tool {
	case "integral":
		expr, err := getString("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		a, err := getNumber("start")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		b, err := getNumber("end")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		res, err := c.ComputeIntegral(expr, a, b)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return ToolResponse{Result: res, LaTeX: res.LaTeXExpression, String: fmt.Sprintf("%.10g", res.Area)}

	case "derivative":
		expr, err := getString("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		at, err := optNumber("at")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		start, err := optNumber("start")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		end, err := optNumber("end")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		res, err := c.ComputeDerivative(expr, at, start, end)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return ToolResponse{Result: res, LaTeX: res.DerivativeLaTeX, String: res.Derivative}

	case "critical_points":
		expr, err := getString("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		a, err := getNumber("start")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		b, err := getNumber("end")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		res, err := c.ComputeCriticalPoints(expr, a, b)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return ToolResponse{Result: res, LaTeX: res.LaTeXExpression, String: fmt.Sprintf("%d critical points", len(res.CriticalPoints))}

	case "limit":
		expr, err := getString("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		point, err := getNumber("point")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		dir := ""
		if _, ok := req.Params["direction"]; ok {
			if dir, err = getString("direction"); err != nil {
				return ToolResponse{Error: err.Error()}
			}
		}
		res, err := c.ComputeLimit(expr, point, dir)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return ToolResponse{Result: res, LaTeX: res.LimitLaTeX, String: res.LimitRepr}

	case "diff":
		e, err := getExpr()
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		n := 1
		if _, ok := req.Params["n"]; ok {
			nf, err := getNumber("n")
			if err != nil {
				return ToolResponse{Error: err.Error()}
			}
			if nf < 0 || nf != math.Trunc(nf) {
				return ToolResponse{Error: "param n must be a non-negative integer"}
			}
			if nf > float64(c.opts.MaxDiffOrder) {
				return ToolResponse{Error: fmt.Sprintf("param n must be at most %d", c.opts.MaxDiffOrder)}
			}
			n = int(nf)
		}
		d, err := DiffNBounded(e, n, c.opts.MaxDiffNodes)
		if err != nil {
			c.logger.Warn("diff tool rejected", zap.Int("n", n), zap.Error(err))
			return ToolResponse{Error: err.Error()}
		}
		return respond(d)

	case "evaluate":
		e, err := getExpr()
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		x, err := getNumber("x")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		v, err := e.Eval(x)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return ToolResponse{Result: v, String: formatFloat(v)}

	case "simplify":
		e, err := getExpr()
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return respond(Simplify(e))

	case "to_latex":
		e, err := getExpr()
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return ToolResponse{LaTeX: LaTeX(e), String: String(e)}

	case "mcp_spec":
		return ToolResponse{Result: MCPToolSpec()}
	}
	return ToolResponse{Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
}

// MCPToolSpec returns the JSON schema of every tool HandleToolCall serves.
func MCPToolSpec() string {
	tools := []map[string]interface{}{
		ts("integral", "Definite integral of expr from start to end, with sample points", []string{"expr", "start", "end"}, map[string]string{"expr": "string", "start": "number", "end": "number"}),
		ts("derivative", "Symbolic derivative d/dx. Optional: at, start, end", []string{"expr"}, map[string]string{"expr": "string", "at": "number", "start": "number", "end": "number"}),
		ts("critical_points", "Minima, maxima and inflection points in [start, end]", []string{"expr", "start", "end"}, map[string]string{"expr": "string", "start": "number", "end": "number"}),
		ts("limit", "lim_{x->point} expr. direction: \"+\", \"-\" or omitted for two-sided", []string{"expr", "point"}, map[string]string{"expr": "string", "point": "number", "direction": "string"}),
		ts("diff", "nth derivative (default n=1)", []string{"expr"}, map[string]string{"expr": "string", "n": "integer"}),
		ts("evaluate", "Evaluate expr at x", []string{"expr", "x"}, map[string]string{"expr": "string", "x": "number"}),
		ts("simplify", "Simplify an expression", []string{"expr"}, map[string]string{"expr": "string"}),
		ts("to_latex", "Convert to LaTeX", []string{"expr"}, map[string]string{"expr": "string"}),
		ts("mcp_spec", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]interface{}{"tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
