package opa

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/bawdo/sqlmaker/nodes"
)

// Client talks to an OPA server's Compile API.
type Client struct {
	baseURL    string
	policyPath string
	input      map[string]any
	httpClient *http.Client
}

// NewClient creates a Client. policyPath gets a "data." prefix when it
// has none.
func NewClient(baseURL, policyPath string, input map[string]any) *Client {
	if !strings.HasPrefix(policyPath, "data.") {
		policyPath = "data." + policyPath
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		policyPath: policyPath,
		input:      input,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// PolicyPath returns the normalized policy path.
func (c *Client) PolicyPath() string { return c.policyPath }

func (c *Client) postJSON(path string, reqBody []byte) ([]byte, error) {
	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// --- Compile API types ---

type compileRequest struct {
	Query    string   `json:"query"`
	Input    any      `json:"input,omitempty"`
	Unknowns []string `json:"unknowns"`
}

type compileResponse struct {
	Result struct {
		Queries [][]compileExpression `json:"queries"`
	} `json:"result"`
}

type compileExpression struct {
	Index int           `json:"index"`
	Terms []compileTerm `json:"terms"`
}

type compileTerm struct {
	Type  string
	Value any // string, int, float64, bool, nil or []compileTerm for refs
}

// UnmarshalJSON decodes Value according to Type.
func (ct *compileTerm) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ct.Type = raw.Type

	switch raw.Type {
	case "string", "var":
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return fmt.Errorf("opa: %s term: %w", raw.Type, err)
		}
		ct.Value = s
	case "number":
		var f float64
		if err := json.Unmarshal(raw.Value, &f); err != nil {
			return fmt.Errorf("opa: number term: %w", err)
		}
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			ct.Value = int(f)
		} else {
			ct.Value = f
		}
	case "boolean":
		var b bool
		if err := json.Unmarshal(raw.Value, &b); err != nil {
			return fmt.Errorf("opa: boolean term: %w", err)
		}
		ct.Value = b
	case "null":
		ct.Value = nil
	case "ref":
		var terms []compileTerm
		if err := json.Unmarshal(raw.Value, &terms); err != nil {
			return fmt.Errorf("opa: ref term: %w", err)
		}
		ct.Value = terms
	default:
		return fmt.Errorf("opa: unknown term type %q", raw.Type)
	}
	return nil
}

func parseCompileResponse(data []byte) (*compileResponse, error) {
	var resp compileResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("opa: parsing compile response: %w", err)
	}
	return &resp, nil
}

// Compile asks the server which rows of table the policy allows and
// returns them as conditions. Column names are prefixed with qualifier
// when it is set.
//
// No queries means access denied. A single empty query means every row
// is allowed and yields no conditions.
func (c *Client) Compile(table, qualifier string) ([]*nodes.Node, error) {
	data, err := json.Marshal(compileRequest{
		Query:    c.policyPath + " == true",
		Input:    c.input,
		Unknowns: []string{"data." + table},
	})
	if err != nil {
		return nil, fmt.Errorf("opa: encoding compile request: %w", err)
	}

	body, err := c.postJSON("/v1/compile", data)
	if err != nil {
		return nil, fmt.Errorf("opa: compile request failed: %w", err)
	}
	parsed, err := parseCompileResponse(body)
	if err != nil {
		return nil, err
	}
	conds, err := translateQueries(parsed.Result.Queries, qualifier)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", table, err)
	}
	return conds, nil
}

// --- Translation ---

// translateQueries turns a query set into conditions to AND into a
// WHERE clause. A single query contributes one condition per expression;
// several queries are each ANDed and then ORed together.
func translateQueries(queries [][]compileExpression, qualifier string) ([]*nodes.Node, error) {
	if len(queries) == 0 {
		return nil, ErrAccessDenied
	}
	for _, q := range queries {
		if len(q) == 0 {
			return nil, nil
		}
	}

	groups := make([]*nodes.Node, len(queries))
	for i, q := range queries {
		terms := make([]*nodes.Node, len(q))
		for j, expr := range q {
			n, err := translateExpression(expr, qualifier)
			if err != nil {
				return nil, err
			}
			terms[j] = n
		}
		if len(queries) == 1 {
			return terms, nil
		}
		if len(terms) == 1 {
			groups[i] = terms[0]
		} else {
			groups[i] = nodes.And(terms...)
		}
	}
	return []*nodes.Node{nodes.Or(groups...)}, nil
}

// translateExpression converts one "op(data.table[_].column, value)"
// expression. OPA may put the operands in either order.
func translateExpression(expr compileExpression, qualifier string) (*nodes.Node, error) {
	if len(expr.Terms) < 3 {
		return nil, fmt.Errorf("opa: expression has %d terms, need at least 3", len(expr.Terms))
	}
	op, err := operatorName(expr.Terms[0])
	if err != nil {
		return nil, err
	}

	var colTerm, valTerm compileTerm
	switch {
	case isDataRef(expr.Terms[1]):
		colTerm, valTerm = expr.Terms[1], expr.Terms[2]
	case isDataRef(expr.Terms[2]):
		colTerm, valTerm = expr.Terms[2], expr.Terms[1]
	default:
		return nil, errors.New("opa: expression has no data ref term")
	}
	column, err := columnName(colTerm)
	if err != nil {
		return nil, err
	}
	column = qualify(qualifier, column)
	val := valTerm.Value

	switch op {
	case "eq", "equal":
		if val == nil {
			return nodes.IsNull(column), nil
		}
		return nodes.Eq(column, val), nil
	case "neq":
		if val == nil {
			return nodes.IsNotNull(column), nil
		}
		return nodes.Ne(column, val), nil
	case "lt":
		return nodes.Lt(column, val), nil
	case "lte":
		return nodes.Le(column, val), nil
	case "gt":
		return nodes.Gt(column, val), nil
	case "gte":
		return nodes.Ge(column, val), nil
	case "startswith", "endswith", "contains":
		s, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("opa: %s requires a string value, got %T", op, val)
		}
		return nodes.Like(column, likePattern(op, s)), nil
	}
	return nil, fmt.Errorf("opa: unsupported operator %q", op)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(op, s string) string {
	s = likeEscaper.Replace(s)
	switch op {
	case "startswith":
		return s + "%"
	case "endswith":
		return "%" + s
	}
	return "%" + s + "%"
}

func refParts(term compileTerm) ([]compileTerm, bool) {
	if term.Type != "ref" {
		return nil, false
	}
	parts, ok := term.Value.([]compileTerm)
	return parts, ok && len(parts) > 0
}

// operatorName reads the operator from a ref holding a single var.
func operatorName(term compileTerm) (string, error) {
	parts, ok := refParts(term)
	if !ok {
		return "", fmt.Errorf("opa: operator term must be a ref, got %s", term.Type)
	}
	name, ok := parts[0].Value.(string)
	if parts[0].Type != "var" || !ok {
		return "", errors.New("opa: operator ref must start with a var")
	}
	return name, nil
}

// columnName is the last string element of a data ref.
func columnName(term compileTerm) (string, error) {
	parts, _ := refParts(term)
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i].Type == "string" {
			if s, ok := parts[i].Value.(string); ok {
				return s, nil
			}
		}
	}
	return "", errors.New("opa: column ref has no string element")
}

func isDataRef(term compileTerm) bool {
	parts, ok := refParts(term)
	if !ok || parts[0].Type != "var" {
		return false
	}
	name, _ := parts[0].Value.(string)
	return name == "data"
}
