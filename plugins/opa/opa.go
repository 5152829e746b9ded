// Package opa provides a Transformer that enforces Open Policy Agent
// policies on statements by injecting policy-derived WHERE conditions.
//
// The policy is consulted once per table the statement touches: every
// FROM and JOIN table of a SELECT, and the target table of an UPDATE or
// DELETE. It answers with the row filter for that table, or an error to
// reject the statement outright.
//
// # Policy functions
//
//	policy := func(table string) (nodes.Pairs, error) {
//	    switch table {
//	    case "secrets":
//	        return nil, opa.ErrAccessDenied
//	    case "users":
//	        return nodes.KV("tenant_id", 42), nil
//	    }
//	    return nil, nil
//	}
//
//	maker.Use(opa.New(policy))
//	// SELECT * FROM "users" WHERE ("users"."tenant_id" = ?)
//
// Pair values accept everything a WHERE value accepts, including
// operator mappings and nodes.
//
// # OPA server
//
// [NewFromServer] asks an OPA server's Compile API instead, treating
// "data.<table>" as unknown and translating the residual queries into
// conditions:
//
//	maker.Use(opa.NewFromServer("http://localhost:8181", "authz.allow",
//	    map[string]any{"user": "alice"}))
package opa

import (
	"errors"
	"fmt"

	"github.com/bawdo/sqlmaker/managers"
	"github.com/bawdo/sqlmaker/nodes"
	"github.com/bawdo/sqlmaker/plugins"
)

// ErrAccessDenied is returned when the policy allows no rows at all.
var ErrAccessDenied = errors.New("opa: access denied")

// PolicyFunc returns the row filter for table as column/value pairs.
// Columns are unqualified; the transformer qualifies them with the
// table's alias in a SELECT. A non-nil error rejects the statement.
type PolicyFunc func(table string) (nodes.Pairs, error)

// OPA is a Transformer backed either by a PolicyFunc ([New]) or by an OPA
// server's Compile API ([NewFromServer]).
type OPA struct {
	plugins.BaseTransformer
	policy PolicyFunc
	client *Client
}

// New creates an OPA transformer that evaluates policy in process.
func New(policy PolicyFunc) *OPA {
	return &OPA{policy: policy}
}

// NewFromServer creates an OPA transformer that calls the Compile API of
// the server at url. policyPath names the rule to satisfy (the "data."
// prefix is optional) and input is sent with every request.
func NewFromServer(url, policyPath string, input map[string]any) *OPA {
	return &OPA{client: NewClient(url, policyPath, input)}
}

// TransformSelect filters every table referenced in FROM and JOIN.
func (o *OPA) TransformSelect(stmt *managers.SelectManager) error {
	for _, ref := range plugins.CollectTables(stmt) {
		if err := o.restrict(ref.Name, ref.Qualifier, stmt.Where()); err != nil {
			return err
		}
	}
	return nil
}

// TransformUpdate filters the rows an UPDATE may touch.
func (o *OPA) TransformUpdate(table string, where *managers.Condition) error {
	return o.restrict(table, "", where)
}

// TransformDelete filters the rows a DELETE may remove.
func (o *OPA) TransformDelete(table string, where *managers.Condition) error {
	return o.restrict(table, "", where)
}

func (o *OPA) restrict(table, qualifier string, where *managers.Condition) error {
	if o.client != nil {
		conds, err := o.client.Compile(table, qualifier)
		if err != nil {
			return err
		}
		for _, n := range conds {
			where.Add("", n)
		}
		return nil
	}

	if o.policy == nil {
		return fmt.Errorf("opa: no policy configured")
	}
	pairs, err := o.policy(table)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		where.Add(qualify(qualifier, p.Column), p.Value)
	}
	return nil
}

func qualify(qualifier, column string) string {
	if qualifier == "" {
		return column
	}
	return qualifier + "." + column
}
