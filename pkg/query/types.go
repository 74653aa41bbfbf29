// Package query compiles client-supplied filter trees, sort lists, and
// grouping columns into parameterized SQL against a live column allow-list.
//
// The package is deliberately asymmetric about failure: structurally
// malformed input (bad JSON, wrong parameter types) is rejected at parse
// time with a descriptive error, while semantically invalid references
// (a filter or sort naming a column the relation does not have) are
// silently dropped so that saved dashboard views keep working across
// schema drift.
package query

import (
	"encoding/json"
	"strings"
)

// Combinator joins the direct children of a filter group.
type Combinator string

// Supported combinators.
const (
	CombinatorAnd Combinator = "AND"
	CombinatorOr  Combinator = "OR"
)

// Operator is a leaf predicate operator.
type Operator string

// Supported operators. The string values appear verbatim in filter JSON
// and, after validation, in the emitted SQL.
const (
	OpEq        Operator = "="
	OpNeq       Operator = "!="
	OpGt        Operator = ">"
	OpLt        Operator = "<"
	OpGte       Operator = ">="
	OpLte       Operator = "<="
	OpLike      Operator = "LIKE"
	OpNotLike   Operator = "NOT LIKE"
	OpIn        Operator = "IN"
	OpNotIn     Operator = "NOT IN"
	OpIsNull    Operator = "IS NULL"
	OpIsNotNull Operator = "IS NOT NULL"
	OpBetween   Operator = "BETWEEN"
)

// Condition is a leaf predicate against a single column.
//
// Value arity depends on the operator: comparison and pattern operators
// take one scalar, IN/NOT IN take a non-empty list, BETWEEN takes a
// two-element [lo, hi] list, and the null checks take no value at all.
type Condition struct {
	Column   string   `json:"column"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value,omitempty"`
}

// Group is a boolean combination of conditions and nested groups.
type Group struct {
	Combinator Combinator `json:"combinator"`
	Conditions []Node     `json:"conditions"`
}

// Node is either a Condition or a nested Group. Exactly one of the two
// fields is set after unmarshalling.
type Node struct {
	Cond  *Condition
	Group *Group
}

// UnmarshalJSON distinguishes groups from conditions by the presence of
// a "combinator" key.
func (n *Node) UnmarshalJSON(data []byte) error {
	var probe struct {
		Combinator *string `json:"combinator"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	if probe.Combinator != nil {
		var g Group
		if err := json.Unmarshal(data, &g); err != nil {
			return err
		}
		n.Group = &g
		return nil
	}

	var c Condition
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	n.Cond = &c
	return nil
}

// MarshalJSON emits whichever variant is set.
func (n Node) MarshalJSON() ([]byte, error) {
	if n.Group != nil {
		return json.Marshal(n.Group)
	}
	return json.Marshal(n.Cond)
}

// Sort is one (column, direction) entry of an ordered sort list. Earlier
// entries take ORDER BY precedence over later ones.
type Sort struct {
	Column    string `json:"column"`
	Direction string `json:"direction"`
}

// Options is the validated query surface of a single request. It is built
// once from the raw query string, consumed once to assemble SQL, and
// discarded; nothing here is shared across requests.
type Options struct {
	Filters *Group
	Sorts   []Sort
	GroupBy string

	// Limit and Offset are zero when the client did not supply them.
	// Defaults and the hard ceiling are applied by the assembler, not
	// the parser.
	Limit  int
	Offset int
}

// normalizeCombinator treats anything that is not OR as AND.
func normalizeCombinator(c Combinator) Combinator {
	if strings.EqualFold(string(c), string(CombinatorOr)) {
		return CombinatorOr
	}
	return CombinatorAnd
}

// normalizeDirection treats anything that is not DESC as ASC.
func normalizeDirection(d string) string {
	if strings.EqualFold(d, "DESC") {
		return "DESC"
	}
	return "ASC"
}
