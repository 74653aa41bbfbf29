package query

import (
	"fmt"
	"strings"
)

// AllowList converts an ordered column list into a membership set.
func AllowList(columns []string) map[string]struct{} {
	set := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		set[c] = struct{}{}
	}
	return set
}

// CompileFilters compiles a filter tree into a SQL boolean expression and
// its bind arguments. Argument order matches placeholder order exactly,
// left to right, depth first, because the driver binds positionally.
//
// A nil group compiles to an empty clause (no filtering). Conditions
// referencing columns outside the allow-list, and conditions whose value
// arity does not match their operator, are dropped rather than failing
// the query. Column names are interpolated into the clause text only
// after allow-list validation; values are always bound.
func CompileFilters(group *Group, allowed map[string]struct{}) (string, []any) {
	if group == nil {
		return "", nil
	}
	return compileGroup(group, allowed)
}

func compileGroup(g *Group, allowed map[string]struct{}) (string, []any) {
	var (
		clauses []string
		args    []any
	)

	for _, node := range g.Conditions {
		var (
			clause   string
			nodeArgs []any
		)
		switch {
		case node.Group != nil:
			clause, nodeArgs = compileGroup(node.Group, allowed)
		case node.Cond != nil:
			clause, nodeArgs = compileCondition(node.Cond, allowed)
		}
		if clause == "" {
			continue
		}
		clauses = append(clauses, clause)
		args = append(args, nodeArgs...)
	}

	if len(clauses) == 0 {
		return "", nil
	}

	joined := strings.Join(clauses, " "+string(normalizeCombinator(g.Combinator))+" ")
	if len(clauses) > 1 {
		joined = "(" + joined + ")"
	}
	return joined, args
}

func compileCondition(c *Condition, allowed map[string]struct{}) (string, []any) {
	if _, ok := allowed[c.Column]; !ok {
		return "", nil
	}

	switch c.Operator {
	case OpEq, OpNeq, OpGt, OpLt, OpGte, OpLte, OpLike, OpNotLike:
		return fmt.Sprintf("%s %s ?", c.Column, c.Operator), []any{c.Value}

	case OpIn, OpNotIn:
		values := valueList(c.Value)
		if len(values) == 0 {
			return "", nil
		}
		return fmt.Sprintf("%s %s (%s)", c.Column, c.Operator, placeholders(len(values))), values

	case OpIsNull:
		return c.Column + " IS NULL", nil

	case OpIsNotNull:
		return c.Column + " IS NOT NULL", nil

	case OpBetween:
		values := valueList(c.Value)
		if len(values) != 2 {
			return "", nil
		}
		return c.Column + " BETWEEN ? AND ?", values
	}

	// Unknown operator: same drop policy as an unknown column.
	return "", nil
}

// valueList returns the value as a list, or nil if it is not one.
func valueList(v any) []any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	return list
}

// placeholders renders "?, ?, ?" for n bind positions.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// CompileSorts compiles an ordered sort list into an ORDER BY body.
// Entries referencing unknown columns are dropped; the relative order of
// surviving entries is preserved, so the first survivor is the primary
// sort key.
func CompileSorts(sorts []Sort, allowed map[string]struct{}) string {
	parts := make([]string, 0, len(sorts))
	for _, s := range sorts {
		if _, ok := allowed[s.Column]; !ok {
			continue
		}
		parts = append(parts, s.Column+" "+normalizeDirection(s.Direction))
	}
	return strings.Join(parts, ", ")
}

// ValidateGroupBy returns the column if allow-listed, otherwise the empty
// string (grouping silently disabled).
func ValidateGroupBy(column string, allowed map[string]struct{}) string {
	if _, ok := allowed[column]; ok {
		return column
	}
	return ""
}
