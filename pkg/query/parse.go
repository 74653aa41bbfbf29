package query

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Query-string parameter names for the advanced query surface.
const (
	paramFilters = "filters"
	paramSorts   = "sorts"
	paramGroupBy = "groupBy"
	paramLimit   = "limit"
	paramOffset  = "offset"
)

// HasAdvanced reports whether any advanced query parameter is present.
// Handlers fall back to their fixed legacy query when it returns false.
func HasAdvanced(q url.Values) bool {
	for _, name := range []string{paramFilters, paramSorts, paramGroupBy, paramLimit, paramOffset} {
		if q.Has(name) {
			return true
		}
	}
	return false
}

// ParseRequest converts raw query-string parameters into Options.
//
// Parsing is strict: malformed JSON or out-of-range numbers fail with a
// descriptive error rather than being coerced. Absent parameters are
// simply omitted; no defaults are injected here.
func ParseRequest(q url.Values) (Options, error) {
	var opts Options

	if raw := q.Get(paramFilters); raw != "" {
		filters, err := parseFilters(raw)
		if err != nil {
			return Options{}, err
		}
		opts.Filters = filters
	}

	if raw := q.Get(paramSorts); raw != "" {
		sorts, err := parseSorts(raw)
		if err != nil {
			return Options{}, err
		}
		opts.Sorts = sorts
	}

	opts.GroupBy = q.Get(paramGroupBy)

	if raw := q.Get(paramLimit); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return Options{}, fmt.Errorf("Invalid limit value")
		}
		opts.Limit = limit
	}

	if raw := q.Get(paramOffset); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return Options{}, fmt.Errorf("Invalid offset value")
		}
		opts.Offset = offset
	}

	return opts, nil
}

// parseFilters decodes a filter tree, requiring the top level to be an
// object carrying both "combinator" and "conditions".
func parseFilters(raw string) (*Group, error) {
	data := []byte(raw)

	var shape map[string]json.RawMessage
	if err := json.Unmarshal(data, &shape); err != nil {
		if !json.Valid(data) {
			return nil, fmt.Errorf("Failed to parse filters: %v", err)
		}
		return nil, fmt.Errorf("Invalid filter format")
	}

	if _, ok := shape["combinator"]; !ok {
		return nil, fmt.Errorf("Invalid filter format")
	}
	if _, ok := shape["conditions"]; !ok {
		return nil, fmt.Errorf("Invalid filter format")
	}

	var g Group
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("Invalid filter format")
	}
	return &g, nil
}

// parseSorts decodes a sort list, requiring a JSON array.
func parseSorts(raw string) ([]Sort, error) {
	data := []byte(raw)

	if !json.Valid(data) {
		var probe any
		err := json.Unmarshal(data, &probe)
		return nil, fmt.Errorf("Failed to parse sorts: %v", err)
	}

	// json.Unmarshal treats a JSON null as a no-op for slices, so the
	// array requirement must be checked against the document itself.
	if !strings.HasPrefix(strings.TrimSpace(raw), "[") {
		return nil, fmt.Errorf("Sorts must be an array")
	}

	var sorts []Sort
	if err := json.Unmarshal(data, &sorts); err != nil {
		return nil, fmt.Errorf("Sorts must be an array")
	}
	return sorts, nil
}
