// Package records exposes the governance relations (referenda, bounties,
// treasury spends, fellowship salaries, categories) over HTTP: advanced
// list queries, single-row reads, admin CRUD, CSV import, and XLSX export.
package records

// Resource describes one governance relation served by the API. Every
// resource follows the same route shape; only the relation and its
// create-time requirements differ.
type Resource struct {
	// Name is the URL path segment, e.g. "referenda".
	Name string

	// Table is the SQL relation name, e.g. "Referenda".
	Table string

	// Required lists columns that must be present and non-empty in a
	// create payload.
	Required []string

	// DefaultOrder is the ORDER BY body of the legacy fallback query
	// used when no advanced query parameters are supplied.
	DefaultOrder string
}

// legacyLimit is the fixed row cap of the legacy fallback query.
const legacyLimit = 100

// Resources returns the relations served by the API, keyed by URL segment.
func Resources() map[string]Resource {
	return map[string]Resource{
		"referenda": {
			Name:         "referenda",
			Table:        "Referenda",
			Required:     []string{"referendum_index", "title"},
			DefaultOrder: "referendum_index DESC",
		},
		"bounties": {
			Name:         "bounties",
			Table:        "Bounties",
			Required:     []string{"bounty_index", "title"},
			DefaultOrder: "bounty_index DESC",
		},
		"treasury-spends": {
			Name:         "treasury-spends",
			Table:        "TreasurySpends",
			Required:     []string{"spend_index", "amount"},
			DefaultOrder: "spend_index DESC",
		},
		"fellowship-salaries": {
			Name:         "fellowship-salaries",
			Table:        "FellowshipSalaries",
			Required:     []string{"cycle_index", "member"},
			DefaultOrder: "cycle_index DESC",
		},
		"categories": {
			Name:         "categories",
			Table:        "Categories",
			Required:     []string{"name"},
			DefaultOrder: "name ASC",
		},
	}
}
