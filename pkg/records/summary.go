package records

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// StatusCount is one row of a status breakdown.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// AssetTotal is the summed spend amount for one asset.
type AssetTotal struct {
	Asset string  `json:"asset"`
	Total float64 `json:"total"`
}

// Summary aggregates the headline dashboard numbers.
type Summary struct {
	Counts             map[string]int64 `json:"counts"`
	ReferendaByStatus  []StatusCount    `json:"referenda_by_status"`
	SpendTotalsByAsset []AssetTotal     `json:"spend_totals_by_asset"`
}

// Summary computes per-resource row counts, the referenda status
// breakdown, and treasury spend totals per asset.
func (s *Store) Summary(ctx context.Context) (*Summary, error) {
	counts := make(map[string]int64, len(Resources()))
	for name, res := range Resources() {
		stmt, args, err := sq.Select("COUNT(*)").From(quoteIdent(res.Table)).ToSql()
		if err != nil {
			return nil, fmt.Errorf("building count for %s: %w", name, err)
		}
		var n int64
		if err := s.read.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
			return nil, fmt.Errorf("counting %s: %w", name, err)
		}
		counts[name] = n
	}

	byStatus, err := s.referendaByStatus(ctx)
	if err != nil {
		return nil, err
	}

	totals, err := s.spendTotalsByAsset(ctx)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Counts:             counts,
		ReferendaByStatus:  byStatus,
		SpendTotalsByAsset: totals,
	}, nil
}

func (s *Store) referendaByStatus(ctx context.Context) ([]StatusCount, error) {
	stmt, args, err := sq.Select("status", "COUNT(*) AS count").
		From(quoteIdent("Referenda")).
		GroupBy("status").
		OrderBy("count DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building status breakdown: %w", err)
	}

	rows, err := s.read.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("querying status breakdown: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]StatusCount, 0)
	for rows.Next() {
		var entry StatusCount
		if err := rows.Scan(&entry.Status, &entry.Count); err != nil {
			return nil, fmt.Errorf("scanning status breakdown: %w", err)
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating status breakdown: %w", err)
	}
	return result, nil
}

func (s *Store) spendTotalsByAsset(ctx context.Context) ([]AssetTotal, error) {
	stmt, args, err := sq.Select("asset", "COALESCE(SUM(amount), 0) AS total").
		From(quoteIdent("TreasurySpends")).
		GroupBy("asset").
		OrderBy("total DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building spend totals: %w", err)
	}

	rows, err := s.read.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("querying spend totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]AssetTotal, 0)
	for rows.Next() {
		var entry AssetTotal
		if err := rows.Scan(&entry.Asset, &entry.Total); err != nil {
			return nil, fmt.Errorf("scanning spend totals: %w", err)
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating spend totals: %w", err)
	}
	return result, nil
}
