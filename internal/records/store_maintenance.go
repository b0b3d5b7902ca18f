package records

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Stats returns record counts grouped by status. Failed counts active records
// carrying an archive failure marker.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM files GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("record stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var (
			status Status
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, err
		}
		switch status {
		case StatusActive:
			stats.Active = count
		case StatusArchived:
			stats.Archived = count
		case StatusDeleted:
			stats.Deleted = count
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM files WHERE status = ? AND archive_error IS NOT NULL`, StatusActive,
	).Scan(&stats.Failed); err != nil {
		return Stats{}, fmt.Errorf("count failed archives: %w", err)
	}
	return stats, nil
}

// CheckHealth returns diagnostic information about the records database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	ctx = ensureContext(ctx)
	health := DatabaseHealth{DBPath: s.path}
	if s.path == "" {
		return health, errors.New("records database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat records database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("records database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	var integrity string
	if err := s.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&integrity); err != nil {
		health.Error = err.Error()
		return health, nil
	}
	health.IntegrityCheck = integrity == "ok"
	if !health.IntegrityCheck {
		health.Error = integrity
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM files").Scan(&health.TotalFiles); err != nil {
		health.Error = err.Error()
	}
	return health, nil
}
