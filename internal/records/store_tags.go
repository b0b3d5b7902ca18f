package records

import (
	"context"
	"fmt"
)

// Tags returns every tag ordered by usage count, then most recently created.
func (s *Store) Tags(ctx context.Context) ([]Tag, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT id, name, created_at, usage_count FROM tags ORDER BY usage_count DESC, created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var (
			tag        Tag
			createdRaw string
		)
		if err := rows.Scan(&tag.ID, &tag.Name, &createdRaw, &tag.UsageCount); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			tag.CreatedAt = created
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
