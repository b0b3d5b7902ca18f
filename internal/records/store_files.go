package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const fileColumns = "id, title, filename, path, extension, created_at, archived_at, status, archive_error"

func scanFile(scanner interface{ Scan(dest ...any) error }) (*File, error) {
	var (
		id           int64
		title        string
		filename     string
		path         string
		extension    string
		createdRaw   string
		archivedRaw  sql.NullString
		statusStr    string
		archiveError sql.NullString
	)
	if err := scanner.Scan(&id, &title, &filename, &path, &extension, &createdRaw, &archivedRaw, &statusStr, &archiveError); err != nil {
		return nil, err
	}

	file := &File{
		ID:           id,
		Title:        title,
		Filename:     filename,
		Path:         path,
		Extension:    extension,
		Status:       Status(statusStr),
		ArchiveError: archiveError.String,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		file.CreatedAt = created
	}
	if archivedRaw.Valid {
		if archived, err := parseTimeString(archivedRaw.String); err == nil {
			file.ArchivedAt = &archived
		}
	}
	return file, nil
}

// Create inserts an active record and links its tags in one transaction.
// Tag usage counts increment once per newly linked document.
func (s *Store) Create(ctx context.Context, nf NewFile) (*File, error) {
	if strings.TrimSpace(nf.Path) == "" {
		return nil, errors.New("create record: path is required")
	}
	created := nf.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	timestamp := formatTime(created)

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO files (title, filename, path, extension, created_at, status)
             VALUES (?, ?, ?, ?, ?, ?)`,
			nf.Title, nf.Filename, nf.Path, nf.Extension, timestamp, StatusActive,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrDuplicatePath, nf.Path)
			}
			return fmt.Errorf("insert file: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		return linkTags(ctx, tx, id, nf.Tags, timestamp)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func linkTags(ctx context.Context, tx *sql.Tx, fileID int64, tags []string, timestamp string) error {
	for _, name := range NormalizeTags(tags) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tags (name, created_at, usage_count) VALUES (?, ?, 0) ON CONFLICT(name) DO NOTHING`,
			name, timestamp,
		); err != nil {
			return fmt.Errorf("insert tag %q: %w", name, err)
		}
		var tagID int64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, name).Scan(&tagID); err != nil {
			return fmt.Errorf("lookup tag %q: %w", name, err)
		}
		res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO file_tags (file_id, tag_id) VALUES (?, ?)`, fileID, tagID)
		if err != nil {
			return fmt.Errorf("link tag %q: %w", name, err)
		}
		if linked, _ := res.RowsAffected(); linked > 0 {
			if _, err := tx.ExecContext(ctx, `UPDATE tags SET usage_count = usage_count + 1 WHERE id = ?`, tagID); err != nil {
				return fmt.Errorf("count tag %q: %w", name, err)
			}
		}
	}
	return nil
}

// NormalizeTags trims tag names and drops blanks and duplicates, preserving order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// GetByID fetches a record by identifier. It returns nil, nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*File, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+fileColumns+` FROM files WHERE id = ?`, id)
	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	if err := s.attachTags(ctx, []*File{file}); err != nil {
		return nil, err
	}
	return file, nil
}

// FindByPath returns the record currently claiming path, preferring the active
// one. It returns nil, nil when no record matches.
func (s *Store) FindByPath(ctx context.Context, path string) (*File, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+fileColumns+` FROM files WHERE path = ?
         ORDER BY CASE status WHEN 'active' THEN 0 ELSE 1 END, id DESC LIMIT 1`,
		path,
	)
	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by path: %w", err)
	}
	return file, nil
}

// MarkArchived records a completed move: the path becomes finalPath, the status
// becomes archived, archived_at is stamped, and any failure marker is cleared.
// ErrNotFound is returned when id matches no record.
func (s *Store) MarkArchived(ctx context.Context, id int64, finalPath string, archivedAt time.Time) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE files SET path = ?, status = ?, archived_at = ?, archive_error = NULL WHERE id = ?`,
		finalPath, StatusArchived, formatTime(archivedAt), id,
	)
	if err != nil {
		return fmt.Errorf("mark archived: %w", err)
	}
	return requireRow(res, id)
}

// MarkArchiveFailed persists the terminal failure marker for a record the
// monitor gave up archiving. The record stays active at its original path.
func (s *Store) MarkArchiveFailed(ctx context.Context, id int64, message string) error {
	if strings.TrimSpace(message) == "" {
		message = "archive failed"
	}
	res, err := s.execWithRetry(ctx, `UPDATE files SET archive_error = ? WHERE id = ?`, message, id)
	if err != nil {
		return fmt.Errorf("mark archive failed: %w", err)
	}
	return requireRow(res, id)
}

// ClearArchiveFailure removes the failure marker so the monitor may watch the
// document again.
func (s *Store) ClearArchiveFailure(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx, `UPDATE files SET archive_error = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("clear archive failure: %w", err)
	}
	return requireRow(res, id)
}

func requireRow(res interface{ RowsAffected() (int64, error) }, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

// ListActive returns active records without a failure marker, oldest first.
// These are the documents the monitor should be watching.
func (s *Store) ListActive(ctx context.Context) ([]*File, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+fileColumns+` FROM files WHERE status = ? AND archive_error IS NULL ORDER BY id`,
		StatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("list active: %w", err)
	}
	defer rows.Close()
	return collectFiles(rows)
}

// List returns records matching filter, newest first, with tags attached.
func (s *Store) List(ctx context.Context, filter Filter) ([]*File, error) {
	ctx = ensureContext(ctx)
	query, args, err := buildListQuery(filter)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	files, err := collectFiles(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if err := s.attachTags(ctx, files); err != nil {
		return nil, err
	}
	return files, nil
}

func buildListQuery(filter Filter) (string, []any, error) {
	var (
		clauses []string
		args    []any
	)
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + escapeLike(search) + "%"
		clauses = append(clauses, `(title LIKE ? ESCAPE '\' OR filename LIKE ? ESCAPE '\')`)
		args = append(args, like, like)
	}
	if ext := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(filter.Extension)), "."); ext != "" {
		clauses = append(clauses, `LOWER(extension) = ?`)
		args = append(args, ext)
	}
	if date := strings.TrimSpace(filter.Date); date != "" {
		start, end, err := dateRange(date)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, `created_at >= ? AND created_at < ?`)
		args = append(args, formatTime(start), formatTime(end))
	}
	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		clauses = append(clauses, `id IN (SELECT ft.file_id FROM file_tags ft JOIN tags t ON t.id = ft.tag_id WHERE t.name = ?)`)
		args = append(args, tag)
	}
	if filter.Status != "" {
		clauses = append(clauses, `status = ?`)
		args = append(args, filter.Status)
	}

	query := `SELECT ` + fileColumns + ` FROM files`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	return query, args, nil
}

// dateRange converts a YYYY, YYYY-MM, or YYYY-MM-DD prefix into a local-time
// half-open interval.
func dateRange(value string) (time.Time, time.Time, error) {
	layouts := []struct {
		layout string
		next   func(time.Time) time.Time
	}{
		{"2006-01-02", func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }},
		{"2006-01", func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }},
		{"2006", func(t time.Time) time.Time { return t.AddDate(1, 0, 0) }},
	}
	for _, l := range layouts {
		if start, err := time.ParseInLocation(l.layout, value, time.Local); err == nil {
			return start, l.next(start), nil
		}
	}
	return time.Time{}, time.Time{}, fmt.Errorf("invalid date filter %q: want YYYY, YYYY-MM, or YYYY-MM-DD", value)
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}

func collectFiles(rows *sql.Rows) ([]*File, error) {
	var files []*File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

func (s *Store) attachTags(ctx context.Context, files []*File) error {
	if len(files) == 0 {
		return nil
	}
	byID := make(map[int64]*File, len(files))
	args := make([]any, 0, len(files))
	for _, f := range files {
		byID[f.ID] = f
		args = append(args, f.ID)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT ft.file_id, t.name FROM file_tags ft JOIN tags t ON t.id = ft.tag_id
         WHERE ft.file_id IN (`+makePlaceholders(len(args))+`) ORDER BY t.name`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			fileID int64
			name   string
		)
		if err := rows.Scan(&fileID, &name); err != nil {
			return fmt.Errorf("scan tag: %w", err)
		}
		if f := byID[fileID]; f != nil {
			f.Tags = append(f.Tags, name)
		}
	}
	return rows.Err()
}
