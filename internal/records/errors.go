package records

import (
	"errors"
	"fmt"

	"docvault/internal/services"
)

var (
	// ErrNotFound reports that no record matched the requested identifier.
	ErrNotFound = fmt.Errorf("%w: file record", services.ErrNotFound)
	// ErrDuplicatePath reports that another active record already claims the path.
	ErrDuplicatePath = fmt.Errorf("%w: an active record already uses this path", services.ErrConflict)
	// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
	ErrSchemaMismatch = errors.New("schema version mismatch")
)
