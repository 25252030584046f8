package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/ytstream/internal/shared"
)

// scanner is satisfied by [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// storeError tags a database failure. [sql.ErrNoRows] becomes a not-found error with notFound as its sentinel.
func storeError(op string, err error, notFound error) error {
	if errors.Is(err, sql.ErrNoRows) && notFound != nil {
		return shared.E(shared.KindNotFound, op, notFound)
	}
	return shared.E(shared.KindStore, op, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err))
}
