package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	domerr "github.com/savr-app/savr/pkg/domain/errors"
)

// requested data is missing.
type Missing struct {
	Table    string
	Identity string
}

var _ error = Missing{}

func (m Missing) Error() string {
	return fmt.Sprintf("%s is not found in %s ", m.Identity, m.Table)
}
func (m Missing) Unwrap() error {
	return domerr.ErrMissing
}

// requested data is found too much.
type TooMuch struct {
	Table    string
	Identity string
	Expected int
}

var _ error = TooMuch{}

func (t TooMuch) Error() string {
	return fmt.Sprintf(
		"%s is found in %s more than %d times",
		t.Identity, t.Table, t.Expected,
	)
}

func (t TooMuch) Unwrap() error {
	return domerr.ErrTooMuch
}

// write collides with an existing record.
type Conflict struct {
	Table string
	Cause string
}

var _ error = Conflict{}

func (c Conflict) Error() string {
	return fmt.Sprintf("conflicting write on %s (%s)", c.Table, c.Cause)
}

func (c Conflict) Unwrap() error {
	return domerr.ErrConflict
}

// AsConflict converts unique/exclusion violations reported by postgres
// into Conflict. Other errors pass through unchanged.
func AsConflict(err error, table string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation, pgerrcode.ExclusionViolation:
			return Conflict{Table: table, Cause: pgErr.ConstraintName}
		}
	}
	return err
}
