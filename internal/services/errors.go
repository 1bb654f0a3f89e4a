package services

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindForbidden
	KindCascade
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindCascade:
		return "cascade_failure"
	default:
		return "internal"
	}
}

// Sentinels for errors.Is; every *Error matches the one for its Kind.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrCascade    = errors.New("cascade failed")
)

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindConflict:
		return ErrConflict
	case KindNotFound:
		return ErrNotFound
	case KindForbidden:
		return ErrForbidden
	case KindCascade:
		return ErrCascade
	}
	return nil
}

// Error is the typed result of a failed store operation.
type Error struct {
	Kind Kind
	Op   string // e.g. "follows.create"
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	if e.Msg != "" {
		b.WriteString(e.Msg)
	} else {
		b.WriteString(e.Kind.String())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// NewError builds a typed error; used by callers outside this package
// (request decoding) that need to report in the same taxonomy.
func NewError(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// KindOf reports the kind of err, KindInternal for anything untyped.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func validationError(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

func notFoundError(op, msg string) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: msg}
}

func forbiddenError(op, msg string) error {
	return &Error{Kind: KindForbidden, Op: op, Msg: msg}
}

func cascadeError(op, step string, err error) error {
	if KindOf(err) == KindCascade {
		return err
	}
	return &Error{Kind: KindCascade, Op: op, Msg: "failed to delete " + step, Err: err}
}

// classify turns a storage error into a typed *Error. Errors that are already
// typed pass through untouched.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}

	var kind Kind
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		kind = KindNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		kind = KindConflict
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		kind = KindNotFound
	default:
		kind = driverKind(err)
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// driverKind inspects native constraint codes the gorm translators leave alone
// (check and not-null violations) or miss.
func driverKind(err error) Kind {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return KindConflict
		case "23503": // foreign_key_violation
			return KindNotFound
		case "23514", "23502": // check_violation, not_null_violation
			return KindValidation
		}
		return KindInternal
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return KindConflict
		case sqlite3.ErrConstraintForeignKey:
			return KindNotFound
		case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
			return KindValidation
		}
	}
	return KindInternal
}
