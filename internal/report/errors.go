package report

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"gitlab.com/yelinaung/club-ledger/internal/period"
)

// Kind classifies why a report fetch failed.
type Kind int

// Failure kinds.
const (
	KindUnknown Kind = iota
	KindTimeout
	KindServerOverloaded
	KindConnection
	KindMalformedInput
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindServerOverloaded:
		return "server_overloaded"
	case KindConnection:
		return "connection"
	case KindMalformedInput:
		return "malformed_input"
	default:
		return "unknown"
	}
}

// Error is a classified report failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the fetch may succeed.
func (e *Error) Retryable() bool {
	return e.Kind != KindMalformedInput
}

// Message returns the text shown to users.
func (e *Error) Message() string {
	switch e.Kind {
	case KindTimeout:
		return "Tempo limite excedido. Tente novamente."
	case KindServerOverloaded:
		return "O servidor está sobrecarregado ou retornou um erro. Tente novamente em instantes."
	case KindConnection:
		return "Erro de conexão com o banco de dados. Verifique a rede e tente novamente."
	case KindMalformedInput:
		return "Mês ou ano inválido."
	default:
		return "Não foi possível carregar os dados."
	}
}

// Classify wraps err in an *Error for op. Errors that are already
// classified are returned unchanged.
func Classify(op string, err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	return &Error{Kind: kindOf(err), Op: op, Err: err}
}

func kindOf(err error) Kind {
	if errors.Is(err, period.ErrMalformed) || errors.Is(err, period.ErrNoSelection) {
		return KindMalformedInput
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return KindTimeout
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErrorKind(pgErr)
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return KindConnection
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindConnection
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return KindConnection
	}

	return KindUnknown
}

// pgErrorKind maps SQLSTATE classes.
func pgErrorKind(pgErr *pgconn.PgError) Kind {
	if pgErr.Code == "57014" { // query_canceled, raised by statement_timeout
		return KindTimeout
	}
	if len(pgErr.Code) < 2 {
		return KindServerOverloaded
	}
	switch pgErr.Code[:2] {
	case "08":
		return KindConnection
	case "22":
		return KindMalformedInput
	default:
		return KindServerOverloaded
	}
}
