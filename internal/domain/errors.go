package domain

import (
	"errors"
	"fmt"
)

// Category sentinels. Registry and scoring errors are programming errors
// surfaced to the caller; analyzer errors are operational and absorbed
// per-expert by the orchestrator.
var (
	ErrNotFound     = fmt.Errorf("not found")
	ErrDuplicate    = fmt.Errorf("duplicate")
	ErrTimeout      = fmt.Errorf("operation timed out")
	ErrDisabled     = fmt.Errorf("disabled")
	ErrInvalidInput = fmt.Errorf("invalid input")

	ErrConfigLoad      = fmt.Errorf("failed to load configuration")
	ErrAnalyzerMissing = fmt.Errorf("no analyzer registered for expert")
	ErrAnalyzerFailure = fmt.Errorf("expert analysis failed")
	ErrCircuitOpen     = fmt.Errorf("expert circuit open")
	ErrRateLimited     = fmt.Errorf("invocation rate limit exceeded")
	ErrSnapshotInvalid = fmt.Errorf("registry snapshot invalid")
	ErrStoreUnavail    = fmt.Errorf("statistics store unavailable")
)

// DomainError wraps a sentinel error with operation context.
type DomainError struct {
	Op     string // operation name (e.g., "Registry.Register")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error. Returns nil if err is nil,
// enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ErrorCode is a machine-parseable error category for monitoring.
type ErrorCode string

const (
	CodeUnknown         ErrorCode = "UNKNOWN"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeDuplicate       ErrorCode = "DUPLICATE"
	CodeTimeout         ErrorCode = "TIMEOUT"
	CodeDisabled        ErrorCode = "DISABLED"
	CodeInvalidInput    ErrorCode = "INVALID_INPUT"
	CodeConfigLoad      ErrorCode = "CONFIG_LOAD"
	CodeAnalyzerMissing ErrorCode = "ANALYZER_MISSING"
	CodeAnalyzerFailure ErrorCode = "ANALYZER_FAILURE"
	CodeCircuitOpen     ErrorCode = "CIRCUIT_OPEN"
	CodeRateLimited     ErrorCode = "RATE_LIMITED"
	CodeSnapshotInvalid ErrorCode = "SNAPSHOT_INVALID"
	CodeStoreUnavail    ErrorCode = "STORE_UNAVAILABLE"
)

// errorCodeMap maps sentinel errors to their machine-parseable codes.
var errorCodeMap = map[error]ErrorCode{
	ErrNotFound:        CodeNotFound,
	ErrDuplicate:       CodeDuplicate,
	ErrTimeout:         CodeTimeout,
	ErrDisabled:        CodeDisabled,
	ErrInvalidInput:    CodeInvalidInput,
	ErrConfigLoad:      CodeConfigLoad,
	ErrAnalyzerMissing: CodeAnalyzerMissing,
	ErrAnalyzerFailure: CodeAnalyzerFailure,
	ErrCircuitOpen:     CodeCircuitOpen,
	ErrRateLimited:     CodeRateLimited,
	ErrSnapshotInvalid: CodeSnapshotInvalid,
	ErrStoreUnavail:    CodeStoreUnavail,
}

// ErrorCodeOf returns the machine-parseable code for err. It unwraps
// DomainError and walks the chain with errors.Is. Returns CodeUnknown
// when no sentinel matches.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}
	if code, ok := errorCodeMap[err]; ok {
		return code
	}
	var de *DomainError
	if errors.As(err, &de) {
		if code, ok := errorCodeMap[de.Err]; ok {
			return code
		}
	}
	for sentinel, code := range errorCodeMap {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return CodeUnknown
}
