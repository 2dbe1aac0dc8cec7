package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrorCode categorizes the typed failures surfaced by the engine.
type ErrorCode string

const (
	// ErrCodeUnbalanced indicates debits and credits differ at commit.
	ErrCodeUnbalanced ErrorCode = "UNBALANCED"

	// ErrCodeIntegrityLock indicates a write to an integrity field of a
	// hash-locked move.
	ErrCodeIntegrityLock ErrorCode = "INTEGRITY_LOCK"

	// ErrCodeFiscalLock indicates a write into a locked fiscal period.
	ErrCodeFiscalLock ErrorCode = "FISCAL_LOCK"

	// ErrCodeSequenceConflict indicates concurrent name allocation hit the
	// posted-name unique index and exhausted its retry.
	ErrCodeSequenceConflict ErrorCode = "SEQUENCE_CONFLICT"

	// ErrCodeSequenceGap indicates a hash run is not contiguous.
	ErrCodeSequenceGap ErrorCode = "SEQUENCE_GAP"

	// ErrCodeMissingConfig indicates no journal or account could be
	// deduced for the operation.
	ErrCodeMissingConfig ErrorCode = "MISSING_CONFIG"

	// ErrCodeInvalidTransition indicates a forbidden state change.
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"

	// ErrCodeValidation indicates one or more per-field violations.
	ErrCodeValidation ErrorCode = "VALIDATION"
)

// UnbalancedError lists every offending move with its rounded sums.
type UnbalancedError struct {
	Entries []UnbalancedEntry
}

// UnbalancedEntry is one move whose debits and credits differ.
type UnbalancedEntry struct {
	Move   string
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

func (e *UnbalancedError) Error() string {
	parts := make([]string, len(e.Entries))
	for i, ent := range e.Entries {
		parts[i] = fmt.Sprintf("%s (debit %s, credit %s)", ent.Move, ent.Debit.String(), ent.Credit.String())
	}
	return fmt.Sprintf("%s: cannot post unbalanced entries: %s", ErrCodeUnbalanced, strings.Join(parts, "; "))
}

// IntegrityLockError rejects writes to integrity fields of hashed moves.
type IntegrityLockError struct {
	Move  string
	Field string
}

func (e *IntegrityLockError) Error() string {
	return fmt.Sprintf("%s: %s is protected by the hash chain; field %q cannot change", ErrCodeIntegrityLock, e.Move, e.Field)
}

// FiscalLockError rejects edits inside a locked period and suggests the
// first open date.
type FiscalLockError struct {
	Move     string
	LockDate string
	NextOpen string
}

func (e *FiscalLockError) Error() string {
	return fmt.Sprintf("%s: %s falls in a period locked up to %s; use %s or later", ErrCodeFiscalLock, e.Move, e.LockDate, e.NextOpen)
}

// SequenceConflictError escalates a name collision after retry.
type SequenceConflictError struct {
	Journal string
	Name    string
}

func (e *SequenceConflictError) Error() string {
	return fmt.Sprintf("%s: name %q already allocated in journal %s", ErrCodeSequenceConflict, e.Name, e.Journal)
}

// SequenceGapError rejects a non-contiguous hash run.
type SequenceGapError struct {
	Journal string
	Prefix  string
	After   int // last number before the gap
	Next    int // first number after the gap
}

func (e *SequenceGapError) Error() string {
	return fmt.Sprintf("%s: cannot hash journal %s prefix %q: gap between %d and %d; resequence the draft entries first",
		ErrCodeSequenceGap, e.Journal, e.Prefix, e.After, e.Next)
}

// MissingConfigError points the operator at the configuration area.
type MissingConfigError struct {
	What  string
	Where string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("%s: no %s configured; set it under %s", ErrCodeMissingConfig, e.What, e.Where)
}

// TransitionError rejects a forbidden state change.
type TransitionError struct {
	Move string
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s cannot move from %s to %s", ErrCodeInvalidTransition, e.Move, e.From, e.To)
}

// ValidationError accumulates per-violation messages so a single posting
// attempt reports every problem at once.
type ValidationError struct {
	Move       string
	Violations []string
}

// Add appends one violation message.
func (e *ValidationError) Add(format string, args ...any) {
	e.Violations = append(e.Violations, fmt.Sprintf(format, args...))
}

// Empty reports whether no violation was recorded.
func (e *ValidationError) Empty() bool { return len(e.Violations) == 0 }

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrCodeValidation, e.Move, strings.Join(e.Violations, "; "))
}

// CodeOf extracts the error code from any engine error, or "" for
// untyped errors. Uses errors.As to handle wrapping.
func CodeOf(err error) ErrorCode {
	var (
		unbalanced *UnbalancedError
		lock       *IntegrityLockError
		fiscal     *FiscalLockError
		seqConf    *SequenceConflictError
		seqGap     *SequenceGapError
		missing    *MissingConfigError
		transition *TransitionError
		validation *ValidationError
	)
	switch {
	case errors.As(err, &unbalanced):
		return ErrCodeUnbalanced
	case errors.As(err, &lock):
		return ErrCodeIntegrityLock
	case errors.As(err, &fiscal):
		return ErrCodeFiscalLock
	case errors.As(err, &seqConf):
		return ErrCodeSequenceConflict
	case errors.As(err, &seqGap):
		return ErrCodeSequenceGap
	case errors.As(err, &missing):
		return ErrCodeMissingConfig
	case errors.As(err, &transition):
		return ErrCodeInvalidTransition
	case errors.As(err, &validation):
		return ErrCodeValidation
	}
	return ""
}
