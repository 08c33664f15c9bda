package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode  Phase = "decode"  // heap word to Go
	PhaseEncode  Phase = "encode"  // Go to heap word
	PhaseAlloc   Phase = "alloc"   // heap allocation
	PhaseScope   Phase = "scope"   // root table push/pop
	PhaseRoot    Phase = "root"    // rooted variable slots
	PhaseDeclare Phase = "declare" // declaration generation
	PhaseHost    Phase = "host"    // entry point registration
	PhaseLoad    Phase = "load"    // guest module loading
	PhaseRuntime Phase = "runtime" // runtime operations
	PhaseConfig  Phase = "config"  // configuration parsing
)

// Kind categorizes the error
type Kind string

const (
	KindTagMismatch   Kind = "tag_mismatch"
	KindKindMismatch  Kind = "kind_mismatch"
	KindOutOfBounds   Kind = "out_of_bounds"
	KindNotImmediate  Kind = "not_immediate"
	KindNotBlock      Kind = "not_block"
	KindInvalidUTF8   Kind = "invalid_utf8"
	KindCapacity      Kind = "capacity"
	KindUnbalanced    Kind = "unbalanced"
	KindSlotsLeaked   Kind = "slots_leaked"
	KindOutOfOrder    Kind = "out_of_order"
	KindDoubleRelease Kind = "double_release"
	KindReleased      Kind = "released_root"
	KindTokenSpent    Kind = "token_spent"
	KindStale         Kind = "stale_value"
	KindScopeClosed   Kind = "scope_closed"
	KindAllocation    Kind = "allocation"
	KindInvalidData   Kind = "invalid_data"
	KindInvalidInput  Kind = "invalid_input"
	KindNotFound      Kind = "not_found"
	KindRegistration  Kind = "registration"
	KindInstantiation Kind = "instantiation"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	HostType string
	Detail   string
	Path     []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.HostType != "" {
		b.WriteString(": host type ")
		b.WriteString(e.HostType)
	}

	if e.Detail != "" {
		if e.HostType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the value path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// HostType sets the host type name
func (b *Builder) HostType(t string) *Builder {
	b.err.HostType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// TagMismatch creates a block tag mismatch error
func TagMismatch(phase Phase, path []string, got, want uint8) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTagMismatch,
		Path:   path,
		Detail: fmt.Sprintf("block tag %d, want %d", got, want),
		Value:  got,
	}
}

// KindMismatch creates an error for an operation applied to a value of the wrong type
func KindMismatch(phase Phase, path []string, op, hostType string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindKindMismatch,
		Path:     path,
		HostType: hostType,
		Detail:   fmt.Sprintf("%s not defined for this type", op),
	}
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(phase Phase, path []string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidUTF8,
		Path:   path,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, wosize uint32, tag uint8, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d words (tag %d)", wosize, tag),
		Cause:  cause,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// MemoryFault creates an error for a linear memory access outside its bounds
func MemoryFault(phase Phase, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: "linear memory access",
		Cause:  cause,
	}
}

// Capacity creates a capacity exceeded error
func Capacity(phase Phase, what string, limit int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindCapacity,
		Detail: fmt.Sprintf("%s exhausted (capacity %d)", what, limit),
		Value:  limit,
	}
}

// Stale creates an error for a value read after an allocation invalidated it
func Stale(phase Phase, hostType string, confirmed, current uint64) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindStale,
		HostType: hostType,
		Detail:   fmt.Sprintf("value confirmed at generation %d, heap at %d", confirmed, current),
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Registration creates a registration error
func Registration(phase Phase, module, name string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %s#%s", module, name),
		Cause:  cause,
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindInstantiation,
		Detail: "instantiate module",
		Cause:  cause,
	}
}
