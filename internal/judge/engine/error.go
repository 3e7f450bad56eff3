package engine

import "fmt"

// Failure kinds the client normalizes judge-server errors into. Kinds the
// server itself reports (e.g. "CompileError") pass through unchanged.
const (
	KindInvalidRequest = "InvalidRequest"
	KindTimeout        = "Timeout"
	KindRequestError   = "RequestError"
	KindUnknownError   = "UnknownError"
	KindCompileError   = "CompileError"
)

// Error is a normalized judge-server failure. Kind is one of the Kind*
// constants or the server's own classifier string.
type Error struct {
	Kind    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// IsCompileError reports whether the server rejected the run at the
// compile step.
func (e *Error) IsCompileError() bool {
	return e.Kind == KindCompileError
}
