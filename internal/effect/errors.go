package effect

import (
	"errors"
	"fmt"

	"github.com/veyra-lang/veyra/internal/diag"
	"github.com/veyra-lang/veyra/internal/typesystem"
)

// CheckError wraps a diagnostic produced while verifying a single
// function's body. Checking a function aborts on the first CheckError;
// the driver collects these across functions into a report (§7).
type CheckError struct {
	Diagnostic diag.Diagnostic
}

func (e *CheckError) Error() string { return e.Diagnostic.Message }

func newError(code diag.Code, span diag.Span, msg string) *CheckError {
	return &CheckError{Diagnostic: diag.Diagnostic{
		Stage:    diag.StageEffect,
		Severity: diag.SeverityError,
		Code:     code,
		Message:  msg,
		Span:     span,
	}}
}

// newErrorOn is newError with a note correlating the diagnostic back to
// the registration event (§3's Handle) that produced the struct or
// function the error concerns -- useful once a symbol has gone through
// several degenericing/impl-resolution steps since its declaration.
func newErrorOn(code diag.Code, span diag.Span, msg string, h *typesystem.Handle) *CheckError {
	ce := newError(code, span, msg)
	ce.Diagnostic.Notes = append(ce.Diagnostic.Notes, fmt.Sprintf("registration handle %s", h.ID()))
	return ce
}

func newWarning(code diag.Code, span diag.Span, msg string) diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageEffect,
		Severity: diag.SeverityWarning,
		Code:     code,
		Message:  msg,
		Span:     span,
	}
}

// DiagnosticFor converts an error returned from Loader.Finalize into a
// diag.Diagnostic. A *CheckError unwraps to the diagnostic it was built
// from; anything else (a *symtab.NotFoundError surfacing after the
// finished-impls flag, an impl-resolution wrapper, and so on) becomes a
// generic effect-stage diagnostic carrying the error's message.
func DiagnosticFor(err error) diag.Diagnostic {
	var ce *CheckError
	if errors.As(err, &ce) {
		return ce.Diagnostic
	}
	return diag.Diagnostic{
		Stage:    diag.StageEffect,
		Severity: diag.SeverityError,
		Code:     diag.CodeUnresolvedSymbol,
		Message:  err.Error(),
	}
}
