package diag

import "fmt"

// Stage identifies which compiler phase produced the diagnostic.
type Stage string

const (
	StageLexer     Stage = "lexer"
	StageParser    Stage = "parser"
	StageTypeCheck Stage = "typecheck"
	StageEffect    Stage = "effect"
	StageCodegen   Stage = "codegen"
)

// Severity captures how impactful the diagnostic is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// Code is a stable identifier for a diagnostic.
type Code string

const (
	CodeLexerUnterminatedString       Code = "LEXER_UNTERMINATED_STRING"
	CodeLexerUnterminatedBlockComment Code = "LEXER_UNTERMINATED_BLOCK_COMMENT"
	CodeLexerIllegalRune              Code = "LEXER_ILLEGAL_RUNE"

	// Effect checker taxonomy (spec §7).
	CodeUnresolvedSymbol     Code = "UNRESOLVED_SYMBOL"
	CodeUnknownField         Code = "UNKNOWN_FIELD"
	CodeUnknownMethod        Code = "UNKNOWN_METHOD"
	CodeAmbiguousMethod      Code = "AMBIGUOUS_METHOD"
	CodeArgArityMismatch     Code = "ARG_ARITY_MISMATCH"
	CodeArgTypeMismatch      Code = "ARG_TYPE_MISMATCH"
	CodeReturnTypeMismatch   Code = "RETURN_TYPE_MISMATCH"
	CodeArrayHeterogeneous   Code = "ARRAY_HETEROGENEOUS"
	CodeInternalInvariant    Code = "INTERNAL_INVARIANT"
	CodePartialStructInit    Code = "PARTIAL_STRUCT_INIT"
	CodeCompareJumpNotBool   Code = "COMPARE_JUMP_NOT_BOOL"
	CodeOperatorNotFound     Code = "OPERATOR_NOT_FOUND"
)

// Span represents a location in source code.
type Span struct {
	Filename string
	Line     int
	Column   int
	Start    int
	End      int
}

// IsValid reports whether the span refers to an actual source location.
func (s Span) IsValid() bool {
	return s.Line > 0
}

// String renders the span as "file:line:column".
func (s Span) String() string {
	if s.Filename == "" {
		return fmt.Sprintf("%d:%d", s.Line, s.Column)
	}
	return fmt.Sprintf("%s:%d:%d", s.Filename, s.Line, s.Column)
}

// LabeledSpan is a span annotated with a display style and an inline label,
// used to render Rust-style multi-span diagnostics.
type LabeledSpan struct {
	Span  Span
	Style string // "primary" or "secondary"
	Label string
}

// ProofStep records one step of a resolution/inference chain, shown to the
// user as a trail of "= note:" lines leading up to the failure.
type ProofStep struct {
	Message string
	Span    Span
}

// Diagnostic is a compiler diagnostic surfaced to end-users.
type Diagnostic struct {
	Stage        Stage
	Severity     Severity
	Code         Code
	Message      string
	Span         Span
	LabeledSpans []LabeledSpan
	Help         string
	Suggestion   string
	Notes        []string
	Related      []Span
	ProofChain   []ProofStep
}

// WithPrimarySpan returns a copy of d with a primary labeled span appended.
func (d Diagnostic) WithPrimarySpan(span Span, label string) Diagnostic {
	d.Span = span
	d.LabeledSpans = append(append([]LabeledSpan{}, d.LabeledSpans...), LabeledSpan{
		Span: span, Style: "primary", Label: label,
	})
	return d
}

// WithSecondarySpan returns a copy of d with a secondary labeled span appended.
func (d Diagnostic) WithSecondarySpan(span Span, label string) Diagnostic {
	d.LabeledSpans = append(append([]LabeledSpan{}, d.LabeledSpans...), LabeledSpan{
		Span: span, Style: "secondary", Label: label,
	})
	return d
}

// WithHelp returns a copy of d with its help text replaced.
func (d Diagnostic) WithHelp(help string) Diagnostic {
	d.Help = help
	return d
}

// WithProofStep returns a copy of d with a proof-chain step appended.
func (d Diagnostic) WithProofStep(message string, span Span) Diagnostic {
	d.ProofChain = append(append([]ProofStep{}, d.ProofChain...), ProofStep{Message: message, Span: span})
	return d
}

// WithNote returns a copy of d with a note appended.
func (d Diagnostic) WithNote(note string) Diagnostic {
	d.Notes = append(append([]string{}, d.Notes...), note)
	return d
}
