package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/rowfilter/internal/compiler"
	"github.com/roach88/rowfilter/internal/partial"
	"github.com/roach88/rowfilter/internal/queryset"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Deny decision, translation error or failed scenarios
	ExitCommandError = 2 // Command error (bad flags, unreachable engine, database errors, etc.)
)

// Error codes for CLI responses. Translation errors are reported with
// their own code (e.g. "self-join-unsupported").
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeInvalidInput = "E010" // Unparseable query or input document
	ErrCodeEngine       = "E020" // Partial evaluation failed
	ErrCodeDatabase     = "E030" // Database open or query failed
	ErrCodeTestFailed   = "E_TEST_FAILED"
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Diagnostics; keeps JSON on Writer parseable
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success outputs a successful result in the configured format. In text
// format data is printed with fmt.Fprintln.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// VerboseLog outputs a message only if verbose mode is enabled.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Fail reports err and converts it to an ExitError.
//
//   - translation errors: their own code, exit 1
//   - engine errors: E020, exit 2
//   - query text or input errors: E010, exit 2
//   - anything else: E001, exit 2
func (f *OutputFormatter) Fail(message string, err error) error {
	var te *compiler.TranslationError
	var ee *partial.EvalError
	var pe *queryset.ParseError

	switch {
	case errors.As(err, &te):
		var details any
		if te.Expr != "" {
			details = map[string]string{"expr": te.Expr}
		}
		_ = f.Error(string(te.Code), te.Message, details)
		return WrapExitError(ExitFailure, message, err)
	case errors.As(err, &ee):
		_ = f.Error(ErrCodeEngine, ee.Error(), map[string]any{"status": ee.Status, "code": ee.Code})
	case errors.As(err, &pe):
		_ = f.Error(ErrCodeInvalidInput, pe.Error(), nil)
	default:
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
	}
	return WrapExitError(ExitCommandError, message, err)
}
