package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/xfersynth/internal/catalog"
	"github.com/roach88/xfersynth/internal/compiler"
	"github.com/roach88/xfersynth/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Sets     []string                   `json:"sets,omitempty"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.ValidationError `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <opset-file>",
		Short: "Validate an operator-set file",
		Long: `Validate an operator-set file (.yaml, .yml, .json or .cue).

Every set the file declares is loaded and checked. Errors (E1xx) make a set
unusable; warnings (W2xx) flag sets that load but limit what candidates can
be built.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	sets, err := loadOpSets(path)
	if err != nil {
		finding, ok := loadFinding(err)
		if !ok {
			code := ErrCodeOpSet
			if errors.Is(err, os.ErrNotExist) {
				code = ErrCodeNotFound
			}
			return outputValidateError(formatter, code, err.Error())
		}
		return outputValidationErrors(formatter, ValidationResult{Errors: []compiler.ValidationError{finding}})
	}

	result := ValidationResult{Valid: true}
	for _, set := range sets {
		formatter.VerboseLog("Validating operator set: %s", set.Name)
		result.Sets = append(result.Sets, set.Name)
		for _, finding := range compiler.Validate(set) {
			if len(sets) > 1 {
				finding.Field = set.Name + "." + finding.Field
			}
			if finding.IsWarning() {
				result.Warnings = append(result.Warnings, finding)
			} else {
				result.Errors = append(result.Errors, finding)
			}
		}
	}

	if len(result.Errors) > 0 {
		result.Valid = false
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// loadOpSets loads every set a file declares. Files other than CUE hold
// one set.
func loadOpSets(path string) ([]catalog.OpSet, error) {
	if strings.ToLower(filepath.Ext(path)) == ".cue" {
		return compiler.CompileFile(path)
	}
	set, err := config.LoadOpSet(path, "")
	if err != nil {
		return nil, err
	}
	return []catalog.OpSet{set}, nil
}

// loadFinding converts a configuration error into a finding. Errors that
// are not about the file's content (unreadable file, unknown extension)
// report false.
func loadFinding(err error) (compiler.ValidationError, bool) {
	var field, msg string
	var ce *catalog.ConfigError
	var cue *compiler.CompileError
	switch {
	case errors.As(err, &ce):
		field, msg = ce.Entry, ce.Message
	case errors.As(err, &cue):
		field, msg = cue.Field, cue.Message
	default:
		return compiler.ValidationError{}, false
	}
	return compiler.ValidationError{Field: field, Message: msg, Code: findingCode(msg)}, true
}

// findingCode maps a load error message to its validation code.
func findingCode(msg string) string {
	switch {
	case strings.Contains(msg, "bucket is empty"), strings.Contains(msg, "at least one"):
		return compiler.ErrBucketEmpty
	case strings.Contains(msg, "duplicate operator"):
		return compiler.ErrDuplicateOp
	case strings.Contains(msg, "cannot be sampled"):
		return compiler.ErrNotSampleable
	case strings.Contains(msg, "produces"):
		return compiler.ErrWrongBucket
	default:
		return ErrCodeOpSet
	}
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Operator set(s) valid: %s\n", strings.Join(result.Sets, ", "))
	for _, w := range result.Warnings {
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", w.Code, w.Field, w.Message)
	}
	return nil
}

// outputValidateError outputs a single load error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	// Unloadable files are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs every finding of a failed validation.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", err.Code, err.Field, err.Message)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", w.Code, w.Field, w.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
