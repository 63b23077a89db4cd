package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/clsim/internal/activity"
	"github.com/roach88/clsim/internal/ir"
	"github.com/roach88/clsim/internal/model"
	"github.com/roach88/clsim/internal/sim"
)

// ValidationError is one problem found in a model.
type ValidationError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Activity string `json:"activity,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool              `json:"valid"`
	Model      string            `json:"model,omitempty"`
	ModelHash  string            `json:"model_hash,omitempty"`
	Activities int               `json:"activities"`
	Errors     []ValidationError `json:"errors,omitempty"`
}

func (r ValidationResult) String() string {
	if r.Valid {
		return fmt.Sprintf("✓ model %s is valid (%d activities)", r.Model, r.Activities)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "✗ model is invalid (%d error(s))", len(r.Errors))
	for _, e := range r.Errors {
		b.WriteString("\n  ")
		if e.Line > 0 {
			fmt.Fprintf(&b, "line %d:%d: ", e.Line, e.Column)
		}
		if e.Activity != "" {
			fmt.Fprintf(&b, "activity %s: ", e.Activity)
		}
		fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	}
	return b.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <model>",
		Short: "Check a model without running it",
		Long: `Load a model, resolve every name it references and compile every
start condition, without advancing the simulation.

Exit codes:
  0 - Model is valid
  1 - Model is invalid`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	result := validateModel(path, formatter)

	if result.Valid {
		return formatter.Success(result)
	}
	if err := formatter.Fail(ErrCodeModel, "model is invalid", result); err != nil {
		return err
	}
	return NewExitError(ExitFailure, fmt.Sprintf("model is invalid (%d error(s))", len(result.Errors)))
}

func validateModel(path string, formatter *OutputFormatter) ValidationResult {
	m, err := model.Load(path)
	if err != nil {
		return ValidationResult{Errors: toValidationErrors(err)}
	}
	formatter.VerboseLog("Loaded model %s", m.Name)

	result := ValidationResult{Model: m.Name, Activities: len(m.Activities)}
	if result.ModelHash, err = m.Hash(); err != nil {
		result.Errors = toValidationErrors(err)
		return result
	}

	// Build on a scratch environment so name resolution and condition
	// compilation run exactly as they would for a real run.
	env := sim.NewEnv(sim.WithLogger(newLogger(io.Discard, false)))
	defer env.Close()
	dir := activity.NewDirectory(activity.WithLogger(newLogger(io.Discard, false)))

	w, err := model.Build(env, dir, m)
	if err == nil {
		err = w.Validate()
	}
	if err != nil {
		result.Errors = toValidationErrors(err)
		return result
	}
	result.Valid = true
	return result
}

// toValidationErrors flattens joined errors and maps typed errors to codes.
func toValidationErrors(err error) []ValidationError {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []ValidationError
		for _, e := range joined.Unwrap() {
			out = append(out, toValidationErrors(e)...)
		}
		return out
	}

	var le *model.LoadError
	if errors.As(err, &le) {
		ve := ValidationError{Code: ErrCodeLoad, Message: le.Message}
		if le.Pos.IsValid() {
			ve.Line = le.Pos.Line()
			ve.Column = le.Pos.Column()
		}
		return []ValidationError{ve}
	}

	var me *ir.ModelError
	if errors.As(err, &me) {
		return []ValidationError{{Code: string(me.Code), Message: me.Message, Activity: me.Activity}}
	}
	return []ValidationError{{Code: ErrCodeModel, Message: err.Error()}}
}
