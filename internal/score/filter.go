package score

import (
	"fmt"
	"log/slog"

	"github.com/google/cel-go/cel"

	"github.com/toxin-don/rails-security-pr-digest/internal/pull"
)

// Filter is an optional CEL pre-filter applied to pull requests before
// scoring. The expression sees the variables `title` (string), `labels`
// (list of string) and `files` (list of string) and must return a boolean;
// pull requests for which it returns false are skipped entirely. Typical
// use is excluding dependency-bot churn:
//
//	!labels.exists(l, l == "dependencies")
//
// The program is compiled once at startup.
type Filter struct {
	expression string
	program    cel.Program
}

// NewFilter compiles the expression into an executable CEL program.
// An empty expression yields a nil filter, which keeps everything.
// Syntax and type errors are configuration errors and fail the startup.
func NewFilter(expression string) (*Filter, error) {
	if expression == "" {
		return nil, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("title", cel.StringType),
		cel.Variable("labels", cel.ListType(cel.StringType)),
		cel.Variable("files", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, err
	}

	ast, iss := env.Parse(expression)
	if iss.Err() != nil {
		return nil, fmt.Errorf("parse filter expression: %w", iss.Err())
	}

	checked, iss := env.Check(ast)
	if iss.Err() != nil {
		return nil, fmt.Errorf("check filter expression: %w", iss.Err())
	}

	program, err := env.Program(checked)
	if err != nil {
		return nil, err
	}

	return &Filter{expression: expression, program: program}, nil
}

// Keep reports whether the pull request passes the filter. Evaluation
// errors keep the pull request — a filter must not silently drop
// candidates — and are logged.
func (f *Filter) Keep(pr pull.PullRequest) bool {
	if f == nil {
		return true
	}

	result, _, err := f.program.Eval(map[string]any{
		"title":  pr.Title,
		"labels": pr.Labels,
		"files":  pr.Files,
	})
	if err != nil {
		slog.Warn("Filter eval", "error", err, "expression", f.expression, "pr", pr.Number)
		return true
	}

	return result.Value() != false
}
