package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rahul/sahayak/internal/plan"
)

var (
	// ErrFilesystem marks write failures: bad paths, permissions, escapes
	// from the workspace.
	ErrFilesystem = errors.New("filesystem error")
	// ErrCommand marks commands that could not be started at all. A command
	// that runs and exits nonzero is a failed outcome, not an ErrCommand.
	ErrCommand = errors.New("command error")
)

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Outcome is the per-step result. Detail holds captured output or the
// error text; Err is set only when the step failed for a reason beyond a
// nonzero exit status.
type Outcome struct {
	Step   plan.Step
	Status Status
	Detail string
	Err    error
}

// Result aggregates the outcomes of one executor pass over a plan.
// Succeeded is true only when every step of the plan ran and succeeded.
type Result struct {
	Outcomes  []Outcome
	Succeeded bool
}

// FailureContext renders the failed tail of the result as text for the
// next planning round. Empty when the pass succeeded.
func (r *Result) FailureContext() string {
	if r.Succeeded {
		return ""
	}
	var sb strings.Builder
	for i, o := range r.Outcomes {
		if o.Status != StatusFailed {
			continue
		}
		fmt.Fprintf(&sb, "Step %d (%s) failed.\n%s\n", i+1, o.Step, o.Detail)
	}
	if len(r.Outcomes) == 0 {
		sb.WriteString("No steps were executed.\n")
	}
	return sb.String()
}

// Executor applies approved plans. File writes are confined to Root;
// commands run in Root with the invoking environment.
type Executor struct {
	Root           string
	CommandTimeout time.Duration
}

func New(workspace string, commandTimeout time.Duration) *Executor {
	absRoot, _ := filepath.Abs(workspace)
	return &Executor{Root: absRoot, CommandTimeout: commandTimeout}
}

// Apply runs the plan's steps strictly in order and stops at the first
// failed outcome, returning the partial result. It performs no action that
// is not a step of the plan.
func (e *Executor) Apply(ctx context.Context, p *plan.Plan) *Result {
	res := &Result{}
	for _, s := range p.Steps {
		var out Outcome
		switch s.Kind {
		case plan.WriteFile:
			out = e.writeFile(s)
		case plan.RunCommand:
			out = e.runCommand(ctx, s)
		default:
			out = Outcome{
				Step:   s,
				Status: StatusFailed,
				Detail: fmt.Sprintf("unknown step kind %q", s.Kind),
			}
		}
		res.Outcomes = append(res.Outcomes, out)
		if out.Status == StatusFailed {
			return res
		}
	}
	res.Succeeded = true
	return res
}

// resolve joins target onto the workspace root and rejects paths that
// escape it.
func (e *Executor) resolve(target string) (string, error) {
	path := filepath.Join(e.Root, target)
	rel, err := filepath.Rel(e.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: unsafe path %q", ErrFilesystem, target)
	}
	return path, nil
}

func (e *Executor) writeFile(s plan.Step) Outcome {
	path, err := e.resolve(s.Target)
	if err != nil {
		return Outcome{Step: s, Status: StatusFailed, Detail: err.Error(), Err: err}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			werr := fmt.Errorf("%w: %v", ErrFilesystem, err)
			return Outcome{Step: s, Status: StatusFailed, Detail: werr.Error(), Err: werr}
		}
	}

	if err := os.WriteFile(path, []byte(s.Content), 0644); err != nil {
		werr := fmt.Errorf("%w: %v", ErrFilesystem, err)
		return Outcome{Step: s, Status: StatusFailed, Detail: werr.Error(), Err: werr}
	}

	return Outcome{
		Step:   s,
		Status: StatusSucceeded,
		Detail: fmt.Sprintf("wrote %d bytes to %s", len(s.Content), s.Target),
	}
}

func (e *Executor) runCommand(ctx context.Context, s plan.Step) Outcome {
	if e.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.CommandTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "bash", "-c", s.Target)
	cmd.Dir = e.Root

	output, err := cmd.CombinedOutput()
	detail := strings.TrimSpace(string(output))
	if detail == "" {
		detail = "(no output)"
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// The command ran; a nonzero exit is recorded, not escalated.
			return Outcome{
				Step:   s,
				Status: StatusFailed,
				Detail: fmt.Sprintf("command exited with status %d\n%s", exitErr.ExitCode(), detail),
			}
		}
		cerr := fmt.Errorf("%w: %v", ErrCommand, err)
		return Outcome{Step: s, Status: StatusFailed, Detail: cerr.Error(), Err: cerr}
	}

	return Outcome{Step: s, Status: StatusSucceeded, Detail: detail}
}
