package plan

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInvalidPlan marks plans the model produced that cannot be executed:
// no steps at all, or steps missing required fields. Callers treat it the
// same as a backend failure.
var ErrInvalidPlan = errors.New("invalid plan")

// StepKind enumerates the two actions a plan may contain.
type StepKind string

const (
	WriteFile  StepKind = "write_file"
	RunCommand StepKind = "run_command"
)

// Step is one unit of work. Target is a file path for WriteFile and a
// command line for RunCommand; Content is meaningful only for WriteFile.
// Steps are values and never mutated after construction.
type Step struct {
	Kind    StepKind `json:"kind"`
	Target  string   `json:"target"`
	Content string   `json:"content,omitempty"`
}

func (s Step) String() string {
	switch s.Kind {
	case WriteFile:
		return fmt.Sprintf("write %s", s.Target)
	case RunCommand:
		return fmt.Sprintf("run %s", s.Target)
	}
	return fmt.Sprintf("%s %s", s.Kind, s.Target)
}

// Plan is an ordered sequence of steps for one task. A revised plan is a
// new Plan; existing instances are never modified.
type Plan struct {
	Task  string `json:"task"`
	Steps []Step `json:"steps"`
}

// New copies the given steps into a fresh Plan so later changes to the
// caller's slice cannot reach it.
func New(task string, steps []Step) *Plan {
	p := &Plan{Task: task, Steps: make([]Step, len(steps))}
	copy(p.Steps, steps)
	return p
}

// Validate checks that the plan is executable: at least one step, every
// step a known kind with a non-empty target.
func (p *Plan) Validate() error {
	if p == nil || len(p.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidPlan)
	}
	for i, s := range p.Steps {
		if s.Kind != WriteFile && s.Kind != RunCommand {
			return fmt.Errorf("%w: step %d has unknown kind %q", ErrInvalidPlan, i+1, s.Kind)
		}
		if strings.TrimSpace(s.Target) == "" {
			return fmt.Errorf("%w: step %d has no target", ErrInvalidPlan, i+1)
		}
	}
	return nil
}

// contentPreviewLines bounds how much file content Render shows inline.
const contentPreviewLines = 20

// Render writes a numbered human-readable listing of the plan. File
// content up to contentPreviewLines is shown inline, longer bodies are
// summarized as a line count.
func (p *Plan) Render(w io.Writer) {
	fmt.Fprintf(w, "Plan for: %s\n", p.Task)
	for i, s := range p.Steps {
		switch s.Kind {
		case RunCommand:
			fmt.Fprintf(w, "%d. Run: %s\n", i+1, s.Target)
		case WriteFile:
			fmt.Fprintf(w, "%d. Create file: %s\n", i+1, s.Target)
			lines := strings.Split(s.Content, "\n")
			if len(lines) <= contentPreviewLines {
				for _, line := range lines {
					fmt.Fprintf(w, "   %s\n", line)
				}
			} else {
				fmt.Fprintf(w, "   (%d lines of content)\n", len(lines))
			}
		}
	}
}
