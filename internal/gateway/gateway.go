package gateway

import (
	"context"

	"github.com/rahul/sahayak/internal/executor"
	"github.com/rahul/sahayak/internal/plan"
)

// Decision is the user's answer at the approval gate.
type Decision string

const (
	// Rejected abandons the task without side effects.
	Rejected Decision = "rejected"
	// Approved hands the plan to the executor.
	Approved Decision = "approved"
	// Replan asks the model for a fresh plan without executing anything.
	Replan Decision = "replan"
)

// Gateway defines the interface for the user-facing surface (console,
// editor, chat bot). The agent loop blocks on these calls; implementations
// decide how long an unanswered prompt may hang.
type Gateway interface {
	// NextTask blocks for the next task description. ok is false when the
	// session is over.
	NextTask() (task string, ok bool)
	// Approve presents the plan and obtains a decision. No response within
	// the implementation's bound must come back as Rejected.
	Approve(ctx context.Context, p *plan.Plan) (Decision, error)
	// Verify asks whether the executed result actually solved the task.
	// When not confirmed, feedback carries the user's description of what
	// went wrong (may be empty).
	Verify(ctx context.Context, res *executor.Result) (confirmed bool, feedback string, err error)
	// Notify sends informational text to the user.
	Notify(text string)
	// Close releases the surface.
	Close() error
}
