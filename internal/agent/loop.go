package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/rahul/sahayak/internal/executor"
	"github.com/rahul/sahayak/internal/gateway"
	"github.com/rahul/sahayak/internal/observability"
	"github.com/rahul/sahayak/internal/plan"
)

// State names the positions of the re-plan loop. Done and Abandoned are
// terminal.
type State string

const (
	StateAwaitingPlan         State = "awaiting_plan"
	StateAwaitingApproval     State = "awaiting_approval"
	StateExecuting            State = "executing"
	StateAwaitingVerification State = "awaiting_verification"
	StateDone                 State = "done"
	StateAbandoned            State = "abandoned"
)

// Runner applies an approved plan. Satisfied by *executor.Executor and by
// fakes in tests.
type Runner interface {
	Apply(ctx context.Context, p *plan.Plan) *executor.Result
}

// Report is the terminal outcome of one task's loop.
type Report struct {
	TaskID         string
	State          State
	Reason         string
	Attempts       int
	FailureContext string
}

func (r *Report) String() string {
	switch r.State {
	case StateDone:
		return fmt.Sprintf("Task done after %d attempt(s).", r.Attempts)
	default:
		return fmt.Sprintf("Task abandoned after %d attempt(s): %s", r.Attempts, r.Reason)
	}
}

// Loop drives one task from description to a terminal state: plan,
// approve, execute, verify, and re-plan on reported failure. One Loop may
// run many tasks, but only ever one at a time; concurrent tasks get their
// own Loop and share nothing.
type Loop struct {
	Planner     Planner
	Runner      Runner
	Gateway     gateway.Gateway
	Transcript  TranscriptStore
	Logger      *observability.Logger
	MaxAttempts int
}

func NewLoop(planner Planner, runner Runner, gw gateway.Gateway, transcript TranscriptStore, logger *observability.Logger, maxAttempts int) *Loop {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Loop{
		Planner:     planner,
		Runner:      runner,
		Gateway:     gw,
		Transcript:  transcript,
		Logger:      logger,
		MaxAttempts: maxAttempts,
	}
}

// Run executes the state machine for one task and always returns a
// terminal report. MaxAttempts caps the number of Planner calls for this
// task, counting both failure-driven re-plans and user-requested
// regenerations.
func (l *Loop) Run(ctx context.Context, task string) *Report {
	taskID := uuid.NewString()
	if err := l.Transcript.AddMessage(taskID, "human", task); err != nil {
		log.Printf("Warning: failed to record task: %v", err)
	}

	rep := &Report{TaskID: taskID, State: StateAwaitingPlan}
	defer func() {
		observability.SetStatus(observability.PhaseIdle, "")
		if l.Logger != nil {
			l.Logger.LogOutcome(taskID, string(rep.State), rep.Reason, rep.Attempts)
		}
	}()

	var (
		current        *plan.Plan
		result         *executor.Result
		failureContext strings.Builder
	)

	for {
		if err := ctx.Err(); err != nil {
			return l.abandon(rep, &failureContext, fmt.Sprintf("canceled: %v", err))
		}

		switch rep.State {
		case StateAwaitingPlan:
			if rep.Attempts >= l.MaxAttempts {
				return l.abandon(rep, &failureContext,
					fmt.Sprintf("retry limit of %d attempts reached", l.MaxAttempts))
			}
			rep.Attempts++
			observability.SetStatus(observability.PhasePlanning, task)
			l.Gateway.Notify("Generating plan...")

			p, err := l.Planner.Propose(ctx, taskID, task, failureContext.String())
			if err != nil {
				if l.Logger != nil {
					l.Logger.LogBackend(taskID, err.Error())
				}
				return l.abandon(rep, &failureContext, err.Error())
			}
			current = p
			if l.Logger != nil {
				l.Logger.LogPlan(taskID, rep.Attempts, len(current.Steps))
			}
			rep.State = StateAwaitingApproval

		case StateAwaitingApproval:
			observability.SetStatus(observability.PhaseAwaitingUser, task)
			decision, err := l.Gateway.Approve(ctx, current)
			if err != nil {
				return l.abandon(rep, &failureContext, fmt.Sprintf("approval failed: %v", err))
			}
			if l.Logger != nil {
				l.Logger.LogApproval(taskID, string(decision))
			}
			switch decision {
			case gateway.Approved:
				rep.State = StateExecuting
			case gateway.Replan:
				rep.State = StateAwaitingPlan
			default:
				return l.abandon(rep, &failureContext, "plan rejected by user")
			}

		case StateExecuting:
			observability.SetStatus(observability.PhaseExecuting, task)
			result = l.Runner.Apply(ctx, current)
			if l.Logger != nil {
				for _, o := range result.Outcomes {
					l.Logger.LogStep(taskID, o.Step.String(), string(o.Status))
				}
			}
			rep.State = StateAwaitingVerification

		case StateAwaitingVerification:
			observability.SetStatus(observability.PhaseAwaitingUser, task)
			confirmed, feedback, err := l.Gateway.Verify(ctx, result)
			if err != nil {
				return l.abandon(rep, &failureContext, fmt.Sprintf("verification failed: %v", err))
			}
			if l.Logger != nil {
				l.Logger.LogVerification(taskID, confirmed)
			}
			if confirmed {
				// The next task's prompt reads this to know the prior
				// task actually worked.
				if err := l.Transcript.AddMessage(taskID, "ai", "Task completed successfully."); err != nil {
					log.Printf("Warning: failed to record completion: %v", err)
				}
				rep.State = StateDone
				rep.Reason = "confirmed by user"
				return rep
			}

			if fc := result.FailureContext(); fc != "" {
				failureContext.WriteString(fc)
			}
			if feedback != "" {
				fmt.Fprintf(&failureContext, "User reported: %s\n", feedback)
			}
			if err := l.Transcript.AddMessage(taskID, "human",
				fmt.Sprintf("The executed plan did not solve the task. %s", feedback)); err != nil {
				log.Printf("Warning: failed to record verdict: %v", err)
			}
			rep.State = StateAwaitingPlan
		}
	}
}

func (l *Loop) abandon(rep *Report, failureContext *strings.Builder, reason string) *Report {
	rep.State = StateAbandoned
	rep.Reason = reason
	rep.FailureContext = failureContext.String()
	return rep
}
