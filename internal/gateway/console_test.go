package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rahul/sahayak/internal/executor"
	"github.com/rahul/sahayak/internal/plan"
)

// chanPrompter blocks each Prompt call until an answer is fed in, standing
// in for a user at a terminal.
type chanPrompter struct {
	answers chan string
}

func (p *chanPrompter) Prompt(prompt string) (string, error) {
	return <-p.answers, nil
}

func newTestConsole(t *testing.T, timeout time.Duration) (*Console, *chanPrompter) {
	t.Helper()
	p := &chanPrompter{answers: make(chan string, 4)}
	c := newConsoleWith(p, timeout)
	t.Cleanup(func() {
		// Unblock a pending Prompt so the reader goroutine can exit.
		select {
		case p.answers <- "":
		default:
		}
		c.Close()
	})
	return c, p
}

func TestAsk_TimeoutThenLateAnswerDiscarded(t *testing.T) {
	c, p := newTestConsole(t, 30*time.Millisecond)
	ctx := context.Background()

	// Nobody answers: the bounded prompt gives up.
	if _, err := c.ask(ctx, "? "); !errors.Is(err, ErrNoAnswer) {
		t.Fatalf("expected ErrNoAnswer, got %v", err)
	}

	// The stale answer finally arrives, then the answer to the next prompt.
	p.answers <- "stale"
	p.answers <- "fresh"

	got, err := c.ask(ctx, "? ")
	if err != nil {
		t.Fatalf("second ask failed: %v", err)
	}
	if got != "fresh" {
		t.Errorf("second ask consumed the stale answer: got %q", got)
	}
}

func TestApprove_TimeoutRejects(t *testing.T) {
	c, _ := newTestConsole(t, 20*time.Millisecond)

	p := plan.New("t", []plan.Step{{Kind: plan.RunCommand, Target: "ls"}})
	d, err := c.Approve(context.Background(), p)
	if err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}
	if d != Rejected {
		t.Errorf("unanswered approval = %s, want %s", d, Rejected)
	}
}

func TestApprove_Decisions(t *testing.T) {
	c, p := newTestConsole(t, time.Second)
	pl := plan.New("t", []plan.Step{{Kind: plan.RunCommand, Target: "ls"}})

	cases := []struct {
		answer string
		want   Decision
	}{
		{"y", Approved},
		{"Yes", Approved},
		{"r", Replan},
		{"n", Rejected},
		{"whatever", Rejected},
	}
	for _, tc := range cases {
		p.answers <- tc.answer
		d, err := c.Approve(context.Background(), pl)
		if err != nil {
			t.Fatalf("%q: %v", tc.answer, err)
		}
		if d != tc.want {
			t.Errorf("%q -> %s, want %s", tc.answer, d, tc.want)
		}
	}
}

func TestVerify_TimeoutNotConfirmed(t *testing.T) {
	c, _ := newTestConsole(t, 20*time.Millisecond)

	res := &executor.Result{Succeeded: true}
	confirmed, feedback, err := c.Verify(context.Background(), res)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if confirmed || feedback != "" {
		t.Errorf("unanswered verification = (%v, %q)", confirmed, feedback)
	}
}

func TestVerify_FeedbackOnNo(t *testing.T) {
	c, p := newTestConsole(t, time.Second)
	p.answers <- "n"
	p.answers <- "wrong filename"

	res := &executor.Result{Succeeded: true}
	confirmed, feedback, err := c.Verify(context.Background(), res)
	if err != nil {
		t.Fatal(err)
	}
	if confirmed {
		t.Error("answered no but confirmed")
	}
	if feedback != "wrong filename" {
		t.Errorf("feedback = %q", feedback)
	}
}

func TestNextTask_SkipsBlankAndStopsOnExit(t *testing.T) {
	c, p := newTestConsole(t, time.Second)

	p.answers <- "   "
	p.answers <- "create out.txt"
	task, ok := c.NextTask()
	if !ok || task != "create out.txt" {
		t.Fatalf("NextTask = (%q, %v)", task, ok)
	}

	p.answers <- "exit"
	if _, ok := c.NextTask(); ok {
		t.Error("exit should end the session")
	}
}
