package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/rahul/sahayak/internal/executor"
	"github.com/rahul/sahayak/internal/observability"
	"github.com/rahul/sahayak/internal/plan"
)

// ErrNoAnswer reports that a prompt hit its wait bound. Callers treat it
// as a rejection so an unattended terminal can never hang the loop.
var ErrNoAnswer = errors.New("no answer from user")

// prompter is the line-input dependency; satisfied by *liner.State.
type prompter interface {
	Prompt(prompt string) (string, error)
}

type promptReq struct {
	prompt string
	seq    uint64
}

type promptAns struct {
	text string
	err  error
	seq  uint64
}

// Console is the interactive terminal gateway. All prompts go through a
// single reader goroutine: liner supports only one Prompt at a time, and
// the sequence numbers let a timed-out prompt's late answer be discarded
// instead of being misread as the answer to the next prompt.
type Console struct {
	line    *liner.State
	reader  prompter
	timeout time.Duration
	reqs    chan promptReq
	answers chan promptAns
	seq     uint64
}

func NewConsole(answerTimeout time.Duration) *Console {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	c := newConsoleWith(line, answerTimeout)
	c.line = line
	return c
}

func newConsoleWith(reader prompter, answerTimeout time.Duration) *Console {
	c := &Console{
		reader:  reader,
		timeout: answerTimeout,
		reqs:    make(chan promptReq, 4),
		answers: make(chan promptAns, 4),
	}
	go c.serve()
	return c
}

func (c *Console) serve() {
	for req := range c.reqs {
		text, err := c.reader.Prompt(req.prompt)
		c.answers <- promptAns{text: text, err: err, seq: req.seq}
	}
}

func (c *Console) Close() error {
	close(c.reqs)
	if c.line != nil {
		return c.line.Close()
	}
	return nil
}

func (c *Console) Notify(text string) {
	fmt.Println(text)
}

// request issues one prompt and waits for its answer. bounded prompts give
// up after the configured timeout; the pending answer is then discarded by
// seq when it eventually arrives.
func (c *Console) request(ctx context.Context, prompt string, bounded bool) (string, error) {
	for drained := false; !drained; {
		select {
		case <-c.answers:
		default:
			drained = true
		}
	}

	c.seq++
	seq := c.seq
	c.reqs <- promptReq{prompt: prompt, seq: seq}

	var timeout <-chan time.Time
	if bounded {
		timer := time.NewTimer(c.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	for {
		select {
		case a := <-c.answers:
			if a.seq != seq {
				continue
			}
			if a.err != nil {
				return "", a.err
			}
			return strings.TrimSpace(a.text), nil
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timeout:
			return "", ErrNoAnswer
		}
	}
}

// ask is request with the liner/EOF errors folded into ErrNoAnswer.
func (c *Console) ask(ctx context.Context, prompt string) (string, error) {
	text, err := c.request(ctx, prompt, true)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return "", ErrNoAnswer
		}
		return "", err
	}
	return text, nil
}

// NextTask blocks until the user types a task. There is no wait bound on
// task intake; an idle prompt is the resting state of the program.
func (c *Console) NextTask() (string, bool) {
	for {
		text, err := c.request(context.Background(), observability.ColorCyan+"task> "+observability.ColorReset, false)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Println()
				return "", false
			}
			fmt.Fprintf(os.Stderr, "input error: %v\n", err)
			return "", false
		}

		if text == "" {
			continue
		}
		if strings.EqualFold(text, "exit") {
			return "", false
		}
		if c.line != nil {
			c.line.AppendHistory(text)
		}
		return text, true
	}
}

func (c *Console) Approve(ctx context.Context, p *plan.Plan) (Decision, error) {
	fmt.Println(observability.ColorMag + "\nProposed plan:" + observability.ColorReset)
	p.Render(os.Stdout)

	answer, err := c.ask(ctx, observability.ColorYellow+"\nExecute this plan? (y/n/r): "+observability.ColorReset)
	if err != nil {
		if errors.Is(err, ErrNoAnswer) {
			c.Notify(observability.ColorRed + "No answer; treating the plan as rejected." + observability.ColorReset)
			return Rejected, nil
		}
		return Rejected, err
	}

	switch strings.ToLower(answer) {
	case "y", "yes":
		return Approved, nil
	case "r":
		return Replan, nil
	default:
		return Rejected, nil
	}
}

func (c *Console) Verify(ctx context.Context, res *executor.Result) (bool, string, error) {
	c.showResult(res)

	answer, err := c.ask(ctx, observability.ColorYellow+"Did this complete your task successfully? (y/n): "+observability.ColorReset)
	if err != nil {
		if errors.Is(err, ErrNoAnswer) {
			c.Notify(observability.ColorRed + "No answer; treating the task as not done." + observability.ColorReset)
			return false, "", nil
		}
		return false, "", err
	}

	if strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes") {
		return true, "", nil
	}

	feedback, err := c.ask(ctx, observability.ColorYellow+"What issues did you encounter? "+observability.ColorReset)
	if err != nil {
		if errors.Is(err, ErrNoAnswer) {
			return false, "", nil
		}
		return false, "", err
	}
	return false, feedback, nil
}

func (c *Console) showResult(res *executor.Result) {
	if res.Succeeded {
		fmt.Println(observability.ColorGreen + "\nAll steps completed." + observability.ColorReset)
	} else {
		fmt.Println(observability.ColorRed + "\nExecution stopped." + observability.ColorReset)
	}
	for i, o := range res.Outcomes {
		mark := observability.ColorGreen + "ok " + observability.ColorReset
		if o.Status == executor.StatusFailed {
			mark = observability.ColorRed + "FAIL" + observability.ColorReset
		}
		fmt.Printf("  [%s] %d. %s\n", mark, i+1, o.Step)
		if o.Status == executor.StatusFailed && o.Detail != "" {
			fmt.Printf("        %s\n", strings.ReplaceAll(o.Detail, "\n", "\n        "))
		}
	}
}
