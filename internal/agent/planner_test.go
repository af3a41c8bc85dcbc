package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tmc/langchaingo/llms"

	"github.com/rahul/sahayak/internal/plan"
)

// fakeModel plays back one canned completion and records the prompt.
type fakeModel struct {
	response string
	err      error
	lastMsgs []llms.MessageContent
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.lastMsgs = messages
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.response}},
	}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func newTestPlanner(model llms.Model) (*LLMPlanner, *fakeTranscript) {
	transcript := &fakeTranscript{}
	return NewLLMPlanner(model, transcript, NewPrompts("does-not-exist"), nil), transcript
}

func TestPropose_ParsesModelOutput(t *testing.T) {
	model := &fakeModel{response: "FILE: out.txt\n```\nHELLO\n```\n\nCOMMAND: cat out.txt\n"}
	planner, transcript := newTestPlanner(model)

	p, err := planner.Propose(context.Background(), "task-1", "create out.txt", "")
	if err != nil {
		t.Fatalf("Propose failed: %v", err)
	}
	if len(p.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(p.Steps))
	}
	if p.Steps[0].Kind != plan.WriteFile || p.Steps[0].Content != "HELLO" {
		t.Errorf("unexpected first step: %+v", p.Steps[0])
	}

	// Model response lands in the transcript for later planning rounds.
	found := false
	for _, m := range transcript.messages {
		if strings.HasPrefix(m, "ai: FILE: out.txt") {
			found = true
		}
	}
	if !found {
		t.Errorf("model response not recorded: %v", transcript.messages)
	}
}

func TestPropose_FailureContextReachesPrompt(t *testing.T) {
	model := &fakeModel{response: "COMMAND: echo retry\n"}
	planner, _ := newTestPlanner(model)

	_, err := planner.Propose(context.Background(), "task-1", "do thing", "Step 1 failed.\nexit 2")
	if err != nil {
		t.Fatalf("Propose failed: %v", err)
	}

	last := model.lastMsgs[len(model.lastMsgs)-1]
	text := last.Parts[0].(llms.TextContent).Text
	if !strings.Contains(text, "exit 2") {
		t.Errorf("failure context missing from prompt: %q", text)
	}
	if !strings.Contains(text, "do thing") {
		t.Errorf("task missing from prompt: %q", text)
	}

	system := model.lastMsgs[0]
	if system.Role != llms.ChatMessageTypeSystem {
		t.Errorf("first message should be the system prompt, got %s", system.Role)
	}
}

func TestPropose_SessionTranscriptReachesPrompt(t *testing.T) {
	model := &fakeModel{response: "COMMAND: python greet.py\n"}
	transcript := &fakeTranscript{canned: []llms.MessageContent{
		{Role: llms.ChatMessageTypeHuman, Parts: []llms.ContentPart{llms.TextPart("create greet.py")}},
		{Role: llms.ChatMessageTypeAI, Parts: []llms.ContentPart{llms.TextPart("Task completed successfully.")}},
	}}
	planner := NewLLMPlanner(model, transcript, NewPrompts("does-not-exist"), nil)

	_, err := planner.Propose(context.Background(), "task-2", "now run the file you created", "")
	if err != nil {
		t.Fatalf("Propose failed: %v", err)
	}

	// Prior tasks' exchanges must be replayed between the system prompt and
	// the current request so follow-up tasks keep their referents.
	if len(model.lastMsgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(model.lastMsgs))
	}
	earlier := model.lastMsgs[1].Parts[0].(llms.TextContent).Text
	if earlier != "create greet.py" {
		t.Errorf("earlier task missing from prompt, got %q", earlier)
	}
}

func TestPropose_BackendFailure(t *testing.T) {
	model := &fakeModel{err: errors.New("connection refused")}
	planner, _ := newTestPlanner(model)

	_, err := planner.Propose(context.Background(), "task-1", "t", "")
	if !errors.Is(err, ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
}

func TestPropose_UnparseableResponseIsBackendError(t *testing.T) {
	model := &fakeModel{response: "Sorry, I cannot do that."}
	planner, _ := newTestPlanner(model)

	_, err := planner.Propose(context.Background(), "task-1", "t", "")
	if !errors.Is(err, ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
}

func TestPropose_EmptyResponseIsBackendError(t *testing.T) {
	model := &fakeModel{response: ""}
	planner, _ := newTestPlanner(model)

	_, err := planner.Propose(context.Background(), "task-1", "t", "")
	if !errors.Is(err, ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
}

func TestPrompts_FallbackCarriesFormatMarkers(t *testing.T) {
	pm := NewPrompts("no-such-dir")
	prompt := pm.PlannerPrompt()
	for _, want := range []string{"FILE:", "COMMAND:"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("default prompt missing %q", want)
		}
	}
}
