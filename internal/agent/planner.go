package agent

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/tmc/langchaingo/llms"

	"github.com/rahul/sahayak/internal/observability"
	"github.com/rahul/sahayak/internal/plan"
)

// ErrBackend marks failures of the model backend: unreachable API,
// malformed response, or a response that does not parse into a plan.
var ErrBackend = errors.New("backend error")

// Planner is the model-client boundary: a task plus optional failure
// context in, a validated plan out. Backend selection happens behind this
// interface, never in the loop.
type Planner interface {
	Propose(ctx context.Context, taskID, task, failureContext string) (*plan.Plan, error)
}

// TranscriptStore is the slice of the session store the planner and loop
// need. GetTranscript is session-wide: it replays earlier tasks of the
// same session too, so follow-up tasks keep their referents.
type TranscriptStore interface {
	AddMessage(taskID string, role string, content string) error
	GetTranscript(limit int) ([]llms.MessageContent, error)
}

// transcriptLimit bounds how much session history is replayed into the
// planning prompt.
const transcriptLimit = 10

// LLMPlanner asks a langchaingo model for a plan and parses the response.
type LLMPlanner struct {
	Model      llms.Model
	Transcript TranscriptStore
	Prompts    *Prompts
	Logger     *observability.Logger
}

func NewLLMPlanner(model llms.Model, transcript TranscriptStore, prompts *Prompts, logger *observability.Logger) *LLMPlanner {
	return &LLMPlanner{
		Model:      model,
		Transcript: transcript,
		Prompts:    prompts,
		Logger:     logger,
	}
}

func (p *LLMPlanner) Propose(ctx context.Context, taskID, task, failureContext string) (*plan.Plan, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(p.Prompts.PlannerPrompt())},
		},
	}

	transcript, err := p.Transcript.GetTranscript(transcriptLimit)
	if err != nil {
		// A broken transcript degrades the prompt, it does not block planning.
		log.Printf("Warning: failed to load transcript: %v", err)
	}
	messages = append(messages, transcript...)

	request := fmt.Sprintf("Current task: %s", task)
	if failureContext != "" {
		request = fmt.Sprintf("%s\n\nThe previous attempt did not succeed:\n%s\nProduce a revised plan that avoids these problems.", request, failureContext)
	}
	messages = append(messages, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(request)},
	})

	resp, err := p.Model.GenerateContent(ctx, messages,
		llms.WithTemperature(0.2),
		llms.WithMaxTokens(4096),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return nil, fmt.Errorf("%w: empty response from model", ErrBackend)
	}

	text := resp.Choices[0].Content
	if p.Logger != nil {
		p.Logger.LogLLM(taskID, request, text)
	}

	proposed, err := plan.Parse(task, text)
	if err != nil {
		// An unparseable plan is a backend problem as far as the loop cares.
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	if err := p.Transcript.AddMessage(taskID, "ai", text); err != nil {
		log.Printf("Warning: failed to record model response: %v", err)
	}

	return proposed, nil
}
