package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/rahul/sahayak/internal/agent"
	"github.com/rahul/sahayak/internal/executor"
	"github.com/rahul/sahayak/internal/gateway"
	"github.com/rahul/sahayak/internal/observability"
	"github.com/rahul/sahayak/internal/store"
	"github.com/rahul/sahayak/pkg/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.LoadConfig("config.json")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pName, pCfg := cfg.GetDefaultProvider()
	if pName == "" {
		log.Println("No enabled provider found; set one in config.json or export GEMINI_API_KEY, OPENAI_API_KEY or ANTHROPIC_API_KEY")
		return 1
	}

	llm, err := newModel(ctx, pName, pCfg)
	if err != nil {
		log.Printf("Failed to initialize provider %s: %v", pName, err)
		return 1
	}

	transcript, err := store.NewTranscriptStore(cfg.Memory.Path)
	if err != nil {
		log.Printf("Failed to open transcript store: %v", err)
		return 1
	}
	defer transcript.Close()

	logger := observability.NewLogger()
	prompts := agent.NewPrompts("./prompts")
	planner := agent.NewLLMPlanner(llm, transcript, prompts, logger)
	exec := executor.New(cfg.App.Workspace,
		time.Duration(cfg.Agent.CommandTimeoutSeconds)*time.Second)
	console := gateway.NewConsole(
		time.Duration(cfg.Agent.ApprovalTimeoutSeconds) * time.Second)
	defer console.Close()

	loop := agent.NewLoop(planner, exec, console, transcript, logger, cfg.Agent.MaxAttempts)

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.Heartbeat()
				phase, task, _ := observability.GetStatus()
				logger.LogHeartbeat(string(phase), task, observability.Uptime())
			}
		}
	}()

	// One-shot mode: task on the command line, single loop run.
	if len(os.Args) > 1 {
		rep := loop.Run(ctx, strings.Join(os.Args[1:], " "))
		console.Notify(rep.String())
		if rep.State != agent.StateDone {
			return 1
		}
		return 0
	}

	observability.PrintBanner(pName)
	for {
		task, ok := console.NextTask()
		if !ok || ctx.Err() != nil {
			break
		}
		rep := loop.Run(ctx, task)
		console.Notify(rep.String())
	}

	return 0
}

// newModel builds the configured langchaingo backend. All providers are
// used through the shared llms.Model interface; nothing downstream knows
// which one is active.
func newModel(ctx context.Context, name string, pCfg config.ProviderConfig) (llms.Model, error) {
	switch name {
	case "openai", "openrouter":
		opts := []openai.Option{
			openai.WithToken(pCfg.APIKey),
			openai.WithModel(pCfg.Model),
		}
		if pCfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(pCfg.BaseURL))
		}
		return openai.New(opts...)
	case "anthropic":
		return anthropic.New(
			anthropic.WithToken(pCfg.APIKey),
			anthropic.WithModel(pCfg.Model),
		)
	case "gemini":
		return googleai.New(ctx,
			googleai.WithAPIKey(pCfg.APIKey),
			googleai.WithDefaultModel(pCfg.Model),
		)
	default:
		return nil, fmt.Errorf("provider %s is not supported", name)
	}
}
