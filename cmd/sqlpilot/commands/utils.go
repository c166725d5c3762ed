// ABOUTME: Shared bootstrap and formatting helpers for CLI commands
// ABOUTME: Builds the orchestrator from config and manages teardown
package commands

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"sqlpilot/internal/agent"
	"sqlpilot/internal/config"
	"sqlpilot/internal/engine"
	"sqlpilot/internal/llm"
	"sqlpilot/internal/storage"
)

// app bundles the orchestrator with everything it needs shut down
type app struct {
	agent  *agent.Orchestrator
	engine *engine.Engine
	store  *storage.Store
	log    zerolog.Logger
}

func (a *app) close() {
	if a.engine != nil {
		_ = a.engine.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}

// bootstrap loads config and wires the orchestrator's collaborators
func bootstrap() (*app, error) {
	// Load .env for API keys and connection settings
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log := newLogger(cfg.LogLevel)

	store, err := storage.Open(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	eng, err := engine.Connect(engine.Config{
		DSN:     cfg.MySQLDSN(),
		Timeout: cfg.EngineTimeout,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("connecting to MySQL: %w", err)
	}

	oracle, err := llm.NewOpenAIClientWithConfig(&llm.ClientConfig{
		APIKey:      cfg.OpenAIKey,
		ChatModel:   cfg.ChatModel,
		Temperature: cfg.Temperature,
		Timeout:     cfg.OracleTimeout,
		MaxRetries:  cfg.MaxRetries,
		RetryDelay:  cfg.RetryDelay,
	})
	if err != nil {
		_ = eng.Close()
		_ = store.Close()
		return nil, fmt.Errorf("creating oracle client: %w", err)
	}

	orch := agent.New(agent.Config{
		Oracle:          oracle,
		Engine:          eng,
		Store:           store,
		Tracer:          agent.NewLogTracer(log),
		Host:            cfg.MySQLHost,
		User:            cfg.MySQLUser,
		RecentWindow:    cfg.RecentWindow,
		MaxHealAttempts: cfg.MaxHealAttempts,
		RefinerEnabled:  cfg.RefinerEnabled,
		Logger:          log,
	})

	return &app{agent: orch, engine: eng, store: store, log: log}, nil
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return string(runes[:maxLen-3]) + "..."
}
