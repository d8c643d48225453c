// AIC orchestrator server. Exposes the run HTTP API, executes LLM
// pipelines, and mirrors run state to the control plane and Redis.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/aic-platform/orchestrator/pkg/api"
	"github.com/aic-platform/orchestrator/pkg/config"
	"github.com/aic-platform/orchestrator/pkg/llm"
	"github.com/aic-platform/orchestrator/pkg/pipeline"
	"github.com/aic-platform/orchestrator/pkg/runs"
	"github.com/aic-platform/orchestrator/pkg/state"
	"github.com/aic-platform/orchestrator/pkg/tools"
	"github.com/aic-platform/orchestrator/pkg/version"
)

const runShutdownTimeout = 30 * time.Second

func main() {
	// Load .env if present
	if err := godotenv.Load(); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment", "error", err)
	} else {
		slog.Info("Loaded environment", "path", ".env")
	}

	// 1. Load configuration
	cfg := config.LoadFromEnv()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})))
	gin.SetMode(gin.ReleaseMode)

	slog.Info("Starting orchestrator",
		"version", version.Full(),
		"port", cfg.Port,
		"api_url", cfg.APIURL)

	ctx := context.Background()

	// 2. Initialize Redis shadow store
	shadow, err := state.NewShadowStore(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to initialize Redis shadow store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shadow.Close(); err != nil {
			slog.Error("Error closing Redis client", "error", err)
		}
	}()

	pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
	if err := shadow.Ping(pingCtx); err != nil {
		// Non-fatal: shadow writes degrade to warnings until Redis returns
		slog.Warn("Redis unreachable, state mirroring degraded", "url", cfg.RedisURL, "error", err)
	} else {
		slog.Info("Connected to Redis")
	}
	pingCancel()

	// 3. Control-plane client and dual state sink
	controlPlane := state.NewControlPlaneClient(cfg.APIURL)
	sink := state.NewDualSink(controlPlane, shadow)

	// 4. Initialize LLM service
	service := llm.NewService(llm.ServiceOptions{
		OpenAIAPIKey:       cfg.OpenAIAPIKey,
		OpenAIModel:        cfg.OpenAIModel,
		OpenAIMaxTokens:    cfg.OpenAIMaxTokens,
		AnthropicAPIKey:    cfg.AnthropicAPIKey,
		AnthropicModel:     cfg.AnthropicModel,
		AnthropicMaxTokens: cfg.AnthropicMaxTokens,
	})

	// 5. Initialize tool registry
	var tavily *tools.TavilyClient
	if cfg.TavilyAPIKey != "" {
		tavily = tools.NewTavilyClient(cfg.TavilyAPIKey)
		slog.Info("Tavily search client initialized")
	} else {
		slog.Warn("TAVILY_API_KEY not set, web search serves fallback results")
	}
	registry := tools.NewRegistry(tavily, service)

	// 6. Build the pipeline engine
	executor := pipeline.NewExecutor(registry, service, nil)
	orchestrator := pipeline.NewOrchestrator(executor, sink)

	// 7. Run manager tracks in-flight executions
	manager := runs.NewManager()

	// 8. Start HTTP server (non-blocking)
	server := api.NewServer(orchestrator, manager, sink, shadow)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		slog.Info("HTTP server listening", "addr", addr)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	slog.Info("Orchestrator started successfully", "port", cfg.Port)

	// 9. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 10. Graceful shutdown: stop accepting requests, then drain runs
	httpShutdownCtx, httpCancel := context.WithTimeout(ctx, 5*time.Second)
	defer httpCancel()
	if err := server.Shutdown(httpShutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	runShutdownCtx, runCancel := context.WithTimeout(ctx, runShutdownTimeout)
	defer runCancel()
	if err := manager.Stop(runShutdownCtx); err != nil {
		slog.Warn("Shutdown timeout exceeded, abandoning unfinished runs", "error", err)
	} else {
		slog.Info("Active runs stopped gracefully")
	}

	slog.Info("Shutdown complete")
}
