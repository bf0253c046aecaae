package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	"github.com/kalambet/jobassist/internal/api"
	"github.com/kalambet/jobassist/internal/assistant"
	"github.com/kalambet/jobassist/internal/config"
	"github.com/kalambet/jobassist/internal/engine"
	"github.com/kalambet/jobassist/internal/proxy"
	"github.com/kalambet/jobassist/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the embedding worker (foreground)",
	Long: `Run the HTTP API and the embedding worker in the foreground.

With --mcp the assistant tools are also served over MCP on stdin/stdout,
acting as the user given by --user and --role.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		withMCP, _ := cmd.Flags().GetBool("mcp")
		user, _ := cmd.Flags().GetString("user")
		role, _ := cmd.Flags().GetString("role")
		return runServer(withMCP, assistant.Subject{ID: user, Role: role})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show jobassist system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().Bool("mcp", false, "also serve MCP tools over stdio")
	serveCmd.Flags().String("user", "local", "user id for MCP calls")
	serveCmd.Flags().String("role", storage.RoleApplicant, "account role for MCP calls")
}

func runServer(withMCP bool, mcpSubject assistant.Subject) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("starting jobassist", zap.String("version", version))

	token, err := config.APIToken(cfg)
	if err != nil {
		return fmt.Errorf("initializing API token: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, log, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	handler := api.NewHandler(api.Deps{
		Assistant: a.assistant,
		Matcher:   a.matcher,
		Catalog:   a.catalog,
		History:   a.store,
		Token:     token,
		Logger:    log,
	})
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Server.Addr(), err)
	}
	ln = netutil.LimitListener(ln, cfg.Server.MaxConns)

	go a.worker.Run(ctx)

	if withMCP {
		mcpSrv := api.NewMCPServer(api.MCPDeps{
			Assistant: a.assistant,
			Matcher:   a.matcher,
			Jobs:      a.store,
			Subject:   mcpSubject,
			Version:   version,
			Logger:    log,
		})
		stdioSrv := server.NewStdioServer(mcpSrv)
		stdioSrv.SetErrorLogger(zap.NewStdLog(log))
		go func() {
			if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("MCP stdio server error", zap.Error(err))
			}
		}()
		log.Info("MCP server started (stdio transport)", zap.String("subject", mcpSubject.ID))
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("jobassist listening",
			zap.String("addr", ln.Addr().String()),
			zap.String("completer", a.backends.Completer.Name()),
			zap.Int("max_conns", cfg.Server.MaxConns),
		)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func showStatus(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	client := &http.Client{Timeout: 2 * time.Second}
	if serverRunning(ctx, client, "http://"+cfg.Server.Addr()+"/health") {
		printStatus("Server", "running on %s", cfg.Server.Addr())
	} else {
		printStatus("Server", "stopped")
	}

	completion := cfg.Provider.Completion
	embed := cfg.Provider.Embedding
	if embed == "" {
		embed = completion
		if completion == engine.ProviderOpenRouter {
			embed = engine.ProviderOllama
		}
	}
	printStatus("Completion", "%s", completionModel(completion, cfg))
	printStatus("Embedding", "%s", embeddingModel(embed, cfg))

	if completion == engine.ProviderOllama || embed == engine.ProviderOllama {
		if serverRunning(ctx, client, cfg.Ollama.BaseURL+"/api/version") {
			printStatus("Ollama", "running at %s", cfg.Ollama.BaseURL)
		} else {
			printStatus("Ollama", "not running")
		}
	}

	if completion == engine.ProviderOpenRouter {
		printStatus("OpenRouter", "%s", openRouterStatus(ctx, cfg))
	}

	printStatus("Rate limit", "%d requests, refill %d per %s", cfg.RateLimit.Capacity, cfg.RateLimit.Refill, cfg.RateLimit.Interval)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}

func openRouterStatus(ctx context.Context, cfg config.Config) string {
	if cfg.OpenRouter.APIKey == "" {
		return "no API key configured"
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ok, err := proxy.NewClient(cfg.OpenRouter.APIKey).HasModel(ctx, cfg.OpenRouter.Model)
	switch {
	case err != nil:
		return "unreachable (" + err.Error() + ")"
	case !ok:
		return cfg.OpenRouter.Model + " is not served"
	default:
		return cfg.OpenRouter.Model + " available"
	}
}

func completionModel(provider string, cfg config.Config) string {
	switch provider {
	case engine.ProviderGemini:
		return provider + "/" + cfg.Gemini.Model
	case engine.ProviderOpenRouter:
		return provider + "/" + cfg.OpenRouter.Model
	default:
		return provider + "/" + cfg.Ollama.Model
	}
}

func embeddingModel(provider string, cfg config.Config) string {
	if provider == engine.ProviderGemini {
		return provider + "/" + cfg.Gemini.EmbedModel
	}
	return provider + "/" + cfg.Ollama.EmbedModel
}

func serverRunning(ctx context.Context, client *http.Client, url string) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
