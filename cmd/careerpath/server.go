package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/careerpath/internal/advisor"
	"github.com/kalambet/careerpath/internal/api"
	"github.com/kalambet/careerpath/internal/config"
	"github.com/kalambet/careerpath/internal/identity"
	"github.com/kalambet/careerpath/internal/roadmap"
	"github.com/kalambet/careerpath/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the careerpath server (foreground)",
	Long: `Run the careerpath server in the foreground.

By default the JSON API listens on 127.0.0.1:<server.port>. With --mcp the
process instead serves the MCP tools and resources over stdio, acting as the
configured identity.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mcpMode, _ := cmd.Flags().GetBool("mcp")
		if mcpMode {
			return runMCP()
		}
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running careerpath server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show careerpath server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a bearer token for the API",
	Long: `Print a bearer token signed with auth.jwt_secret.

Examples:
  careerpath token
  careerpath token --user alice --email alice@example.com --ttl 24h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		user, _ := cmd.Flags().GetString("user")
		email, _ := cmd.Flags().GetString("email")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if user == "" {
			user = cfg.Identity.UserID
		}
		if email == "" {
			email = cfg.Identity.Email
		}
		if !cmd.Flags().Changed("ttl") {
			ttl = cfg.Auth.TokenTTL
		}

		token, err := mintToken(cfg, identity.Identity{ID: user, Email: email}, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	serveCmd.Flags().Bool("mcp", false, "serve MCP over stdio instead of HTTP")
	tokenCmd.Flags().String("user", "", "user id (default: identity.user_id)")
	tokenCmd.Flags().String("email", "", "email claim (default: identity.email)")
	tokenCmd.Flags().Duration("ttl", 0, "token lifetime, 0 for no expiry (default: auth.token_ttl)")
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "careerpath.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func setupLogging(level string) {
	logLevel := slog.LevelInfo
	if strings.EqualFold(level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

func openStore(cfg config.Config) (*storage.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		return storage.OpenPostgres(cfg.Storage.DatabaseURL)
	default:
		return storage.Open(cfg.Storage.DataDir)
	}
}

func newAdvisor(cfg config.Config) *advisor.Advisor {
	return advisor.New(advisor.WithDelay(cfg.Advisor.MinDelay, cfg.Advisor.MaxDelay))
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "careerpath version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)

	// Refuse to start twice.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("careerpath is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("careerpath is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()
	slog.Info("storage ready", "driver", cfg.Storage.Driver)

	signer, err := identity.NewSigner(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	handler := api.NewAppHandler(api.AppDeps{
		Store:       store,
		Signer:      signer,
		Advisor:     newAdvisor(cfg),
		CORSOrigins: cfg.Server.AllowedOrigins(),
		Logger:      slog.Default(),
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "careerpath listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// runMCP serves the MCP surface on stdio. Stdout belongs to the protocol, so
// everything else goes to stderr.
func runMCP() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Store:    store,
		Identity: identity.Identity{ID: cfg.Identity.UserID, Email: cfg.Identity.Email},
		Advisor:  newAdvisor(cfg),
		Logger:   slog.Default(),
	})
	slog.Info("MCP server started (stdio transport)", "user", cfg.Identity.UserID)

	stdioSrv := server.NewStdioServer(mcpSrv)
	if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP stdio server: %w", err)
	}
	return nil
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("careerpath is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop careerpath (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to careerpath (PID %d)", pid)
	return nil
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port))
	running := false
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			running = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("User", "%s", cfg.Identity.UserID)
	printStatus("Storage", "%s", cfg.Storage.Driver)
	if cfg.Storage.Driver == config.DriverSQLite {
		printStatus("Data dir", "%s", cfg.Storage.DataDir)
	}

	if !running {
		return nil
	}
	c, err := newAPIClient()
	if err != nil {
		return nil
	}
	var d roadmap.Dashboard
	dresp, err := c.get(ctx, "/dashboard")
	if err != nil || decodeJSON(dresp, &d) != nil {
		return nil
	}
	printStatus("Profile", "%d%% complete", d.ProfileCompletion)
	printStatus("Skills", "%d tracked, %d%% average mastery", d.SkillCount, d.AverageMastery)
	return nil
}
