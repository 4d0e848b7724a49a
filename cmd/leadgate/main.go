// ABOUTME: Entry point for the leadgate conversation engine
// ABOUTME: Wires config, store, memory, routing and the operator HTTP API

package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/orbita-hq/leadgate/internal/auth"
	"github.com/orbita-hq/leadgate/internal/capability"
	"github.com/orbita-hq/leadgate/internal/completion"
	"github.com/orbita-hq/leadgate/internal/config"
	"github.com/orbita-hq/leadgate/internal/estimate"
	"github.com/orbita-hq/leadgate/internal/intent"
	"github.com/orbita-hq/leadgate/internal/memory"
	"github.com/orbita-hq/leadgate/internal/operator"
	"github.com/orbita-hq/leadgate/internal/orchestrator"
	"github.com/orbita-hq/leadgate/internal/session"
	"github.com/orbita-hq/leadgate/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _                _             _
| | ___  __ _  __| | __ _  __ _| |_ ___
| |/ _ \/ _' |/ _' |/ _' |/ _' | __/ _ \
| |  __/ (_| | (_| | (_| | (_| | ||  __/
|_|\___|\__,_|\__,_|\__, |\__,_|\__\___|
                    |___/
`

// getConfigPath returns the path to the leadgate config file.
// Priority: LEADGATE_CONFIG env var > XDG_CONFIG_HOME/leadgate/leadgate.yaml > ~/.config/leadgate/leadgate.yaml
func getConfigPath() string {
	if envPath := os.Getenv("LEADGATE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "leadgate.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "leadgate", "leadgate.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: leadgate <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve                   Start the conversation engine")
		fmt.Println("  init                    Create a starter config file")
		fmt.Println("  token --operator NAME   Generate an operator API token")
		fmt.Println("  health                  Check engine health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "token":
		err = runToken()
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)

	cyan.Print(banner)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green.Print("    ▶ ")
	fmt.Printf("Config:     %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:       %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database:   %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("Completion: %s\n", cfg.Completion.BaseURL)
	fmt.Println()

	logger.Info("starting leadgate",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
	)

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	gate := session.NewGate(st, logger)
	if err := gate.Hydrate(ctx); err != nil {
		return fmt.Errorf("hydrating session gate: %w", err)
	}

	mem := memory.New(memory.Options{
		MaxTurns:      cfg.Memory.MaxTurns,
		Retention:     cfg.Memory.Retention,
		SweepInterval: cfg.Memory.SweepInterval,
		Logger:        logger,
	})
	defer mem.Close()

	client := completion.NewClient(cfg.Completion, logger)
	router := intent.NewRouter(client, logger)
	engine := estimate.NewEngine(cfg.Estimation.Currency)

	registry := capability.NewRegistry(
		capability.NewConversacional(client, cfg.Company, logger),
		capability.NewCaptador(client, st, mem, cfg.Company, logger),
		capability.NewIdentidad(client, cfg.Company, logger),
		capability.NewAnalitico(st, logger),
	)

	orch := orchestrator.New(orchestrator.Options{
		Gate:         gate,
		Memory:       mem,
		Classifier:   router,
		Registry:     registry,
		Engine:       engine,
		Recorder:     st,
		ContextTurns: cfg.Memory.ContextTurns,
		Logger:       logger,
	})

	verifier := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	api := operator.NewAPI(gate, mem, orch, logger)

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           api.Handler(verifier),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

const starterConfig = `server:
  http_addr: ":8080"

database:
  path: "%s"

auth:
  jwt_secret: "%s"

completion:
  base_url: "https://api.groq.com/openai/v1"
  api_key: "${GROQ_API_KEY}"
  default_model: "llama-3.1-8b-instant"
  models:
    orchestrator: "llama-3.3-70b-versatile"
    captador: "llama-3.3-70b-versatile"
  timeout: "8s"

memory:
  max_turns: 100
  context_turns: 10
  retention: "24h"
  sweep_interval: "1h"

estimation:
  currency: "USD"

company:
  name: "Orbita"
  description: "estudio de desarrollo de software y servicios digitales"

logging:
  level: "info"
  format: "text"
`

// runInit writes a starter config with a random JWT secret. It never
// overwrites an existing file.
func runInit() error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists at %s", configPath)
	}

	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return fmt.Errorf("generating JWT secret: %w", err)
	}
	secret := base64.StdEncoding.EncodeToString(secretBytes)

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			dataDir = "data"
		} else {
			dataDir = filepath.Join(homeDir, ".local", "share")
		}
	}
	dbPath := filepath.Join(dataDir, "leadgate", "leadgate.db")

	content := fmt.Sprintf(starterConfig, dbPath, secret)
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Print("✓ ")
	fmt.Printf("Config created at %s\n", configPath)
	fmt.Println("Set GROQ_API_KEY in the environment before running serve.")
	return nil
}

// runToken mints an operator bearer token signed with the configured
// secret. Supports "--operator value" and "--operator=value".
func runToken() error {
	var operatorID string
	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--operator" || arg == "-o":
			if i+1 >= len(args) {
				return fmt.Errorf("--operator requires a value")
			}
			operatorID = args[i+1]
			i++
		case strings.HasPrefix(arg, "--operator="):
			operatorID = strings.TrimPrefix(arg, "--operator=")
		case strings.HasPrefix(arg, "-"):
			return fmt.Errorf("unknown flag: %s", arg)
		default:
			return fmt.Errorf("unexpected argument: %s", arg)
		}
	}

	operatorID = strings.TrimSpace(operatorID)
	if operatorID == "" {
		return fmt.Errorf("--operator flag is required")
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	verifier := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	token, err := verifier.Generate("operator:"+operatorID, 30*24*time.Hour)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	fmt.Println(token)
	return nil
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	addr := cfg.Server.HTTPAddr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	url := fmt.Sprintf("http://%s/healthz", addr)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}
