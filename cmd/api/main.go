package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"codecanvas/pkg/api/account"
	"codecanvas/pkg/api/config"
	apiFlows "codecanvas/pkg/api/flows"
	apiHistory "codecanvas/pkg/api/history"
	"codecanvas/pkg/core/agent"
	"codecanvas/pkg/core/billing"
	"codecanvas/pkg/core/flows"
	"codecanvas/pkg/core/history"
	"codecanvas/pkg/core/prompt"
	"codecanvas/pkg/core/store"
	"codecanvas/pkg/core/tracing"

	"github.com/joho/godotenv"
)

const version = "0.1.0"

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("[config] no .env file, using the process environment")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if out := os.Getenv("TRACE_OUTPUT"); out != "" {
		shutdown, err := tracing.Init("codecanvas", version, out)
		if err != nil {
			log.Printf("[WARNING] tracing disabled: %v", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// Prompt overrides
	resourcesPath := "resources"
	if _, err := os.Stat(resourcesPath); os.IsNotExist(err) {
		exePath, _ := os.Executable()
		resourcesPath = filepath.Join(filepath.Dir(exePath), "resources")
	}
	prompts := prompt.NewRegistry()
	if err := prompt.LoadFromDirectory(prompts, resourcesPath); err != nil {
		log.Printf("[WARNING] Failed to load prompt overrides: %v", err)
	}

	// Model routing
	agentCfg, err := agent.LoadConfig("config/models.yaml")
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	agentMgr := agent.NewManager(agentCfg, agent.BuildProviders(ctx, agentCfg, os.Getenv))
	if _, err := agentMgr.ProviderFor(flows.Generate); err != nil {
		log.Printf("[WARNING] %v; falling back to the mock provider", err)
		agentMgr.SetGlobalProvider("mock")
	}

	registry, err := flows.NewRegistry(prompts, agentMgr.For)
	if err != nil {
		log.Fatalf("[FATAL] flows: %v", err)
	}

	// Storage: Postgres when DATABASE_URL is set, local files otherwise
	var (
		accounts      billing.Store = billing.NewMemoryStore()
		conversations history.Store = history.NewFileStore(filepath.Join(".cache", "history"))
	)
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		if err := store.InitDB(ctx, dbURL); err != nil {
			log.Fatalf("[FATAL] database: %v", err)
		}
		defer store.Close()
		if err := store.Migrate(ctx, store.GetPool()); err != nil {
			log.Fatalf("[FATAL] %v", err)
		}
		accounts = billing.NewPostgresStore(store.GetPool())
		conversations = history.NewPostgresStore(store.GetPool())
		log.Println("[store] using Postgres")
	} else {
		log.Println("[store] DATABASE_URL not set: accounts in memory, history under .cache/history")
	}

	mux := http.NewServeMux()
	apiFlows.NewHandler(flows.NewService(registry), billing.NewGate(accounts), conversations).Register(mux)
	apiHistory.NewHandler(conversations, history.NewLibraries(filepath.Join(".cache", "snippets"))).Register(mux)
	account.NewHandler(billing.NewGate(accounts)).Register(mux)
	config.NewHandler(agentMgr, registry.Names()).Register(mux)

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	srv := &http.Server{Addr: addr, Handler: tracing.Middleware(cors(mux))}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("API server starting on %s (provider: %s)\n", addr, agentMgr.GetActiveProvider())
	fmt.Println("  - POST /api/flows/{generate|analyze|document}")
	fmt.Println("  - POST /api/code/inspect")
	fmt.Println("  - GET  /api/history, /api/snippets")
	fmt.Println("  - GET  /api/account")
	fmt.Println("  - GET  /api/config")
	fmt.Println("  - POST /api/config/switch")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}

// cors allows the browser front end on another origin during local development.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-User-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
