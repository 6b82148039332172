package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"gopkg.in/yaml.v3"

	"takeaway/internal/api"
	"takeaway/internal/auth"
	"takeaway/internal/database"
	"takeaway/internal/menustore"
	"takeaway/internal/monitoring"
	"takeaway/internal/notify"
	"takeaway/internal/rewriter"
)

var (
	port        = flag.Int("port", 8080, "API server port")
	metricsPort = flag.Int("metrics-port", 9090, "Metrics server port")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

func main() {
	flag.Parse()

	config, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	if err := database.InitDB(config.Database.Driver, config.Database.DSN); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDB()

	// Initialize the optional rewriter model; the rule engine runs
	// fine without one.
	model, err := initializeLLM(config)
	if err != nil {
		log.Fatalf("Failed to initialize LLM: %v", err)
	}
	if model == nil {
		log.Println("No OpenAI key configured, chat rewriting disabled")
	}

	menus := menustore.NewStore(config.MenusDir)
	if slugs := menus.Slugs(); len(slugs) > 0 {
		log.Printf("Loaded menus: %v", slugs)
	} else {
		log.Printf("No menus found under %s", config.MenusDir)
	}

	authSvc := auth.NewService(config.JWTSecret, time.Duration(config.TokenTTLMinutes)*time.Minute)
	metrics := monitoring.NewMetrics()
	emailer := notify.NewEmailer(config.SMTP)

	// Initialize API server
	srv := api.NewServer(database.GetDB(), menus, authSvc, rewriter.New(model), metrics, emailer)

	// Start metrics server
	go startMetricsServer(*metricsPort, metrics)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: srv.Router,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down servers...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
	}()

	log.Printf("Starting API server on port %d", *port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("API server error: %v", err)
	}
}

func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Config file %s not found, using defaults", path)
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Environment variables override the file for secrets.
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		config.OpenAIKey = key
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.JWTSecret = secret
	}

	return config, nil
}

func defaultConfig() *Config {
	c := &Config{
		OpenAIModel:     "gpt-4o-mini",
		JWTSecret:       "dev-secret-change-me",
		TokenTTLMinutes: 60 * 24,
		MenusDir:        "menus",
	}
	c.Database.Driver = "sqlite3"
	c.Database.DSN = "takeaway.db"
	return c
}

func initializeLLM(config *Config) (llms.LLM, error) {
	if config.OpenAIKey == "" {
		return nil, nil
	}

	llm, err := openai.New(
		openai.WithModel(config.OpenAIModel),
		openai.WithToken(config.OpenAIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
	}

	return llm, nil
}

func startMetricsServer(port int, metrics *monitoring.Metrics) {
	metricsRouter := gin.Default()
	metricsRouter.GET("/metrics", gin.WrapH(metrics.Handler()))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: metricsRouter,
	}

	log.Printf("Starting metrics server on port %d", port)
	if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Printf("Metrics server error: %v", err)
	}
}

// Config represents the application configuration
type Config struct {
	OpenAIKey       string `yaml:"openai_key"`
	OpenAIModel     string `yaml:"openai_model"`
	JWTSecret       string `yaml:"jwt_secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
	MenusDir        string `yaml:"menus_dir"`
	Database        struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`
	SMTP notify.Config `yaml:"smtp"`
}
