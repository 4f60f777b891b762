package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/gnemet/reactgrid"
	"github.com/gnemet/reactgrid/database/gormsource"
	"github.com/gnemet/reactgrid/database/sqlsource"
	"github.com/gnemet/reactgrid/internal/catalog"
	"github.com/gnemet/reactgrid/reactive"
)

type Config struct {
	Application struct {
		Name     string `yaml:"name"`
		Version  string `yaml:"version"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"application"`

	Server struct {
		Port            string        `yaml:"port"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Database []struct {
		Name        string        `yaml:"name"`
		Host        string        `yaml:"host"`
		Port        string        `yaml:"port"`
		User        string        `yaml:"user"`
		Password    string        `yaml:"password"`
		Database    string        `yaml:"database"`
		Schema      string        `yaml:"schema"`
		Default     bool          `yaml:"default"`
		MaxConns    int           `yaml:"max_conns"`
		IdleTimeout time.Duration `yaml:"idle_timeout"`
	} `yaml:"database"`
	Catalog struct {
		Path string `yaml:"path"`
	} `yaml:"catalog"`
}

func loadConfig(path string) (*Config, error) {
	_ = godotenv.Load() // Ignore error as it might not exist in prod

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand env vars in YAML
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = "grids"
	}
	return &cfg, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// openDefault connects to the default database entry, or the first one.
func openDefault(cfg *Config) (*sql.DB, error) {
	if len(cfg.Database) == 0 {
		return nil, errors.New("no database configured")
	}
	d := cfg.Database[0]
	for _, candidate := range cfg.Database {
		if candidate.Default {
			d = candidate
			break
		}
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Database)
	if d.Schema != "" {
		connStr += fmt.Sprintf(" search_path=%s,public", d.Schema)
	}

	slog.Info("Connecting to database", "name", d.Name, "host", d.Host, "database", d.Database)
	return sqlsource.Open("postgres", connStr, sqlsource.PoolOptions{
		MaxConns:    d.MaxConns,
		IdleTimeout: d.IdleTimeout,
	})
}

// sources resolves a definition's source to a background loader.
type sources struct {
	ctx context.Context
	sql *sql.DB
	orm *gorm.DB
}

func (s *sources) records(def *reactgrid.Definition) (any, error) {
	switch {
	case def.Source.Query != "":
		return sqlsource.New(s.sql, def.Source.Query).Loader(s.ctx), nil
	case def.Source.Table != "":
		return gormsource.New(s.orm, def.Source.Table).WithOrder(def.Source.Order).Loader(s.ctx), nil
	default:
		return nil, fmt.Errorf("%w: grid %s has no source", reactgrid.ErrInvalidDefinition, def.ID)
	}
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the application config")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.Application.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDefault(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	orm, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	if err != nil {
		logger.Error("Failed to initialize gorm", "error", err)
		os.Exit(1)
	}

	defs, err := reactgrid.LoadDefinitions(cfg.Catalog.Path)
	if err != nil {
		logger.Error("Failed to load grid definitions", "path", cfg.Catalog.Path, "error", err)
		os.Exit(1)
	}

	sched := reactive.NewScheduler()
	go sched.Loop(ctx)

	cat := catalog.New(sched, logger)
	src := &sources{ctx: ctx, sql: db, orm: orm}
	if err := cat.Load(defs, src.records); err != nil {
		logger.Error("Failed to build grids", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           newRouter(cat, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", "error", err)
		}
	}()

	logger.Info("Server starting", "app", cfg.Application.Name, "version", cfg.Application.Version,
		"port", cfg.Server.Port, "grids", len(defs))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
