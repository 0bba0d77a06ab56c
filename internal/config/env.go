package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Env is the runtime configuration read from the process environment.
type Env struct {
	Store         string     `env:"LEAGUENIGHT_STORE" envDefault:"sqlite"`
	SQLitePath    string     `env:"LEAGUENIGHT_SQLITE_PATH" envDefault:"leaguenight.db"`
	MongoURI      string     `env:"LEAGUENIGHT_MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string     `env:"LEAGUENIGHT_MONGO_DB" envDefault:"leaguenight"`
	HTTPAddr      string     `env:"LEAGUENIGHT_HTTP_ADDR" envDefault:":8080"`
	LogLevel      slog.Level `env:"LEAGUENIGHT_LOG_LEVEL" envDefault:"INFO"`
	OTELEndpoint  string     `env:"LEAGUENIGHT_OTEL_ENDPOINT"`
}

// LoadEnv loads optional dotenv files (".env" when none are named) and then
// parses the environment. Missing files are skipped. Variables already set
// win over file values.
func LoadEnv(files ...string) (*Env, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg, err := env.ParseAs[Env]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	switch cfg.Store {
	case "memory", "sqlite", "mongo":
	default:
		return nil, fmt.Errorf("LEAGUENIGHT_STORE must be memory, sqlite or mongo, got %q", cfg.Store)
	}
	return &cfg, nil
}
