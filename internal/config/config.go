package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"team-quiz-service/internal/domain"
)

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Store struct {
		Driver string `yaml:"driver"`
	} `yaml:"store"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	NATS struct {
		URL           string `yaml:"url"`
		Stream        string `yaml:"stream"`
		SubjectPrefix string `yaml:"subjectPrefix"`
	} `yaml:"nats"`
	Catalog struct {
		TTL  string `yaml:"ttl"`
		File string `yaml:"file"`
	} `yaml:"catalog"`
	Engine struct {
		ViolationThreshold int    `yaml:"violationThreshold"`
		MaxRetries         int    `yaml:"maxRetries"`
		SweepInterval      string `yaml:"sweepInterval"`
	} `yaml:"engine"`
}

// Load reads YAML config from path and applies environment overrides.
// A missing file is not an error: defaults plus environment are used instead.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)

	switch cfg.Store.Driver {
	case DriverMemory, DriverRedis, DriverPostgres, DriverMongo:
	default:
		return cfg, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		env    string
		target *string
	}{
		{"PORT", &cfg.Server.Port},
		{"STORE_DRIVER", &cfg.Store.Driver},
		{"REDIS_ADDR", &cfg.Redis.Addr},
		{"POSTGRES_URL", &cfg.Postgres.URL},
		{"MONGO_URI", &cfg.Mongo.URI},
		{"NATS_URL", &cfg.NATS.URL},
		{"LOG_LEVEL", &cfg.Log.Level},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.env)); v != "" {
			*o.target = v
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = DriverMemory
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "team_quiz"
	}
	if cfg.Engine.ViolationThreshold <= 0 {
		cfg.Engine.ViolationThreshold = 4
	}
	if cfg.Engine.MaxRetries <= 0 {
		cfg.Engine.MaxRetries = 3
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// questionFile accepts either a bare list or a document with a questions key.
type questionFile struct {
	Questions []domain.Question `yaml:"questions"`
}

// LoadQuestions reads a YAML (or JSON) question set and validates it.
func LoadQuestions(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var questions []domain.Question
	if err := yaml.Unmarshal(data, &questions); err != nil {
		var doc questionFile
		if err2 := yaml.Unmarshal(data, &doc); err2 != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		questions = doc.Questions
	}
	if err := ValidateQuestions(questions); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return questions, nil
}

// ValidateQuestions rejects sets the engine could not serve.
func ValidateQuestions(questions []domain.Question) error {
	if len(questions) == 0 {
		return errors.New("no questions defined")
	}
	seen := make(map[string]struct{}, len(questions))
	for i, q := range questions {
		if q.ID == "" {
			return fmt.Errorf("question %d: missing id", i)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("question %s: duplicate id", q.ID)
		}
		seen[q.ID] = struct{}{}
		if strings.TrimSpace(q.CorrectAnswer) == "" {
			return fmt.Errorf("question %s: missing correctAnswer", q.ID)
		}
		if q.Difficulty != "" && !q.Difficulty.Valid() {
			return fmt.Errorf("question %s: unknown difficulty %q", q.ID, q.Difficulty)
		}
	}
	return nil
}
