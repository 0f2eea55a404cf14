package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"team-quiz-service/internal/domain"
)

func TestLoadAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, `
server:
  port: "9000"
store:
  driver: memory
redis:
  addr: localhost:6379
catalog:
  ttl: 5m
engine:
  violationThreshold: 6
`)
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("REDIS_ADDR", "cache:6380")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9000" || cfg.Store.Driver != DriverRedis || cfg.Redis.Addr != "cache:6380" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Engine.ViolationThreshold != 6 || cfg.Engine.MaxRetries != 3 {
		t.Fatalf("unexpected engine config %+v", cfg.Engine)
	}
	if got := TTLDuration(cfg.Catalog.TTL, time.Minute); got != 5*time.Minute {
		t.Fatalf("expected 5m ttl, got %v", got)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Driver != DriverMemory || cfg.Server.Port != "8080" || cfg.Engine.ViolationThreshold != 4 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "cassandra")
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("soon", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for bad input, got %v", got)
	}
}

func TestLoadQuestionsBothShapes(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "list.yaml")
	writeFile(t, list, `
- id: q1
  text: Capital of France?
  difficulty: Easy
  correctAnswer: Paris
  hints: ["Europe"]
`)
	doc := filepath.Join(dir, "doc.json")
	writeFile(t, doc, `{"questions": [{"id": "q2", "text": "2+2?", "correctAnswer": "4", "maxAttempts": 3}]}`)

	qs, err := LoadQuestions(list)
	if err != nil {
		t.Fatalf("load list: %v", err)
	}
	if len(qs) != 1 || qs[0].Difficulty != domain.DifficultyEasy || len(qs[0].Hints) != 1 {
		t.Fatalf("unexpected questions %+v", qs)
	}

	qs, err = LoadQuestions(doc)
	if err != nil {
		t.Fatalf("load doc: %v", err)
	}
	if len(qs) != 1 || qs[0].MaxAttempts != 3 || qs[0].Tier() != domain.DifficultyMedium {
		t.Fatalf("unexpected questions %+v", qs)
	}
}

func TestValidateQuestions(t *testing.T) {
	cases := map[string][]domain.Question{
		"empty":      nil,
		"missing id": {{CorrectAnswer: "x"}},
		"duplicate":  {{ID: "a", CorrectAnswer: "x"}, {ID: "a", CorrectAnswer: "y"}},
		"no answer":  {{ID: "a"}},
		"difficulty": {{ID: "a", CorrectAnswer: "x", Difficulty: "Impossible"}},
	}
	for name, qs := range cases {
		if err := ValidateQuestions(qs); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
