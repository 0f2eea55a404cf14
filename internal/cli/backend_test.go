package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"team-quiz-service/internal/config"
)

func TestOpenMemoryBackendServesCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.yaml")
	content := `
questions:
  - id: only
    text: Name the gopher's language.
    difficulty: Easy
    correctAnswer: Go
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write questions: %v", err)
	}

	var cfg config.Config
	cfg.Store.Driver = config.DriverMemory
	cfg.Catalog.File = path

	b, err := openBackend(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	defer b.Close()

	questions, err := b.catalog.ListQuestions(context.Background())
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if len(questions) != 1 || questions[0].ID != "only" {
		t.Fatalf("unexpected questions %+v", questions)
	}
}

func TestSampleQuestionsAreValid(t *testing.T) {
	if err := config.ValidateQuestions(sampleQuestions()); err != nil {
		t.Fatalf("sample questions invalid: %v", err)
	}
}

func TestSeedRejectsMemoryDriver(t *testing.T) {
	var cfg config.Config
	cfg.Store.Driver = config.DriverMemory
	if err := saveQuestions(context.Background(), cfg, sampleQuestions()); err == nil {
		t.Fatalf("expected seed to require a database driver")
	}
}
