package http

import (
	"net/http"
	"strings"
	"time"

	"team-quiz-service/internal/app"
	"team-quiz-service/internal/domain"
)

// QuizHandler serves the team-facing endpoints.
type QuizHandler struct {
	service *app.QuizService
}

// NewQuizHandler exposes the team-facing quiz operations.
func NewQuizHandler(service *app.QuizService) *QuizHandler {
	return &QuizHandler{service: service}
}

type attemptRequest struct {
	QuestionID string `json:"questionId"`
	AnswerText string `json:"answerText"`
}

type hintRequest struct {
	QuestionID string `json:"questionId"`
	HintIndex  *int   `json:"hintIndex"`
}

func (h *QuizHandler) Start(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Start(r.Context(), teamIDFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *QuizHandler) Attempt(w http.ResponseWriter, r *http.Request) {
	var req attemptRequest
	if err := decodeBody(r, &req); err != nil || strings.TrimSpace(req.QuestionID) == "" {
		writeErrorBody(w, http.StatusBadRequest, string(domain.KindInvalid), "questionId and answerText are required")
		return
	}
	res, err := h.service.Attempt(r.Context(), teamIDFrom(r.Context()), req.QuestionID, req.AnswerText)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Hint reveals the next hint for a question and reports the penalty applied.
func (h *QuizHandler) Hint(w http.ResponseWriter, r *http.Request) {
	var req hintRequest
	if err := decodeBody(r, &req); err != nil || strings.TrimSpace(req.QuestionID) == "" || req.HintIndex == nil {
		writeErrorBody(w, http.StatusBadRequest, string(domain.KindInvalid), "questionId and hintIndex are required")
		return
	}
	res, err := h.service.RevealHint(r.Context(), teamIDFrom(r.Context()), req.QuestionID, *req.HintIndex)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Submit(r.Context(), teamIDFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *QuizHandler) Violation(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.RecordViolation(r.Context(), teamIDFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *QuizHandler) Info(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Info(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *QuizHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	rankings, err := h.service.ListSubmittedRankings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.Leaderboard{Entries: rankings, UpdatedAt: time.Now().UTC()})
}
