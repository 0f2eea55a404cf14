package http

import (
	"net/http"

	"team-quiz-service/internal/app"
	"team-quiz-service/internal/domain"
)

// AdminHandler serves the competition controls and the results view.
type AdminHandler struct {
	service *app.QuizService
}

// NewAdminHandler exposes window control and team results.
func NewAdminHandler(service *app.QuizService) *AdminHandler {
	return &AdminHandler{service: service}
}

func (h *AdminHandler) GetWindow(w http.ResponseWriter, r *http.Request) {
	window, err := h.service.GetWindow(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, window)
}

// SetWindow applies a partial window update from the request body.
func (h *AdminHandler) SetWindow(w http.ResponseWriter, r *http.Request) {
	var update domain.WindowUpdate
	if err := decodeBody(r, &update); err != nil {
		writeErrorBody(w, http.StatusBadRequest, string(domain.KindInvalid), "invalid window update")
		return
	}
	window, err := h.service.SetWindow(r.Context(), update)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, window)
}

func (h *AdminHandler) Results(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.ListResults(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
