package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"team-quiz-service/internal/domain"
)

const (
	teamHeader = "X-Team-ID"
	roleHeader = "X-Auth-Role"
	adminRole  = "admin"
)

type contextKey string

const teamIDKey contextKey = "teamId"

// requireTeam reads the team identity set by the auth gateway.
func requireTeam(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		teamID := strings.TrimSpace(r.Header.Get(teamHeader))
		if teamID == "" {
			teamID = strings.TrimSpace(r.URL.Query().Get("teamId"))
		}
		if teamID == "" {
			writeErrorBody(w, http.StatusUnauthorized, "unauthorized", "missing team identity")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), teamIDKey, teamID)))
	})
}

// requireAdmin admits only requests the auth gateway marked with the admin role.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.EqualFold(strings.TrimSpace(r.Header.Get(roleHeader)), adminRole) {
			writeErrorBody(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func teamIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(teamIDKey).(string)
	return id
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("write response failed")
	}
}

func writeErrorBody(w http.ResponseWriter, status int, code, message string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	writeJSON(w, status, body)
}

// writeError maps engine errors to HTTP statuses by kind.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	message := err.Error()
	if kind == domain.KindInternal {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		message = "internal server error"
	}
	writeErrorBody(w, status, string(kind), message)
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindQuizNotLive, domain.KindQuizExpired:
		return http.StatusForbidden
	case domain.KindAlreadySubmitted,
		domain.KindAlreadyCorrect,
		domain.KindNoAttemptsRemaining,
		domain.KindNoHintsAvailable,
		domain.KindInvalid:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
