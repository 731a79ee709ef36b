package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"PortfolioCMS/internal/auth"
	"PortfolioCMS/internal/model"
	"PortfolioCMS/pkg/logger"
)

// SessionCookie - имя cookie с токеном сессии
const SessionCookie = "session"

type sessionKey struct{}

// SessionFromContext возвращает сессию, положенную RequireSession
func SessionFromContext(ctx context.Context) *model.Session {
	s, _ := ctx.Value(sessionKey{}).(*model.Session)
	return s
}

func actor(ctx context.Context) string {
	if s := SessionFromContext(ctx); s != nil {
		return s.Email
	}
	return ""
}

// tokenFromRequest читает токен из Authorization: Bearer или cookie session
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// RequireSession пропускает запрос только с действующей сессией.
// Без сессии: 401 {"message":"Unauthorized"}, следующий обработчик не вызывается
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.auth.GetSession(r.Context(), tokenFromRequest(r))
		if err != nil {
			h.log.Error("session lookup failed", logger.Err(err))
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if sess == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login обрабатывает POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.writeServiceError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: sess.Token, ExpiresAt: sess.ExpiresAt})
}

// Logout обрабатывает POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), tokenFromRequest(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out"})
}
