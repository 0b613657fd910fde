package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bmatch/matchbot/internal/store"
)

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn("store unavailable", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	if s.auth.authenticated(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, pageLogin, loginData{})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, http.StatusBadRequest, pageLogin, loginData{Error: "Некоректний запит"})
		return
	}

	if !s.auth.checkPassword(r.PostFormValue("password")) {
		s.logger.Warn("dashboard login failed", zap.String("remote_ip", r.RemoteAddr))
		s.render(w, http.StatusUnauthorized, pageLogin, loginData{Error: "Неправильний пароль"})
		return
	}

	http.SetCookie(w, s.auth.sessionCookie())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, expiredCookie())
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.serverError(w, "load stats", err)
		return
	}

	s.render(w, http.StatusOK, pageDashboard, dashboardData{
		Stats: stats,
		Now:   s.now().Format("02.01.2006 15:04"),
	})
}

func (s *Server) users(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		s.serverError(w, "list users", err)
		return
	}

	s.render(w, http.StatusOK, pageUsers, usersData{Users: users})
}

func (s *Server) userDetail(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	user, err := s.store.GetUser(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Користувач не знайдений", http.StatusNotFound)
		return
	}
	if err != nil {
		s.serverError(w, "get user", err)
		return
	}

	messages, err := s.store.UserMessages(r.Context(), userID, detailMessageLimit)
	if err != nil {
		s.serverError(w, "user messages", err)
		return
	}

	searches, err := s.store.UserSearches(r.Context(), userID, detailSearchLimit)
	if err != nil {
		s.serverError(w, "user searches", err)
		return
	}

	s.render(w, http.StatusOK, pageUser, userData{User: user, Messages: messages, Searches: searches})
}

func (s *Server) apiStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.logger.Error("load stats", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) apiMessages(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return
	}

	limit := defaultMessageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	messages, err := s.store.UserMessages(r.Context(), userID, limit)
	if err != nil {
		s.logger.Error("user messages", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
		return
	}
	if messages == nil {
		messages = []store.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

func parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Некоректний ідентифікатор", http.StatusBadRequest)
		return 0, false
	}
	return userID, true
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op, zap.Error(err))
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
