package dashboard

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
)

const cookieName = "admin_auth"

// authenticator issues and checks the session cookie. The cookie carries an
// HMAC of the password, never the password itself.
type authenticator struct {
	password string
	token    string
}

func newAuthenticator(password string) *authenticator {
	mac := hmac.New(sha256.New, []byte(password))
	mac.Write([]byte("matchbot-dashboard"))
	return &authenticator{password: password, token: hex.EncodeToString(mac.Sum(nil))}
}

func (a *authenticator) checkPassword(candidate string) bool {
	return constantTimeEqual(candidate, a.password)
}

func (a *authenticator) authenticated(r *http.Request) bool {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return false
	}
	return constantTimeEqual(cookie.Value, a.token)
}

func (a *authenticator) sessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     cookieName,
		Value:    a.token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func expiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) requirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.auth.authenticated(r) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.auth.authenticated(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
