package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/keerthik-19/summer-camp-registration/internal/session"
)

// RequireAdmin is middleware: it resolves the admin session from the cookie
// (or a Bearer token) and puts the principal in the request context.
func (a *API) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := a.sessionToken(r)
		if token == "" {
			writeMessage(w, http.StatusUnauthorized, "Admin access required")
			return
		}
		p, err := a.Sessions.Resolve(r.Context(), token)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) && !errors.Is(err, session.ErrInvalidToken) {
				log.Printf("session resolve: %v", err)
			}
			writeMessage(w, http.StatusUnauthorized, "Admin access required")
			return
		}
		next.ServeHTTP(w, r.WithContext(session.WithPrincipal(r.Context(), p)))
	})
}

func (a *API) sessionToken(r *http.Request) string {
	if c, err := r.Cookie(a.Cookie.Name); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// POST /api/admin/login
func (a *API) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &body); err != nil || body.Username == "" || body.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Username and password are required")
		return
	}
	token, p, err := a.Sessions.Login(r.Context(), body.Username, body.Password)
	if errors.Is(err, session.ErrInvalidCredentials) {
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     a.Cookie.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  p.ExpiresAt,
	})
	log.Printf("admin %s logged in", p.Username)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Login successful",
		"username":  p.Username,
		"expiresAt": p.ExpiresAt,
	})
}

// POST /api/admin/logout
func (a *API) AdminLogout(w http.ResponseWriter, r *http.Request) {
	if p, ok := session.FromContext(r.Context()); ok {
		if err := a.Sessions.Logout(r.Context(), p); err != nil {
			log.Printf("session logout: %v", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     a.Cookie.Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   a.Cookie.Secure,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
	writeMessage(w, http.StatusOK, "Logout successful")
}

// GET /api/admin/me
func (a *API) AdminMe(w http.ResponseWriter, r *http.Request) {
	p, ok := session.FromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Admin access required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"username":  p.Username,
		"isAdmin":   true,
		"expiresAt": p.ExpiresAt,
	})
}
