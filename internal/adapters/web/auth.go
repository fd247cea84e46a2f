package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"taller/internal/core"

	"github.com/golang-jwt/jwt/v5"
)

const (
	authCookieName = "auth_token"
	authTokenTTL   = time.Hour
)

type authCtxKey struct{}

// AuthClaims identifies the operator behind a request.
type AuthClaims struct {
	UserID   int
	Username string
	Rol      string
}

func authFromContext(ctx context.Context) *AuthClaims {
	c, _ := ctx.Value(authCtxKey{}).(*AuthClaims)
	return c
}

// actor is the username recorded on novedades.
func actor(r *http.Request) string {
	if c := authFromContext(r.Context()); c != nil {
		return c.Username
	}
	return ""
}

type tokenClaims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Rol      string `json:"rol"`
	jwt.RegisteredClaims
}

var tokenParser = jwt.NewParser(
	jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	jwt.WithExpirationRequired(),
)

func (h *Handler) signToken(userID int, username, rol string, now time.Time) (string, error) {
	tc := tokenClaims{
		UserID:   userID,
		Username: username,
		Rol:      rol,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(authTokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString([]byte(h.jwtSecret))
}

func (h *Handler) parseToken(raw string) (*AuthClaims, error) {
	var tc tokenClaims
	_, err := tokenParser.ParseWithClaims(raw, &tc, func(*jwt.Token) (any, error) {
		return []byte(h.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	return &AuthClaims{UserID: tc.UserID, Username: tc.Username, Rol: tc.Rol}, nil
}

func setAuthCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   maxAge,
	})
}

// RequireAuth rejects requests without a valid auth cookie and stores the
// caller's AuthClaims in the context.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(authCookieName)
		if err != nil || cookie.Value == "" {
			writeError(w, r, "login required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}
		claims, err := h.parseToken(cookie.Value)
		if err != nil {
			writeError(w, r, "session expired or invalid", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), authCtxKey{}, claims)))
	})
}

// POST /api/auth/login
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &creds) {
		return
	}

	session, err := h.svc.AuthenticateUser(r.Context(), creds.Username, creds.Password)
	switch {
	case errors.Is(err, core.ErrNotFound), errors.Is(err, core.ErrValidation):
		writeError(w, r, "invalid username or password", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	case err != nil:
		h.writeServiceError(w, r, err)
		return
	}

	signed, err := h.signToken(session.UserID, session.Username, session.Rol, time.Now())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	setAuthCookie(w, signed, int(authTokenTTL.Seconds()))
	writeJSON(w, session)
}

// POST /api/auth/logout
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	setAuthCookie(w, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/auth/me
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	if claims == nil {
		writeError(w, r, "login required", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}
	user, err := h.svc.GetUser(r.Context(), claims.UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, user)
}
