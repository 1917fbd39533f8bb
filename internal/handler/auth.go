package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/mirilee/daybook/internal/auth"
	"github.com/mirilee/daybook/internal/model"
	"github.com/mirilee/daybook/internal/store"
)

const stateCookieName = "daybook_oauth_state"

type AuthHandler struct {
	users           *store.UserStore
	tokens          *auth.TokenProvider
	google          *auth.GoogleClient
	refreshTokens   *auth.RefreshStore
	successRedirect string
	logger          *slog.Logger
}

func NewAuthHandler(
	users *store.UserStore,
	tokens *auth.TokenProvider,
	google *auth.GoogleClient,
	refreshTokens *auth.RefreshStore,
	successRedirect string,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		users:           users,
		tokens:          tokens,
		google:          google,
		refreshTokens:   refreshTokens,
		successRedirect: successRedirect,
		logger:          logger,
	}
}

// Login starts the Google OAuth2 flow. The state nonce rides in a short-lived
// cookie and is checked on the callback.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.google.AuthCodeURL(state), http.StatusFound)
}

// Callback completes the OAuth2 flow: verifies state, exchanges the code,
// upserts the user, issues tokens, and stores the refresh token.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "state mismatch"})
		return
	}
	// State is single-use.
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Path: "/auth", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing code"})
		return
	}

	gu, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth exchange", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "google sign-in failed"})
		return
	}

	user, err := h.users.Upsert(gu.Email, gu.Name)
	if err != nil {
		h.logger.Error("upsert user", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save user"})
		return
	}

	access, refresh, err := h.issueTokens(r, user.Email, user)
	if err != nil {
		h.logger.Error("issue tokens", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to issue tokens"})
		return
	}

	h.logger.Info("login", "user_id", user.ID, "email", user.Email)

	if h.successRedirect != "" {
		// Tokens travel in the fragment so they never hit server logs
		// on the frontend host.
		v := url.Values{}
		v.Set("access_token", access)
		v.Set("refresh_token", refresh)
		http.Redirect(w, r, h.successRedirect+"#"+v.Encode(), http.StatusFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"user":          user,
	})
}

// Refresh validates the presented refresh token against its signature and
// the stored copy, then rotates both tokens.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "refresh_token is required"})
		return
	}

	claims, err := h.tokens.Parse(req.RefreshToken)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid refresh token"})
		return
	}
	email := claims.Subject

	stored, err := h.refreshTokens.Get(r.Context(), email)
	if err != nil {
		h.logger.Error("load refresh token", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check refresh token"})
		return
	}
	if stored == "" || stored != req.RefreshToken {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "refresh token not recognized"})
		return
	}

	user, err := h.users.GetByEmail(email)
	if err != nil || user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unknown user"})
		return
	}

	access, refresh, err := h.issueTokens(r, email, user)
	if err != nil {
		h.logger.Error("rotate tokens", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to issue tokens"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// Logout revokes the stored refresh token for the authenticated user.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	email := auth.Email(r.Context())
	if err := h.refreshTokens.Delete(r.Context(), email); err != nil {
		h.logger.Error("delete refresh token", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "logout failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("get current user", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load user"})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) issueTokens(r *http.Request, email string, user *model.User) (access, refresh string, err error) {
	access, err = h.tokens.CreateAccessToken(user)
	if err != nil {
		return "", "", err
	}
	refresh, err = h.tokens.CreateRefreshToken(email)
	if err != nil {
		return "", "", err
	}
	if err := h.refreshTokens.Save(r.Context(), email, refresh, h.tokens.RefreshTTL()); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}
