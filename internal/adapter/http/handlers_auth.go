// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"slices"
	"time"

	"luminapos/internal/domain"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"
)

var (
	errForbidden   = errors.New("forbidden")
	errSSODisabled = errors.New("sso disabled")
)

type licenseLoginRequest struct {
	Key      string `json:"key" validate:"max=64"`
	DeviceID string `json:"deviceId" validate:"required,max=128"`
}

type licenseLoginResponse struct {
	domain.ValidationResult
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type credentialsRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) handleLicenseLogin(w http.ResponseWriter, r *http.Request) {
	var req licenseLoginRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	res, err := s.svc.Licenses.Validate(r.Context(), req.Key, req.DeviceID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.Validation(res)

	out := licenseLoginResponse{ValidationResult: res}
	if !res.Valid {
		writeJSON(w, r, http.StatusUnauthorized, out)
		return
	}

	role, subject := domain.RoleLicense, req.Key
	if res.Override {
		role, subject = domain.RoleAdmin, "master-key"
	}
	token, expiresAt, err := s.svc.Sessions.Issue(role, subject, req.DeviceID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	setSessionCookie(w, r, token, expiresAt)
	out.Token, out.ExpiresAt = token, &expiresAt
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleAdminStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"configured":  s.svc.Admin.CredentialsExist(r.Context()),
		"sso_enabled": s.oidcConfig.Enabled,
	})
}

func (s *Server) handleAdminSetup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := s.svc.Admin.Setup(r.Context(), req.Username, req.Password); err != nil {
		s.fail(w, r, err)
		return
	}
	s.issueAdmin(w, r, http.StatusCreated, req.Username)
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	err := s.svc.Admin.Login(r.Context(), req.Username, req.Password)
	s.metrics.AdminLogin(err == nil)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.issueAdmin(w, r, http.StatusOK, req.Username)
}

func (s *Server) issueAdmin(w http.ResponseWriter, r *http.Request, status int, subject string) {
	token, expiresAt, err := s.svc.Sessions.Issue(domain.RoleAdmin, subject, "")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	setSessionCookie(w, r, token, expiresAt)
	writeJSON(w, r, status, tokenResponse{Token: token, ExpiresAt: expiresAt})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	writeJSON(w, r, http.StatusOK, map[string]any{
		"role":      sess.Role,
		"subject":   sess.Subject,
		"deviceId":  sess.DeviceID,
		"expiresAt": sess.ExpiresAt,
	})
}

func (s *Server) handleSSOLogin(w http.ResponseWriter, r *http.Request) {
	if !s.oidcConfig.Enabled {
		writeError(w, r, http.StatusNotFound, errSSODisabled)
		return
	}
	state, err := generateState()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300,
	})
	http.Redirect(w, r, s.oidcConfig.OAuth2Config.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleSSOCallback(w http.ResponseWriter, r *http.Request) {
	if !s.oidcConfig.Enabled {
		writeError(w, r, http.StatusNotFound, errSSODisabled)
		return
	}

	state, err := r.Cookie("oauth_state")
	if err != nil || r.URL.Query().Get("state") != state.Value {
		writeError(w, r, http.StatusBadRequest, errors.New("invalid state"))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", MaxAge: -1, Path: "/"})

	token, err := s.oidcConfig.OAuth2Config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		s.log.Warn("sso token exchange failed", zap.Error(err))
		writeError(w, r, http.StatusBadGateway, errors.New("failed to exchange token"))
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		writeError(w, r, http.StatusBadGateway, errors.New("no id_token"))
		return
	}

	verifier := s.oidcConfig.Provider.Verifier(&oidc.Config{ClientID: s.oidcConfig.OAuth2Config.ClientID})
	idToken, err := verifier.Verify(r.Context(), rawIDToken)
	if err != nil {
		s.log.Warn("sso token verification failed", zap.Error(err))
		writeError(w, r, http.StatusUnauthorized, errors.New("failed to verify token"))
		return
	}

	var claims struct {
		Email string `json:"email"`
		Sub   string `json:"sub"`
	}
	if err = idToken.Claims(&claims); err != nil {
		writeError(w, r, http.StatusBadGateway, errors.New("failed to parse claims"))
		return
	}

	subject := claims.Email
	if subject == "" {
		subject = claims.Sub
	}
	if !s.ssoAllowed(subject) {
		s.metrics.AdminLogin(false)
		writeError(w, r, http.StatusForbidden, errForbidden)
		return
	}
	s.metrics.AdminLogin(true)

	sessionToken, expiresAt, err := s.svc.Sessions.Issue(domain.RoleAdmin, subject, "")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	setSessionCookie(w, r, sessionToken, expiresAt)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) ssoAllowed(subject string) bool {
	return subject != "" && slices.Contains(s.oidcConfig.Allowed, subject)
}

func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
