package adapthttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"luminapos/internal/app"
	"luminapos/internal/domain"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

const sessionCookie = "session"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	writeJSON(w, r, status, map[string]any{"error": err.Error()})
}

// parseJSON decodes the body into dst and runs its validate tags.
func parseJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid request: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrInvalidCredentials), errors.Is(err, app.ErrInvalidSession):
		return http.StatusUnauthorized
	case errors.Is(err, app.ErrAdminAlreadyConfigured), errors.Is(err, app.ErrAdminNotConfigured):
		return http.StatusConflict
	case errors.Is(err, app.ErrEmptyCredentials),
		errors.Is(err, app.ErrPasswordMismatch),
		errors.Is(err, app.ErrUnknownPlan),
		errors.Is(err, app.ErrInvalidDuration),
		errors.Is(err, app.ErrInvalidPrice),
		errors.Is(err, app.ErrEmptyTransaction),
		errors.Is(err, app.ErrInvalidPayment),
		errors.Is(err, app.ErrInvalidAmount),
		errors.Is(err, app.ErrInvalidRecordType):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zapRequest(r, err)...)
		writeError(w, r, status, errors.New("internal error"))
		return
	}
	writeError(w, r, status, err)
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
		Expires:  expiresAt,
	})
}

func withNoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
