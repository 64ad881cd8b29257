package adapthttp

import (
	"net/http"

	"luminapos/internal/domain"

	"github.com/go-chi/chi/v5"
)

type purchaseRequest struct {
	Plan domain.Duration `json:"plan" validate:"required,oneof=weekly monthly yearly"`
}

type issueLicenseRequest struct {
	Duration domain.Duration `json:"duration" validate:"required,oneof=weekly monthly yearly"`
	Price    float64         `json:"price" validate:"gte=0"`
}

type changeCredentialsRequest struct {
	Username        string `json:"username" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	plans := make([]domain.Plan, 0, len(domain.Plans))
	for _, d := range []domain.Duration{domain.DurationWeekly, domain.DurationMonthly, domain.DurationYearly} {
		plans = append(plans, domain.Plans[d])
	}
	writeJSON(w, r, http.StatusOK, plans)
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	key, err := s.svc.Licenses.Purchase(r.Context(), req.Plan)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, key)
}

func (s *Server) handleListLicenses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.svc.Licenses.List(r.Context()))
}

func (s *Server) handleIssueLicense(w http.ResponseWriter, r *http.Request) {
	var req issueLicenseRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	key, err := s.svc.Licenses.Issue(r.Context(), req.Duration, req.Price)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, key)
}

func (s *Server) handleRevokeLicense(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Licenses.Revoke(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "revoked"})
}

func (s *Server) handleLicenseStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.svc.Licenses.Stats(r.Context()))
}

func (s *Server) handleChangeCredentials(w http.ResponseWriter, r *http.Request) {
	var req changeCredentialsRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	err := s.svc.Admin.ChangeCredentials(r.Context(), req.Username, req.Password, req.ConfirmPassword)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
