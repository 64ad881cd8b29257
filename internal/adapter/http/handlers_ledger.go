package adapthttp

import (
	"net/http"
	"time"

	"luminapos/internal/domain"

	"github.com/go-chi/chi/v5"
)

type debtRequest struct {
	CustomerName string  `json:"customerName" validate:"required"`
	Amount       float64 `json:"amount" validate:"gt=0"`
	Description  string  `json:"description"`
}

type paymentRequest struct {
	Amount float64 `json:"amount" validate:"gt=0"`
}

type financialRequest struct {
	Type        domain.FinancialRecordType `json:"type" validate:"required,oneof=income expense"`
	Category    string                     `json:"category" validate:"required"`
	Amount      float64                    `json:"amount" validate:"gt=0"`
	Description string                     `json:"description"`
	Date        *time.Time                 `json:"date"`
}

type shopProfileRequest struct {
	Name          string `json:"name" validate:"required"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	FooterMessage string `json:"footerMessage"`
}

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.svc.Debts.List(r.Context()))
}

func (s *Server) handleAddDebt(w http.ResponseWriter, r *http.Request) {
	var req debtRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	d, err := s.svc.Debts.Add(r.Context(), req.CustomerName, req.Amount, req.Description)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, d)
}

func (s *Server) handleDebtPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	d, err := s.svc.Debts.RecordPayment(r.Context(), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, d)
}

func (s *Server) handleListFinancials(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.svc.Finance.List(r.Context()))
}

func (s *Server) handleAddFinancial(w http.ResponseWriter, r *http.Request) {
	var req financialRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	rec := domain.FinancialRecord{
		Type:        req.Type,
		Category:    req.Category,
		Amount:      req.Amount,
		Description: req.Description,
	}
	if req.Date != nil {
		rec.Date = *req.Date
	}
	out, err := s.svc.Finance.Add(r.Context(), rec)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, out)
}

func (s *Server) handleShopProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.svc.Shop.Profile(r.Context()))
}

func (s *Server) handleSaveShopProfile(w http.ResponseWriter, r *http.Request) {
	var req shopProfileRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	p := domain.ShopProfile(req)
	if err := s.svc.Shop.SaveProfile(r.Context(), p); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}
