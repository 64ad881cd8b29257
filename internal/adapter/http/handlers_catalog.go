package adapthttp

import (
	"net/http"

	"luminapos/internal/domain"

	"github.com/go-chi/chi/v5"
)

type productRequest struct {
	ID       string  `json:"id" validate:"max=64"`
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
	Category string  `json:"category"`
	Stock    int     `json:"stock"`
	Image    string  `json:"image" validate:"omitempty,url"`
}

type transactionItemRequest struct {
	ID       string  `json:"id" validate:"required"`
	Name     string  `json:"name"`
	Price    float64 `json:"price" validate:"gte=0"`
	Quantity int     `json:"quantity" validate:"gte=1"`
}

type transactionRequest struct {
	Items         []transactionItemRequest `json:"items" validate:"dive"`
	Total         float64                  `json:"total" validate:"gte=0"`
	PaymentMethod string                   `json:"paymentMethod" validate:"required"`
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.svc.Catalog.Products(r.Context()))
}

func (s *Server) handleSaveProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	p, err := s.svc.Catalog.SaveProduct(r.Context(), domain.Product{
		ID:       req.ID,
		Name:     req.Name,
		Price:    req.Price,
		Category: req.Category,
		Stock:    req.Stock,
		Image:    req.Image,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	s.svc.Catalog.DeleteProduct(r.Context(), chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.svc.Catalog.Transactions(r.Context()))
}

func (s *Server) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	items := make([]domain.TransactionItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.TransactionItem{
			ID:       it.ID,
			Name:     it.Name,
			Price:    it.Price,
			Quantity: it.Quantity,
		})
	}
	tx, err := s.svc.Catalog.RecordTransaction(r.Context(), domain.Transaction{
		Items:         items,
		Total:         req.Total,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, tx)
}
