package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"luminapos/internal/domain"
	"luminapos/internal/persistence"

	"github.com/google/uuid"
)

// ErrEmptyTransaction indicates a sale without items.
var ErrEmptyTransaction = errors.New("transaction has no items")

// CatalogService manages products and sales.
type CatalogService struct {
	facade *persistence.Facade
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(f *persistence.Facade) *CatalogService {
	return &CatalogService{facade: f}
}

// Products returns the product list.
func (s *CatalogService) Products(ctx context.Context) []domain.Product {
	return persistence.List(ctx, s.facade, persistence.Products)
}

// SaveProduct creates or replaces a product. A product without id gets one.
func (s *CatalogService) SaveProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Stock = max(0, p.Stock)
	if err := persistence.Save(ctx, s.facade, persistence.Products, p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// DeleteProduct removes a product.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) {
	persistence.Delete(ctx, s.facade, persistence.Products, id)
}

// Transactions returns all sales, newest first.
func (s *CatalogService) Transactions(ctx context.Context) []domain.Transaction {
	txs := persistence.List(ctx, s.facade, persistence.Transactions)
	slices.SortStableFunc(txs, func(a, b domain.Transaction) int {
		return b.Date.Compare(a.Date)
	})
	return txs
}

// RecordTransaction stores a sale and takes its items out of stock. The sale and
// the stock changes go to the same store.
func (s *CatalogService) RecordTransaction(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	if len(tx.Items) == 0 {
		return domain.Transaction{}, ErrEmptyTransaction
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Date.IsZero() {
		tx.Date = s.facade.Now().UTC()
	}
	if tx.Total == 0 {
		for _, it := range tx.Items {
			tx.Total += it.Price * float64(it.Quantity)
		}
	}
	data, err := json.Marshal(tx)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("encode transaction: %w", err)
	}

	err = s.facade.Run(ctx, "record transaction", func(ctx context.Context, docs domain.DocumentStore) error {
		if err := docs.PutDocument(ctx, persistence.Transactions.Name, tx.ID, data); err != nil {
			return err
		}
		for _, it := range tx.Items {
			err := persistence.Modify(ctx, docs, persistence.Products, it.ID, func(p *domain.Product) error {
				p.DecrementStock(it.Quantity)
				return nil
			})
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("record transaction: %w", err)
	}
	return tx, nil
}
