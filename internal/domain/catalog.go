package domain

import "time"

// Product is an item for sale.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Stock    int     `json:"stock"`
	Image    string  `json:"image,omitempty"`
}

// TransactionItem is one product line of a sale.
type TransactionItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Transaction is a completed sale.
type Transaction struct {
	ID            string            `json:"id"`
	Date          time.Time         `json:"date"`
	Items         []TransactionItem `json:"items"`
	Total         float64           `json:"total"`
	PaymentMethod string            `json:"paymentMethod"`
}

// DecrementStock removes qty from the product stock, never going below zero.
func (p *Product) DecrementStock(qty int) {
	p.Stock = max(0, p.Stock-qty)
}
