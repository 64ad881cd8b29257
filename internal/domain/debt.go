package domain

import "time"

// DebtStatus is derived from the payments made against a debt.
type DebtStatus string

const (
	DebtUnpaid  DebtStatus = "unpaid"
	DebtPartial DebtStatus = "partial"
	DebtPaid    DebtStatus = "paid"
)

// Payment is one installment against a debt.
type Payment struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// DebtRecord is a customer debt (kasbon) with its payment history.
type DebtRecord struct {
	ID           string     `json:"id"`
	CustomerName string     `json:"customerName"`
	Amount       float64    `json:"amount"`
	Description  string     `json:"description"`
	Date         time.Time  `json:"date"`
	Status       DebtStatus `json:"status"`
	Payments     []Payment  `json:"payments"`
}

// Paid returns the sum of all payments.
func (d DebtRecord) Paid() float64 {
	var total float64
	for _, p := range d.Payments {
		total += p.Amount
	}
	return total
}

// DeriveStatus computes the status from payments versus the owed amount.
func (d DebtRecord) DeriveStatus() DebtStatus {
	paid := d.Paid()
	switch {
	case paid >= d.Amount:
		return DebtPaid
	case paid > 0:
		return DebtPartial
	default:
		return DebtUnpaid
	}
}

// ApplyPayment appends a payment and refreshes the status.
func (d *DebtRecord) ApplyPayment(amount float64, at time.Time) {
	d.Payments = append(d.Payments, Payment{Date: at.UTC(), Amount: amount})
	d.Status = d.DeriveStatus()
}
