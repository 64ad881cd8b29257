package domain

import "time"

// FinancialRecordType tells income from expense.
type FinancialRecordType string

const (
	FinancialIncome  FinancialRecordType = "income"
	FinancialExpense FinancialRecordType = "expense"
)

// FinancialRecord is a bookkeeping entry.
type FinancialRecord struct {
	ID          string              `json:"id"`
	Type        FinancialRecordType `json:"type"`
	Category    string              `json:"category"`
	Amount      float64             `json:"amount"`
	Description string              `json:"description"`
	Date        time.Time           `json:"date"`
}

// ShopProfile is the receipt header and contact information of the shop.
type ShopProfile struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	FooterMessage string `json:"footerMessage"`
}
