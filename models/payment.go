package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the stored status of an installment.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pendente"
	PaymentStatusPaid    PaymentStatus = "pago"
	// PaymentStatusOverdue is never stored; it classifies pending installments past due.
	PaymentStatusOverdue PaymentStatus = "vencido"
)

// Payment is one installment (parcela) of a purchase.
type Payment struct {
	ID         uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	PurchaseID uint            `gorm:"column:compra_id;not null;index:idx_pagamentos_compra_id" json:"compra_id"`
	Number     int             `gorm:"column:numero_parcela;not null" json:"numero_parcela"`
	Amount     decimal.Decimal `gorm:"column:valor;type:numeric(14,2);not null" json:"valor"`
	DueDate    string          `gorm:"column:data_vencimento;not null" json:"data_vencimento"`
	PaidDate   *string         `gorm:"column:data_pagamento" json:"data_pagamento,omitempty"`
	Status     PaymentStatus   `gorm:"column:status;type:varchar(20);not null" json:"status"`
	CreatedAt  time.Time       `gorm:"column:created_at" json:"-"`
	UpdatedAt  time.Time       `gorm:"column:updated_at" json:"-"`
}

// TableName returns the collection name for Payment.
func (Payment) TableName() string {
	return "pagamentos"
}

// PrimaryKey returns the record key.
func (p Payment) PrimaryKey() uint {
	return p.ID
}

// IsOverdue reports whether the installment is pending and due before today.
// Dates are zero-padded YYYY-MM-DD, so string order is chronological order.
func (p Payment) IsOverdue(today string) bool {
	return p.Status == PaymentStatusPending && p.DueDate < today
}
