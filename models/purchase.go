package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is an installment purchase made with a card.
type Purchase struct {
	ID                uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	CardID            uint            `gorm:"column:cartao_id;not null;index:idx_compras_cartao_id" json:"cartao_id"`
	Description       string          `gorm:"column:descricao;not null" json:"descricao"`
	TotalAmount       decimal.Decimal `gorm:"column:valor_total;type:numeric(14,2);not null" json:"valor_total"`
	Installments      int             `gorm:"column:num_parcelas;not null" json:"num_parcelas"`
	InstallmentAmount decimal.Decimal `gorm:"column:valor_parcela;type:numeric(14,2);not null" json:"valor_parcela"`
	PurchaseDate      string          `gorm:"column:data_compra;not null" json:"data_compra"`
	Status            PurchaseStatus  `gorm:"column:status;type:varchar(20);not null" json:"status"`
	CreatedAt         time.Time       `gorm:"column:created_at" json:"-"`
	UpdatedAt         time.Time       `gorm:"column:updated_at" json:"-"`
}

// PurchaseStatus is the lifecycle status of a purchase.
type PurchaseStatus string

const (
	PurchaseStatusActive    PurchaseStatus = "ativo"
	PurchaseStatusSettled   PurchaseStatus = "quitado"
	PurchaseStatusCancelled PurchaseStatus = "cancelado"
)

func (Purchase) TableName() string {
	return "compras"
}

// PrimaryKey returns the record key.
func (p Purchase) PrimaryKey() uint {
	return p.ID
}
