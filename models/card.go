package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CardStatus is the lifecycle status of a card.
type CardStatus string

const (
	CardStatusActive    CardStatus = "ativo"
	CardStatusCancelled CardStatus = "cancelado"
	CardStatusBlocked   CardStatus = "bloqueado"
)

// Card is a crediário card issued to a customer.
type Card struct {
	ID         uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID uint            `gorm:"column:cliente_id;not null;index:idx_cartoes_cliente_id" json:"cliente_id"`
	Number     string          `gorm:"column:numero_cartao;not null;uniqueIndex:idx_cartoes_numero_cartao" json:"numero_cartao"`
	Limit      decimal.Decimal `gorm:"column:limite;type:numeric(14,2);not null" json:"limite"`
	IssueDate  string          `gorm:"column:data_emissao;not null" json:"data_emissao"`
	ExpiryDate string          `gorm:"column:data_vencimento;not null" json:"data_vencimento"`
	Status     CardStatus      `gorm:"column:status;type:varchar(20);not null" json:"status"`
	CreatedAt  time.Time       `gorm:"column:created_at" json:"-"`
	UpdatedAt  time.Time       `gorm:"column:updated_at" json:"-"`
}

// TableName returns the collection name for Card.
func (Card) TableName() string {
	return "cartoes"
}

// PrimaryKey returns the record key.
func (c Card) PrimaryKey() uint {
	return c.ID
}

// CardPatch is a partial update for a card.
type CardPatch struct {
	Limit      *decimal.Decimal `json:"limite"`
	ExpiryDate *string          `json:"data_vencimento" validate:"omitempty,datetime=2006-01-02"`
	Status     *CardStatus      `json:"status" validate:"omitempty,oneof=ativo cancelado bloqueado"`
}

// Fields returns the column/value pairs carried by the patch.
func (p CardPatch) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if p.Limit != nil {
		fields["limite"] = *p.Limit
	}
	setString(fields, "data_vencimento", p.ExpiryDate)
	if p.Status != nil {
		fields["status"] = *p.Status
	}
	return fields
}
