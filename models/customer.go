package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CustomerStatus is the lifecycle status of a customer.
type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "ativo"
	CustomerStatusInactive CustomerStatus = "inativo"
	CustomerStatusBlocked  CustomerStatus = "bloqueado"
)

// Customer is a crediário client.
type Customer struct {
	ID            uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string          `gorm:"column:nome;not null;index:idx_clientes_nome" json:"nome"`
	NationalID    string          `gorm:"column:cpf;not null;uniqueIndex:idx_clientes_cpf" json:"cpf"`
	IDDocument    string          `gorm:"column:rg" json:"rg"`
	Address       string          `gorm:"column:endereco" json:"endereco"`
	City          string          `gorm:"column:cidade" json:"cidade"`
	PostalCode    string          `gorm:"column:cep" json:"cep"`
	Phone         string          `gorm:"column:telefone" json:"telefone"`
	Email         *string         `gorm:"column:email" json:"email,omitempty"`
	BirthDate     string          `gorm:"column:data_nascimento" json:"data_nascimento"`
	MaritalStatus string          `gorm:"column:estado_civil" json:"estado_civil"`
	Occupation    string          `gorm:"column:profissao" json:"profissao"`
	Income        decimal.Decimal `gorm:"column:renda;type:numeric(14,2);not null" json:"renda"`
	RegisteredAt  string          `gorm:"column:data_cadastro;not null" json:"data_cadastro"`
	Status        CustomerStatus  `gorm:"column:status;type:varchar(20);not null" json:"status"`
	CreatedAt     time.Time       `gorm:"column:created_at" json:"-"`
	UpdatedAt     time.Time       `gorm:"column:updated_at" json:"-"`
}

func (Customer) TableName() string {
	return "clientes"
}

// PrimaryKey returns the record key.
func (c Customer) PrimaryKey() uint {
	return c.ID
}

// BeforeCreate rejects customers without name or cpf.
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.Name == "" {
		return errors.New("customer name is required")
	}
	if c.NationalID == "" {
		return errors.New("customer cpf is required")
	}
	return nil
}

// CustomerPatch is a partial update for a customer. Nil fields are left untouched.
type CustomerPatch struct {
	Name          *string          `json:"nome" validate:"omitempty,min=1,max=120"`
	NationalID    *string          `json:"cpf" validate:"omitempty,min=1,max=20"`
	IDDocument    *string          `json:"rg" validate:"omitempty,max=30"`
	Address       *string          `json:"endereco" validate:"omitempty,max=200"`
	City          *string          `json:"cidade" validate:"omitempty,max=100"`
	PostalCode    *string          `json:"cep" validate:"omitempty,max=12"`
	Phone         *string          `json:"telefone" validate:"omitempty,max=30"`
	Email         *string          `json:"email" validate:"omitempty,email"`
	BirthDate     *string          `json:"data_nascimento" validate:"omitempty,datetime=2006-01-02"`
	MaritalStatus *string          `json:"estado_civil" validate:"omitempty,max=30"`
	Occupation    *string          `json:"profissao" validate:"omitempty,max=80"`
	Income        *decimal.Decimal `json:"renda"`
	Status        *CustomerStatus  `json:"status" validate:"omitempty,oneof=ativo inativo bloqueado"`
}

// Fields returns the column/value pairs carried by the patch.
func (p CustomerPatch) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	setString(fields, "nome", p.Name)
	setString(fields, "cpf", p.NationalID)
	setString(fields, "rg", p.IDDocument)
	setString(fields, "endereco", p.Address)
	setString(fields, "cidade", p.City)
	setString(fields, "cep", p.PostalCode)
	setString(fields, "telefone", p.Phone)
	setString(fields, "email", p.Email)
	setString(fields, "data_nascimento", p.BirthDate)
	setString(fields, "estado_civil", p.MaritalStatus)
	setString(fields, "profissao", p.Occupation)
	if p.Income != nil {
		fields["renda"] = *p.Income
	}
	if p.Status != nil {
		fields["status"] = *p.Status
	}
	return fields
}

func setString(fields map[string]interface{}, column string, value *string) {
	if value != nil {
		fields[column] = *value
	}
}
