package services

import (
	"context"
	"strings"
	"time"

	"crediario/database"
	"crediario/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// CreateCustomerDTO holds the data of a new customer.
type CreateCustomerDTO struct {
	Name          string                `json:"nome" validate:"required,max=120"`
	NationalID    string                `json:"cpf" validate:"required,max=20"`
	IDDocument    string                `json:"rg" validate:"max=30"`
	Address       string                `json:"endereco" validate:"max=200"`
	City          string                `json:"cidade" validate:"max=100"`
	PostalCode    string                `json:"cep" validate:"max=12"`
	Phone         string                `json:"telefone" validate:"max=30"`
	Email         string                `json:"email" validate:"omitempty,email"`
	BirthDate     string                `json:"data_nascimento" validate:"omitempty,datetime=2006-01-02"`
	MaritalStatus string                `json:"estado_civil" validate:"max=30"`
	Occupation    string                `json:"profissao" validate:"max=80"`
	Income        decimal.Decimal       `json:"renda"`
	RegisteredAt  string                `json:"data_cadastro" validate:"omitempty,datetime=2006-01-02"`
	Status        models.CustomerStatus `json:"status" validate:"omitempty,oneof=ativo inativo bloqueado"`
}

// CustomerFilter narrows FindCustomers. Empty fields impose no constraint.
type CustomerFilter struct {
	Name       string
	NationalID string
	Status     models.CustomerStatus
}

func (f CustomerFilter) matches(c models.Customer) bool {
	if f.Name != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Name)) {
		return false
	}
	if f.NationalID != "" && !strings.Contains(c.NationalID, f.NationalID) {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	return true
}

// CustomerService manages customer records.
type CustomerService struct {
	db        *database.Database
	validator *validator.Validate
	now       Clock
}

// NewCustomerService creates a CustomerService.
func NewCustomerService(db *database.Database, now Clock) *CustomerService {
	if now == nil {
		now = time.Now
	}
	return &CustomerService{
		db:        db,
		validator: newValidator(),
		now:       now,
	}
}

// Create registers a customer. Registration date defaults to today and status to ativo.
func (s *CustomerService) Create(ctx context.Context, dto CreateCustomerDTO) (*models.Customer, error) {
	dto.Name = strings.TrimSpace(dto.Name)
	dto.NationalID = strings.TrimSpace(dto.NationalID)
	if err := validateStruct(s.validator, dto); err != nil {
		return nil, err
	}
	if err := requireNonNegative("renda", dto.Income); err != nil {
		return nil, err
	}

	customer := &models.Customer{
		Name:          dto.Name,
		NationalID:    dto.NationalID,
		IDDocument:    dto.IDDocument,
		Address:       dto.Address,
		City:          dto.City,
		PostalCode:    dto.PostalCode,
		Phone:         dto.Phone,
		BirthDate:     dto.BirthDate,
		MaritalStatus: dto.MaritalStatus,
		Occupation:    dto.Occupation,
		Income:        dto.Income,
		RegisteredAt:  dto.RegisteredAt,
		Status:        dto.Status,
	}
	if dto.Email != "" {
		email := dto.Email
		customer.Email = &email
	}
	if customer.RegisteredAt == "" {
		customer.RegisteredAt = today(s.now)
	}
	if customer.Status == "" {
		customer.Status = models.CustomerStatusActive
	}

	if _, err := database.Insert(ctx, s.db, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// Get returns one customer by id.
func (s *CustomerService) Get(ctx context.Context, id uint) (*models.Customer, error) {
	return database.GetByID[models.Customer](ctx, s.db, id)
}

// Find returns the customers matching every set field of filter, in registration order.
func (s *CustomerService) Find(ctx context.Context, filter CustomerFilter) ([]models.Customer, error) {
	all, err := database.GetAll[models.Customer](ctx, s.db)
	if err != nil {
		return nil, err
	}

	result := make([]models.Customer, 0, len(all))
	for _, c := range all {
		if filter.matches(c) {
			result = append(result, c)
		}
	}
	return result, nil
}

// Update merges the set fields of patch onto the stored customer.
func (s *CustomerService) Update(ctx context.Context, id uint, patch models.CustomerPatch) (*models.Customer, error) {
	patch.Name = trimmed(patch.Name)
	patch.NationalID = trimmed(patch.NationalID)
	if err := validateStruct(s.validator, patch); err != nil {
		return nil, err
	}
	if patch.Name != nil && *patch.Name == "" {
		return nil, invalid("campo nome é obrigatório")
	}
	if patch.NationalID != nil && *patch.NationalID == "" {
		return nil, invalid("campo cpf é obrigatório")
	}
	if patch.Income != nil {
		if err := requireNonNegative("renda", *patch.Income); err != nil {
			return nil, err
		}
	}

	return database.Update[models.Customer](ctx, s.db, id, patch.Fields())
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	return &v
}
