package services

import (
	"context"
	"strings"
	"time"

	"crediario/database"
	"crediario/models"
	"crediario/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	autoCardNumber   = "AUTO"
	cardNumberPrefix = "CARD-"
	cardValidityDays = 365
)

var defaultCardLimit = decimal.NewFromInt(5000)

// CreateCardDTO holds the data for issuing a card. "AUTO" or an empty number
// asks for a generated one.
type CreateCardDTO struct {
	CustomerID uint              `json:"cliente_id" validate:"required"`
	Number     string            `json:"numero_cartao" validate:"max=32"`
	Limit      *decimal.Decimal  `json:"limite"`
	IssueDate  string            `json:"data_emissao" validate:"omitempty,datetime=2006-01-02"`
	ExpiryDate string            `json:"data_vencimento" validate:"omitempty,datetime=2006-01-02"`
	Status     models.CardStatus `json:"status" validate:"omitempty,oneof=ativo cancelado bloqueado"`
}

// CardService manages crediário cards.
type CardService struct {
	db        *database.Database
	validator *validator.Validate
	now       Clock
	metrics   *utils.Metrics
}

// NewCardService creates a CardService.
func NewCardService(db *database.Database, now Clock) *CardService {
	if now == nil {
		now = time.Now
	}
	return &CardService{
		db:        db,
		validator: newValidator(),
		now:       now,
		metrics:   utils.GetMetrics(),
	}
}

// Create issues a card for an existing customer.
func (s *CardService) Create(ctx context.Context, dto CreateCardDTO) (*models.Card, error) {
	if err := validateStruct(s.validator, dto); err != nil {
		return nil, err
	}

	card := &models.Card{
		CustomerID: dto.CustomerID,
		Number:     strings.TrimSpace(dto.Number),
		Limit:      defaultCardLimit,
		IssueDate:  dto.IssueDate,
		ExpiryDate: dto.ExpiryDate,
		Status:     dto.Status,
	}
	if dto.Limit != nil {
		if err := requireNonNegative("limite", *dto.Limit); err != nil {
			return nil, err
		}
		card.Limit = *dto.Limit
	}
	if card.Number == "" || strings.EqualFold(card.Number, autoCardNumber) {
		card.Number = generateCardNumber()
	}
	now := s.now()
	if card.IssueDate == "" {
		card.IssueDate = models.FormatDate(now)
	}
	if card.ExpiryDate == "" {
		card.ExpiryDate = calculateExpirationDate(now)
	}
	if card.Status == "" {
		card.Status = models.CardStatusActive
	}

	err := s.db.Transaction(ctx, func(tx *database.Tx) error {
		if _, err := database.GetByID[models.Customer](ctx, tx, card.CustomerID); err != nil {
			return err
		}
		_, err := database.Insert(ctx, tx, card)
		return err
	})
	s.metrics.RecordCardOperation("create", string(card.Status), err)
	if err != nil {
		return nil, err
	}
	return card, nil
}

// List returns every card in issue order.
func (s *CardService) List(ctx context.Context) ([]models.Card, error) {
	return database.GetAll[models.Card](ctx, s.db)
}

// ListByCustomer returns the cards owned by a customer.
func (s *CardService) ListByCustomer(ctx context.Context, customerID uint) ([]models.Card, error) {
	return database.GetByIndex[models.Card](ctx, s.db, "cliente_id", customerID)
}

// Update merges the set fields of patch onto the stored card.
func (s *CardService) Update(ctx context.Context, id uint, patch models.CardPatch) (*models.Card, error) {
	if err := validateStruct(s.validator, patch); err != nil {
		return nil, err
	}
	if patch.Limit != nil {
		if err := requireNonNegative("limite", *patch.Limit); err != nil {
			return nil, err
		}
	}

	card, err := database.Update[models.Card](ctx, s.db, id, patch.Fields())
	if patch.Status != nil {
		s.metrics.RecordCardOperation("status", string(*patch.Status), err)
	}
	return card, err
}

// generateCardNumber builds a CARD-XXXXXXXX number.
func generateCardNumber() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return cardNumberPrefix + strings.ToUpper(id[:8])
}

// calculateExpirationDate returns the default expiry, one year after issue.
func calculateExpirationDate(issued time.Time) string {
	return models.FormatDate(issued.AddDate(0, 0, cardValidityDays))
}
