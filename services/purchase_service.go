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

// RegisterPurchaseDTO holds the data of a new installment purchase. A zero
// valor_parcela is derived from the total.
type RegisterPurchaseDTO struct {
	CardID            uint            `json:"cartao_id" validate:"required"`
	Description       string          `json:"descricao" validate:"required,max=255"`
	TotalAmount       decimal.Decimal `json:"valor_total"`
	Installments      int             `json:"num_parcelas" validate:"required,gt=0,lte=360"`
	InstallmentAmount decimal.Decimal `json:"valor_parcela"`
	PurchaseDate      string          `json:"data_compra" validate:"omitempty,datetime=2006-01-02"`
}

// PurchaseResult is a stored purchase together with its generated installments.
type PurchaseResult struct {
	Purchase models.Purchase  `json:"compra"`
	Payments []models.Payment `json:"pagamentos"`
}

// PurchaseService registers purchases and their schedules.
type PurchaseService struct {
	db        *database.Database
	validator *validator.Validate
	now       Clock
}

// NewPurchaseService creates a PurchaseService.
func NewPurchaseService(db *database.Database, now Clock) *PurchaseService {
	if now == nil {
		now = time.Now
	}
	return &PurchaseService{
		db:        db,
		validator: newValidator(),
		now:       now,
	}
}

// Register stores the purchase and its whole payment schedule atomically.
// If any write fails nothing is kept.
func (s *PurchaseService) Register(ctx context.Context, dto RegisterPurchaseDTO) (*PurchaseResult, error) {
	dto.Description = strings.TrimSpace(dto.Description)
	if err := validateStruct(s.validator, dto); err != nil {
		return nil, err
	}
	if err := requirePositive("valor_total", dto.TotalAmount); err != nil {
		return nil, err
	}
	if err := requireNonNegative("valor_parcela", dto.InstallmentAmount); err != nil {
		return nil, err
	}

	amount, err := installmentAmount(dto.TotalAmount, dto.InstallmentAmount, dto.Installments)
	if err != nil {
		return nil, err
	}

	purchase := models.Purchase{
		CardID:            dto.CardID,
		Description:       dto.Description,
		TotalAmount:       dto.TotalAmount,
		Installments:      dto.Installments,
		InstallmentAmount: amount,
		PurchaseDate:      dto.PurchaseDate,
		Status:            models.PurchaseStatusActive,
	}
	if purchase.PurchaseDate == "" {
		purchase.PurchaseDate = today(s.now)
	}

	var payments []models.Payment
	err = s.db.Transaction(ctx, func(tx *database.Tx) error {
		if _, err := database.GetByID[models.Card](ctx, tx, purchase.CardID); err != nil {
			return err
		}
		if _, err := database.Insert(ctx, tx, &purchase); err != nil {
			return err
		}

		schedule, err := GeneratePaymentSchedule(purchase)
		if err != nil {
			return err
		}
		if err := database.InsertBatch(ctx, tx, schedule); err != nil {
			return err
		}
		payments = schedule
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &PurchaseResult{Purchase: purchase, Payments: payments}, nil
}

// ListByCard returns the purchases made with a card.
func (s *PurchaseService) ListByCard(ctx context.Context, cardID uint) ([]models.Purchase, error) {
	return database.GetByIndex[models.Purchase](ctx, s.db, "cartao_id", cardID)
}
