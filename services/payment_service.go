package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"crediario/database"
	"crediario/models"
)

// CollectionBucket groups pending installments for the collection worklist.
type CollectionBucket string

const (
	BucketDueToday CollectionBucket = "vencer_hoje"
	BucketOverdue  CollectionBucket = "vencido"
)

// CollectionFilter narrows the collection queue. Term matches customer name,
// cpf, phone or card number; an empty Bucket returns both buckets.
type CollectionFilter struct {
	Term   string
	Bucket CollectionBucket
}

// CollectionItem is one pending installment with the records it belongs to.
type CollectionItem struct {
	Payment     models.Payment   `json:"pagamento"`
	Purchase    models.Purchase  `json:"compra"`
	Card        models.Card      `json:"cartao"`
	Customer    models.Customer  `json:"cliente"`
	Bucket      CollectionBucket `json:"situacao"`
	DaysOverdue int              `json:"dias_atraso"`
}

// PaymentService reads installments and records their payment.
type PaymentService struct {
	db  *database.Database
	now Clock
}

// NewPaymentService creates a PaymentService.
func NewPaymentService(db *database.Database, now Clock) *PaymentService {
	if now == nil {
		now = time.Now
	}
	return &PaymentService{db: db, now: now}
}

// ListByPurchase returns the installments of a purchase ordered by number.
func (s *PaymentService) ListByPurchase(ctx context.Context, purchaseID uint) ([]models.Payment, error) {
	payments, err := database.GetByIndex[models.Payment](ctx, s.db, "compra_id", purchaseID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].Number < payments[j].Number
	})
	return payments, nil
}

// ListOverdue returns every pending installment due before today.
func (s *PaymentService) ListOverdue(ctx context.Context) ([]models.Payment, error) {
	pending, err := database.GetByIndex[models.Payment](ctx, s.db, "status", models.PaymentStatusPending)
	if err != nil {
		return nil, err
	}

	now := today(s.now)
	overdue := make([]models.Payment, 0, len(pending))
	for _, p := range pending {
		if p.IsOverdue(now) {
			overdue = append(overdue, p)
		}
	}
	return overdue, nil
}

// MarkPaid settles one installment on paidDate (today when empty). When it was the
// last pending installment of its purchase, the purchase becomes quitado.
func (s *PaymentService) MarkPaid(ctx context.Context, id uint, paidDate string) (*models.Payment, error) {
	if paidDate == "" {
		paidDate = today(s.now)
	} else if _, err := models.ParseDate(paidDate); err != nil {
		return nil, invalid("data de pagamento deve estar no formato AAAA-MM-DD")
	}

	var paid *models.Payment
	err := s.db.Transaction(ctx, func(tx *database.Tx) error {
		payment, err := database.GetByID[models.Payment](ctx, tx, id)
		if err != nil {
			return err
		}
		if payment.Status == models.PaymentStatusPaid {
			return ErrPaymentAlreadyPaid
		}

		paid, err = database.Update[models.Payment](ctx, tx, id, map[string]interface{}{
			"status":         models.PaymentStatusPaid,
			"data_pagamento": paidDate,
		})
		if err != nil {
			return err
		}

		siblings, err := database.GetByIndex[models.Payment](ctx, tx, "compra_id", payment.PurchaseID)
		if err != nil {
			return err
		}
		for _, p := range siblings {
			if p.Status != models.PaymentStatusPaid {
				return nil
			}
		}

		_, err = database.Update[models.Purchase](ctx, tx, payment.PurchaseID, map[string]interface{}{
			"status": models.PurchaseStatusSettled,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// CollectionQueue lists the installments due today or overdue, joined with their
// purchase, card and customer, oldest first.
func (s *PaymentService) CollectionQueue(ctx context.Context, filter CollectionFilter) ([]CollectionItem, error) {
	switch filter.Bucket {
	case "", BucketDueToday, BucketOverdue:
	default:
		return nil, invalid("situação deve ser um de: vencer_hoje vencido")
	}

	pending, err := database.GetByIndex[models.Payment](ctx, s.db, "status", models.PaymentStatusPending)
	if err != nil {
		return nil, err
	}

	now := today(s.now)
	term := strings.ToLower(strings.TrimSpace(filter.Term))
	purchases := make(map[uint]*models.Purchase)
	cards := make(map[uint]*models.Card)
	customers := make(map[uint]*models.Customer)

	items := make([]CollectionItem, 0)
	for _, p := range pending {
		bucket := bucketOf(p, now)
		if bucket == "" || (filter.Bucket != "" && bucket != filter.Bucket) {
			continue
		}

		purchase, err := cached(ctx, s.db, purchases, p.PurchaseID)
		if err != nil {
			return nil, err
		}
		card, err := cached(ctx, s.db, cards, purchase.CardID)
		if err != nil {
			return nil, err
		}
		customer, err := cached(ctx, s.db, customers, card.CustomerID)
		if err != nil {
			return nil, err
		}

		if term != "" &&
			!strings.Contains(strings.ToLower(customer.Name), term) &&
			!strings.Contains(customer.NationalID, term) &&
			!strings.Contains(customer.Phone, term) &&
			!strings.Contains(strings.ToLower(card.Number), term) {
			continue
		}

		days := 0
		if bucket == BucketOverdue {
			if days, err = models.DaysBetween(p.DueDate, now); err != nil {
				return nil, err
			}
		}

		items = append(items, CollectionItem{
			Payment:     p,
			Purchase:    *purchase,
			Card:        *card,
			Customer:    *customer,
			Bucket:      bucket,
			DaysOverdue: days,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Payment.DueDate != items[j].Payment.DueDate {
			return items[i].Payment.DueDate < items[j].Payment.DueDate
		}
		return items[i].Payment.ID < items[j].Payment.ID
	})
	return items, nil
}

func bucketOf(p models.Payment, today string) CollectionBucket {
	switch {
	case p.Status != models.PaymentStatusPending:
		return ""
	case p.DueDate == today:
		return BucketDueToday
	case p.DueDate < today:
		return BucketOverdue
	default:
		return ""
	}
}

// cached loads a record by key once per call site.
func cached[T database.Record](ctx context.Context, db *database.Database, seen map[uint]*T, id uint) (*T, error) {
	if rec, ok := seen[id]; ok {
		return rec, nil
	}
	rec, err := database.GetByID[T](ctx, db, id)
	if err != nil {
		return nil, err
	}
	seen[id] = rec
	return rec, nil
}
