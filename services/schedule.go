package services

import (
	"fmt"

	"crediario/models"

	"github.com/shopspring/decimal"
)

// GeneratePaymentSchedule derives the installments of a purchase: one per month,
// due on the purchase date advanced by i calendar months, each for valor_parcela.
func GeneratePaymentSchedule(purchase models.Purchase) ([]models.Payment, error) {
	if purchase.Installments <= 0 {
		return nil, invalid(fmt.Sprintf("número de parcelas inválido: %d", purchase.Installments))
	}

	start, err := models.ParseDate(purchase.PurchaseDate)
	if err != nil {
		return nil, invalid("data da compra deve estar no formato AAAA-MM-DD")
	}

	payments := make([]models.Payment, purchase.Installments)
	for i := 0; i < purchase.Installments; i++ {
		payments[i] = models.Payment{
			PurchaseID: purchase.ID,
			Number:     i + 1,
			Amount:     purchase.InstallmentAmount,
			DueDate:    models.FormatDate(start.AddDate(0, i+1, 0)),
			Status:     models.PaymentStatusPending,
		}
	}

	return payments, nil
}

// installmentAmount returns the per-installment amount for a purchase. A zero
// amount is derived from the total; an explicit one must add up to the total
// within one cent per installment.
func installmentAmount(total, installment decimal.Decimal, count int) (decimal.Decimal, error) {
	n := decimal.NewFromInt(int64(count))
	if installment.IsZero() {
		return total.DivRound(n, 2), nil
	}

	diff := installment.Mul(n).Sub(total).Abs()
	if diff.GreaterThan(decimal.New(1, -2).Mul(n)) {
		return decimal.Zero, invalid(fmt.Sprintf(
			"valor da parcela (%s x %d) não corresponde ao valor total %s",
			installment.StringFixed(2), count, total.StringFixed(2)))
	}
	return installment, nil
}
