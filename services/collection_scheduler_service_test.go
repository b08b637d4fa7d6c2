package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"crediario/models"
	"crediario/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []*gomail.Message
	err  error
}

func (m *fakeMailer) DialAndSend(msgs ...*gomail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msgs...)
	return nil
}

func messageBody(t *testing.T, m *gomail.Message) string {
	t.Helper()
	var buf strings.Builder
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestCollectionRunMailsOverdueCustomersWithEmail(t *testing.T) {
	mailer := &fakeMailer{}
	f := newTestFacade(t, "2024-04-15", NewEmailServiceWithMailer(mailer, "cobranca@loja.com.br"))
	ctx := context.Background()

	fx := seedPurchase(t, f, "2024-01-15")
	email := "ana@example.com"
	_, err := f.UpdateCustomer(ctx, fx.customer.ID, models.CustomerPatch{Email: &email})
	require.NoError(t, err)

	bruno, err := f.CreateCustomer(ctx, CreateCustomerDTO{Name: "Bruno", NationalID: "222"})
	require.NoError(t, err)
	card, err := f.CreateCard(ctx, CreateCardDTO{CustomerID: bruno.ID})
	require.NoError(t, err)
	_, err = f.RegisterPurchase(ctx, RegisterPurchaseDTO{
		CardID:       card.ID,
		Description:  "Televisor",
		TotalAmount:  fx.purchase.Purchase.TotalAmount,
		Installments: 2,
		PurchaseDate: "2024-01-01",
	})
	require.NoError(t, err)

	scheduler := f.NewCollectionScheduler("")
	report, err := scheduler.RunOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Customers)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Failed)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"ana@example.com"}, mailer.sent[0].GetHeader("To"))
	body := messageBody(t, mailer.sent[0])
	assert.Contains(t, body, "Geladeira")
	assert.Contains(t, body, "15/02/2024")
	assert.Contains(t, body, "15/03/2024")

	overdue, err := f.ListOverduePayments(ctx)
	require.NoError(t, err)
	for _, p := range overdue {
		assert.Equal(t, models.PaymentStatusPending, p.Status)
	}
}

func TestCollectionRunCountsSendFailures(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp down")}
	f := newTestFacade(t, "2024-04-15", NewEmailServiceWithMailer(mailer, "cobranca@loja.com.br"))
	ctx := context.Background()

	fx := seedPurchase(t, f, "2024-01-15")
	email := "ana@example.com"
	_, err := f.UpdateCustomer(ctx, fx.customer.ID, models.CustomerPatch{Email: &email})
	require.NoError(t, err)

	scheduler := f.NewCollectionScheduler("@daily")
	scheduler.metrics = utils.NewMetrics()
	report, err := scheduler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Sent)

	errorTypes := scheduler.metrics.GetMetricsSnapshot()["error_types"].(map[string]int64)
	assert.EqualValues(t, 1, errorTypes["collection_notice"])
}

func TestCollectionRunWithoutSMTP(t *testing.T) {
	f := newTestFacade(t, "2024-04-15", &EmailService{})
	fx := seedPurchase(t, f, "2024-01-15")
	email := "ana@example.com"
	_, err := f.UpdateCustomer(context.Background(), fx.customer.ID, models.CustomerPatch{Email: &email})
	require.NoError(t, err)

	report, err := f.NewCollectionScheduler("").RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
}

func TestCollectionSchedulerRejectsBadSchedule(t *testing.T) {
	f := newTestFacade(t, "2024-04-15", nil)

	scheduler := f.NewCollectionScheduler("every tuesday")
	assert.Error(t, scheduler.Start())
}

func TestSendEmailDisabled(t *testing.T) {
	var s *EmailService
	assert.False(t, s.Enabled())
	assert.ErrorIs(t, (&EmailService{}).SendEmail("a@b.c", "x", "y"), ErrEmailDisabled)
}

func TestOverdueNoticeEscapesRecordText(t *testing.T) {
	mailer := &fakeMailer{}
	s := NewEmailServiceWithMailer(mailer, "cobranca@loja.com.br")

	items := []CollectionItem{{
		Payment:     models.Payment{Number: 2, DueDate: "2024-03-15", Amount: decimal.NewFromInt(100)},
		Purchase:    models.Purchase{Description: "Sofa & <b>Mesa</b>", Installments: 10},
		DaysOverdue: 31,
	}}
	require.NoError(t, s.SendOverdueNotice("ana@example.com", "Ana <script>", items))

	require.Len(t, mailer.sent, 1)
	body := messageBody(t, mailer.sent[0])
	assert.Contains(t, body, "Ana &lt;script&gt;")
	assert.Contains(t, body, "Sofa &amp; &lt;b&gt;Mesa&lt;/b&gt;")
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "<td>2/10</td>")
	assert.Contains(t, body, "<td>15/03/2024</td>")
	assert.Contains(t, body, "<td>R$ 100.00</td>")
}
