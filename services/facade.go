package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crediario/database"
	"crediario/models"
	"crediario/utils"
)

// Failure is the error returned by every Facade operation. Message is meant for
// the end user; Err keeps the cause for errors.Is checks.
type Failure struct {
	Op      string
	Message string
	Err     error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Op, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// failureMessages holds the fallback message of each operation.
var failureMessages = map[string]string{
	"open":                  "Erro ao abrir o banco de dados",
	"create_customer":       "Erro ao cadastrar cliente",
	"list_customers":        "Erro ao buscar clientes",
	"get_customer":          "Erro ao buscar cliente",
	"update_customer":       "Erro ao atualizar cliente",
	"create_card":           "Erro ao criar cartão",
	"list_cards":            "Erro ao buscar cartões",
	"update_card":           "Erro ao atualizar cartão",
	"register_purchase":     "Erro ao registrar compra",
	"list_purchases":        "Erro ao buscar compras",
	"list_payments":         "Erro ao buscar parcelas",
	"list_overdue_payments": "Erro ao buscar parcelas vencidas",
	"mark_payment_paid":     "Erro ao registrar pagamento",
	"collection_queue":      "Erro ao buscar cobranças",
	"get_statistics":        "Erro ao carregar estatísticas",
}

// FacadeOption configures a Facade.
type FacadeOption func(*Facade)

// WithClock replaces the wall clock used for "today".
func WithClock(clock Clock) FacadeOption {
	return func(f *Facade) {
		f.now = clock
	}
}

// Facade is the single entry point used by the HTTP layer.
type Facade struct {
	db      *database.Database
	email   *EmailService
	now     Clock
	metrics *utils.Metrics

	customers  *CustomerService
	cards      *CardService
	purchases  *PurchaseService
	payments   *PaymentService
	statistics *StatisticsService
}

// NewFacade wires the services over db. email may be nil.
func NewFacade(db *database.Database, email *EmailService, opts ...FacadeOption) *Facade {
	f := &Facade{
		db:      db,
		email:   email,
		now:     time.Now,
		metrics: utils.GetMetrics(),
	}
	for _, opt := range opts {
		opt(f)
	}

	f.customers = NewCustomerService(db, f.now)
	f.cards = NewCardService(db, f.now)
	f.purchases = NewPurchaseService(db, f.now)
	f.payments = NewPaymentService(db, f.now)
	f.statistics = NewStatisticsService(db, f.now)
	return f
}

// Open opens the store. A failure is terminal for the process.
func (f *Facade) Open(ctx context.Context) error {
	start := time.Now()
	return f.finish("open", start, f.db.Open(ctx))
}

// Close releases the store.
func (f *Facade) Close() error {
	return f.db.Close()
}

// NewCollectionScheduler builds the overdue notice job over this facade's data.
func (f *Facade) NewCollectionScheduler(schedule string) *CollectionSchedulerService {
	s := NewCollectionSchedulerService(f.payments, f.email, schedule)
	s.metrics = f.metrics
	return s
}

// CreateCustomer registers a new customer.
func (f *Facade) CreateCustomer(ctx context.Context, dto CreateCustomerDTO) (*models.Customer, error) {
	start := time.Now()
	customer, err := f.customers.Create(ctx, dto)
	return customer, f.finish("create_customer", start, err)
}

// ListCustomers returns the customers matching filter.
func (f *Facade) ListCustomers(ctx context.Context, filter CustomerFilter) ([]models.Customer, error) {
	start := time.Now()
	customers, err := f.customers.Find(ctx, filter)
	return customers, f.finish("list_customers", start, err)
}

// GetCustomer returns one customer.
func (f *Facade) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	start := time.Now()
	customer, err := f.customers.Get(ctx, id)
	return customer, f.finish("get_customer", start, err)
}

// UpdateCustomer applies a partial update to a customer.
func (f *Facade) UpdateCustomer(ctx context.Context, id uint, patch models.CustomerPatch) (*models.Customer, error) {
	start := time.Now()
	customer, err := f.customers.Update(ctx, id, patch)
	return customer, f.finish("update_customer", start, err)
}

// CreateCard issues a card to an existing customer.
func (f *Facade) CreateCard(ctx context.Context, dto CreateCardDTO) (*models.Card, error) {
	start := time.Now()
	card, err := f.cards.Create(ctx, dto)
	return card, f.finish("create_card", start, err)
}

// ListCards returns every card.
func (f *Facade) ListCards(ctx context.Context) ([]models.Card, error) {
	start := time.Now()
	cards, err := f.cards.List(ctx)
	return cards, f.finish("list_cards", start, err)
}

// ListCardsByCustomer returns the cards of one customer.
func (f *Facade) ListCardsByCustomer(ctx context.Context, customerID uint) ([]models.Card, error) {
	start := time.Now()
	cards, err := f.cards.ListByCustomer(ctx, customerID)
	return cards, f.finish("list_cards", start, err)
}

// UpdateCard applies a partial update to a card.
func (f *Facade) UpdateCard(ctx context.Context, id uint, patch models.CardPatch) (*models.Card, error) {
	start := time.Now()
	card, err := f.cards.Update(ctx, id, patch)
	return card, f.finish("update_card", start, err)
}

// RegisterPurchase stores a purchase and generates its installments in one step.
func (f *Facade) RegisterPurchase(ctx context.Context, dto RegisterPurchaseDTO) (*PurchaseResult, error) {
	start := time.Now()
	result, err := f.purchases.Register(ctx, dto)
	return result, f.finish("register_purchase", start, err)
}

// ListPurchasesByCard returns the purchases made with a card.
func (f *Facade) ListPurchasesByCard(ctx context.Context, cardID uint) ([]models.Purchase, error) {
	start := time.Now()
	purchases, err := f.purchases.ListByCard(ctx, cardID)
	return purchases, f.finish("list_purchases", start, err)
}

// ListPayments returns the installments of a purchase.
func (f *Facade) ListPayments(ctx context.Context, purchaseID uint) ([]models.Payment, error) {
	start := time.Now()
	payments, err := f.payments.ListByPurchase(ctx, purchaseID)
	return payments, f.finish("list_payments", start, err)
}

// ListOverduePayments returns pending installments due before today.
func (f *Facade) ListOverduePayments(ctx context.Context) ([]models.Payment, error) {
	start := time.Now()
	payments, err := f.payments.ListOverdue(ctx)
	return payments, f.finish("list_overdue_payments", start, err)
}

// MarkPaymentPaid records an installment as paid on paidDate, today when empty.
func (f *Facade) MarkPaymentPaid(ctx context.Context, id uint, paidDate string) (*models.Payment, error) {
	start := time.Now()
	payment, err := f.payments.MarkPaid(ctx, id, paidDate)
	return payment, f.finish("mark_payment_paid", start, err)
}

// CollectionQueue returns the installments to collect today or overdue.
func (f *Facade) CollectionQueue(ctx context.Context, filter CollectionFilter) ([]CollectionItem, error) {
	start := time.Now()
	items, err := f.payments.CollectionQueue(ctx, filter)
	return items, f.finish("collection_queue", start, err)
}

// GetStatistics returns the dashboard counters.
func (f *Facade) GetStatistics(ctx context.Context) (*Statistics, error) {
	start := time.Now()
	stats, err := f.statistics.Get(ctx)
	return stats, f.finish("get_statistics", start, err)
}

// Metrics returns a snapshot of the operation metrics.
func (f *Facade) Metrics() map[string]interface{} {
	return f.metrics.GetMetricsSnapshot()
}

// finish records the outcome of op and converts err into a *Failure.
func (f *Facade) finish(op string, start time.Time, err error) error {
	f.metrics.RecordOperation(op, time.Since(start), err)
	if err == nil {
		return nil
	}
	utils.LogOperation(op, start, err)
	return &Failure{Op: op, Message: userMessage(op, err), Err: err}
}

func userMessage(op string, err error) string {
	var validationErr *ValidationError
	var constraintErr *database.ConstraintError

	switch {
	case errors.As(err, &validationErr):
		return validationErr.Error()
	case errors.Is(err, ErrPaymentAlreadyPaid):
		return "Esta parcela já foi paga"
	case errors.Is(err, database.ErrNotInitialized):
		return "Banco de dados não inicializado"
	case errors.As(err, &constraintErr):
		switch constraintErr.Index {
		case "cpf":
			return "Já existe um cliente cadastrado com este CPF"
		case "numero_cartao":
			return "Já existe um cartão com este número"
		}
		return "Registro duplicado"
	case errors.Is(err, database.ErrNotFound):
		return notFoundMessage(err)
	}

	if msg, ok := failureMessages[op]; ok {
		return msg
	}
	return "Erro inesperado"
}

func notFoundMessage(err error) string {
	var notFound *database.NotFoundError
	if errors.As(err, &notFound) {
		switch notFound.Collection {
		case "clientes":
			return "Cliente não encontrado"
		case "cartoes":
			return "Cartão não encontrado"
		case "compras":
			return "Compra não encontrada"
		case "pagamentos":
			return "Parcela não encontrada"
		}
	}
	return "Registro não encontrado"
}
