package services

import (
	"context"
	"time"

	"crediario/database"
	"crediario/models"

	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"
)

// Statistics is the dashboard summary.
type Statistics struct {
	TotalCustomers  int             `json:"total_clientes"`
	ActiveCustomers int             `json:"clientes_ativos"`
	ActiveCards     int             `json:"cartoes_ativos"`
	OverdueCount    int             `json:"parcelas_vencidas"`
	OverdueAmount   decimal.Decimal `json:"valor_vencido"`
	DueTodayCount   int             `json:"vencendo_hoje"`
	MonthReceivable decimal.Decimal `json:"a_receber_mes"`
}

// StatisticsService computes the dashboard counters.
type StatisticsService struct {
	db  *database.Database
	now Clock
}

// NewStatisticsService creates a StatisticsService.
func NewStatisticsService(db *database.Database, clock Clock) *StatisticsService {
	if clock == nil {
		clock = time.Now
	}
	return &StatisticsService{db: db, now: clock}
}

// Get reads each collection separately; concurrent writes may land between the reads.
func (s *StatisticsService) Get(ctx context.Context) (*Statistics, error) {
	customers, err := database.GetAll[models.Customer](ctx, s.db)
	if err != nil {
		return nil, err
	}
	cards, err := database.GetAll[models.Card](ctx, s.db)
	if err != nil {
		return nil, err
	}
	pending, err := database.GetByIndex[models.Payment](ctx, s.db, "status", models.PaymentStatusPending)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		TotalCustomers:  len(customers),
		OverdueAmount:   decimal.Zero,
		MonthReceivable: decimal.Zero,
	}
	for _, c := range customers {
		if c.Status == models.CustomerStatusActive {
			stats.ActiveCustomers++
		}
	}
	for _, c := range cards {
		if c.Status == models.CardStatusActive {
			stats.ActiveCards++
		}
	}

	current := s.now()
	todayStr := models.FormatDate(current)
	month := now.With(current)
	monthStart := models.FormatDate(month.BeginningOfMonth())
	monthEnd := models.FormatDate(month.EndOfMonth())

	for _, p := range pending {
		switch {
		case p.IsOverdue(todayStr):
			stats.OverdueCount++
			stats.OverdueAmount = stats.OverdueAmount.Add(p.Amount)
		case p.DueDate == todayStr:
			stats.DueTodayCount++
		}
		if p.DueDate >= monthStart && p.DueDate <= monthEnd {
			stats.MonthReceivable = stats.MonthReceivable.Add(p.Amount)
		}
	}

	return stats, nil
}
