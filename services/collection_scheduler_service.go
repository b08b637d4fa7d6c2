package services

import (
	"context"
	"fmt"
	"time"

	"crediario/utils"

	"github.com/robfig/cron/v3"
)

// CollectionSchedulerService periodically mails overdue notices. It only reads
// payments; their stored status is never changed.
type CollectionSchedulerService struct {
	payments *PaymentService
	email    *EmailService
	schedule string
	cron     *cron.Cron
	metrics  *utils.Metrics
}

// NoticeReport summarizes one collection run.
type NoticeReport struct {
	Customers int
	Sent      int
	Skipped   int
	Failed    int
}

// NewCollectionSchedulerService builds a job for the given cron schedule, "@daily" when empty.
func NewCollectionSchedulerService(payments *PaymentService, email *EmailService, schedule string) *CollectionSchedulerService {
	if schedule == "" {
		schedule = "@daily"
	}
	return &CollectionSchedulerService{
		payments: payments,
		email:    email,
		schedule: schedule,
		cron:     cron.New(),
		metrics:  utils.GetMetrics(),
	}
}

// Start registers the job and starts the cron runner.
func (s *CollectionSchedulerService) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		report, err := s.RunOnce(ctx)
		if err != nil {
			utils.LogError("Collection run failed: %v", err)
			return
		}
		utils.LogInfo("Collection run: %d customers, %d sent, %d skipped, %d failed",
			report.Customers, report.Sent, report.Skipped, report.Failed)
	})
	if err != nil {
		return fmt.Errorf("invalid collection schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	utils.LogInfo("Collection scheduler started (%s)", s.schedule)
	return nil
}

// Stop halts the runner and waits for a running job to finish.
func (s *CollectionSchedulerService) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce mails one notice per overdue customer that has an email address.
func (s *CollectionSchedulerService) RunOnce(ctx context.Context) (*NoticeReport, error) {
	items, err := s.payments.CollectionQueue(ctx, CollectionFilter{Bucket: BucketOverdue})
	if err != nil {
		return nil, err
	}

	type group struct {
		name  string
		email string
		items []CollectionItem
	}
	var order []uint
	groups := make(map[uint]*group)
	for _, item := range items {
		g, ok := groups[item.Customer.ID]
		if !ok {
			g = &group{name: item.Customer.Name}
			if item.Customer.Email != nil {
				g.email = *item.Customer.Email
			}
			groups[item.Customer.ID] = g
			order = append(order, item.Customer.ID)
		}
		g.items = append(g.items, item)
	}

	report := &NoticeReport{Customers: len(order)}
	for _, id := range order {
		g := groups[id]
		if g.email == "" || !s.email.Enabled() {
			report.Skipped++
			continue
		}
		if err := s.email.SendOverdueNotice(g.email, g.name, g.items); err != nil {
			utils.LogError("Failed to send overdue notice to customer %d: %v", id, err)
			s.metrics.RecordError("collection_notice")
			report.Failed++
			continue
		}
		report.Sent++
	}
	return report, nil
}
