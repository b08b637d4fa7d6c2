package services

import (
	"errors"
	"fmt"
	"html/template"
	"strings"

	"crediario/config"

	"gopkg.in/gomail.v2"
)

// ErrEmailDisabled is returned when no SMTP server is configured.
var ErrEmailDisabled = errors.New("email delivery is not configured")

// Mailer sends prepared messages. *gomail.Dialer satisfies it.
type Mailer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailService sends collection notices.
type EmailService struct {
	mailer Mailer
	from   string
}

// NewEmailService returns a service backed by the configured SMTP server.
// Without SMTP settings every send fails with ErrEmailDisabled.
func NewEmailService(cfg *config.Config) *EmailService {
	if !cfg.SMTPEnabled() {
		return &EmailService{}
	}
	dialer := gomail.NewDialer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
	)
	return NewEmailServiceWithMailer(dialer, cfg.SMTP.From)
}

// NewEmailServiceWithMailer returns a service that sends through mailer.
func NewEmailServiceWithMailer(mailer Mailer, from string) *EmailService {
	return &EmailService{mailer: mailer, from: from}
}

// Enabled reports whether messages can be sent.
func (s *EmailService) Enabled() bool {
	return s != nil && s.mailer != nil
}

// SendEmail sends an HTML message.
func (s *EmailService) SendEmail(to, subject, body string) error {
	if !s.Enabled() {
		return ErrEmailDisabled
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.mailer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

var overdueNoticeTemplate = template.Must(template.New("overdue").Funcs(template.FuncMap{
	"date": formatBrazilianDate,
}).Parse(`
<h2>Olá, {{.Name}}</h2>
<p>Identificamos parcelas do seu crediário em atraso:</p>
<table>
<tr><th>Compra</th><th>Parcela</th><th>Vencimento</th><th>Valor</th><th>Dias de atraso</th></tr>
{{range .Items}}<tr>
<td>{{.Purchase.Description}}</td>
<td>{{.Payment.Number}}/{{.Purchase.Installments}}</td>
<td>{{date .Payment.DueDate}}</td>
<td>R$ {{.Payment.Amount.StringFixed 2}}</td>
<td>{{.DaysOverdue}}</td>
</tr>
{{end}}</table>
<p>Se o pagamento já foi realizado, por favor desconsidere esta mensagem.</p>
`))

// SendOverdueNotice tells a customer which installments are past due.
func (s *EmailService) SendOverdueNotice(to, customerName string, items []CollectionItem) error {
	var body strings.Builder
	err := overdueNoticeTemplate.Execute(&body, struct {
		Name  string
		Items []CollectionItem
	}{customerName, items})
	if err != nil {
		return fmt.Errorf("failed to render overdue notice: %w", err)
	}

	return s.SendEmail(to, "Aviso de parcelas em atraso", body.String())
}

// formatBrazilianDate turns YYYY-MM-DD into DD/MM/YYYY.
func formatBrazilianDate(date string) string {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return date
	}
	return parts[2] + "/" + parts[1] + "/" + parts[0]
}
