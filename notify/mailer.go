package notify

import (
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"
)

// Mailer sends transactional order mail. Implementations must be safe for
// concurrent use; callers treat every send as best-effort.
type Mailer interface {
	SendOrderStatus(to, name, orderID, status string) error
	SendPaymentConfirmation(to, name, orderID string, amount float64) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPMailer struct {
	cfg    Config
	dialer *gomail.Dialer
}

func NewSMTPMailer(cfg Config) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (m *SMTPMailer) send(to, subject, html string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)
	return m.dialer.DialAndSend(msg)
}

func (m *SMTPMailer) SendOrderStatus(to, name, orderID, status string) error {
	subject := fmt.Sprintf("Your order has been %s", status)
	return m.send(to, subject, OrderStatusBody(name, orderID, status))
}

func (m *SMTPMailer) SendPaymentConfirmation(to, name, orderID string, amount float64) error {
	return m.send(to, "Your payment was received", PaymentConfirmationBody(name, orderID, amount))
}

func OrderStatusBody(name, orderID, status string) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; line-height: 1.6;">
  <h2>Order %s</h2>
  <p>Hi %s,</p>
  <p>Your order with ID <strong>%s</strong> has been <strong>%s</strong> by our admin.</p>
  <p>If you have any questions, feel free to contact our support team.</p>
  <br/>
  <p>Thank you for shopping with us.</p>
</div>`, status, name, orderID, status)
}

func PaymentConfirmationBody(name, orderID string, amount float64) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; line-height: 1.6;">
  <h2>Payment received</h2>
  <p>Hi %s,</p>
  <p>We received your payment of <strong>%.2f</strong> for order <strong>%s</strong>.</p>
  <p>Your order is confirmed and will be processed shortly.</p>
  <br/>
  <p>Thank you for shopping with us.</p>
</div>`, name, amount, orderID)
}

// Async runs a send in its own goroutine. Failures are logged and never
// reach the request path.
func Async(task func() error) {
	go func() {
		if err := task(); err != nil {
			slog.Error("notification send failed", "error", err)
		}
	}()
}
