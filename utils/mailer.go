package utils

import (
	"fmt"
	"net/smtp"
	"os"
	"strings"
	"time"

	"github.com/legacieweb/payme/models"
)

// AdminEmail returns the address operational notifications go to. Falls back
// to the sending account when ADMIN_EMAIL is not set.
func AdminEmail() string {
	if v := strings.TrimSpace(os.Getenv("ADMIN_EMAIL")); v != "" {
		return v
	}
	return os.Getenv("EMAIL_USER")
}

// Mailer sends HTML email over SMTP. Configured from EMAIL_HOST, EMAIL_PORT,
// EMAIL_USER and EMAIL_PASS.
type Mailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

func NewMailerFromEnv() (*Mailer, error) {
	user := os.Getenv("EMAIL_USER")
	pass := os.Getenv("EMAIL_PASS")
	if user == "" || pass == "" {
		return nil, fmt.Errorf("EMAIL_USER and EMAIL_PASS are required")
	}
	host := os.Getenv("EMAIL_HOST")
	if host == "" {
		host = "smtp.gmail.com"
	}
	port := os.Getenv("EMAIL_PORT")
	if port == "" {
		port = "587"
	}
	from := os.Getenv("EMAIL_FROM")
	if from == "" {
		from = user
	}
	return &Mailer{host: host, port: port, username: user, password: pass, from: from}, nil
}

func (m *Mailer) Send(to, subject, html string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(html)

	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	if err := smtp.SendMail(m.host+":"+m.port, auth, m.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

func mailRow(shaded bool, label, value string) string {
	bg := ""
	if shaded {
		bg = ` style="background: #f5f5f5;"`
	}
	return fmt.Sprintf(`<tr%s><td style="padding: 10px; border: 1px solid #ddd;"><strong>%s:</strong></td><td style="padding: 10px; border: 1px solid #ddd;">%s</td></tr>`, bg, label, value)
}

func mailWrap(heading, headingColor, intro, table, footer string) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
<h2 style="color: %s;">%s</h2>
<p>%s</p>
<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">%s</table>
%s
<p style="margin-top: 30px; color: #666;">Best regards,<br>Payme Team</p>
</div>`, headingColor, heading, intro, table, footer)
}

func formatAmount(currency string, amount float64) string {
	return fmt.Sprintf("%s %.2f", currency, amount)
}

func formatPaidAt(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("Jan 2, 2006 15:04 MST")
}

// PaymentReceiptHTML is the customer-facing receipt for a new payment.
func PaymentReceiptHTML(p *models.Payment) string {
	table := mailRow(true, "Reference", p.Reference) +
		mailRow(false, "Amount", formatAmount(p.Currency, p.Amount)) +
		mailRow(true, "Date", formatPaidAt(p.PaidAt)) +
		mailRow(false, "Status", `<span style="color: #10b981;">Successful</span>`)
	return mailWrap("Payment Successful!", "#10b981",
		"Thank you for your payment. Here are your transaction details:",
		table,
		"<p>Keep this receipt for your records.</p>")
}

// AdminPaymentAlertHTML notifies the admin of a newly recorded payment.
func AdminPaymentAlertHTML(p *models.Payment) string {
	table := mailRow(true, "Customer Name", p.Name) +
		mailRow(false, "Email", p.Email) +
		mailRow(true, "Reference", p.Reference) +
		mailRow(false, "Amount", formatAmount(p.Currency, p.Amount)) +
		mailRow(true, "Date", formatPaidAt(p.PaidAt))
	return mailWrap("New Payment Received!", "#10b981",
		"A new payment has been processed. Details below:",
		table, "")
}

// AdminRefundAlertHTML notifies the admin of a newly submitted refund request.
func AdminRefundAlertHTML(r *models.RefundRequest) string {
	table := mailRow(true, "Customer Name", r.CustomerName) +
		mailRow(false, "Email", r.CustomerEmail) +
		mailRow(true, "Reference", r.PaymentReference) +
		mailRow(false, "Amount", formatAmount(r.Currency, r.Amount)) +
		mailRow(true, "Reason", r.Reason)
	return mailWrap("New Refund Request", "#f59e0b",
		"A new refund request has been submitted. Details below:",
		table, "")
}

// RefundDecisionHTML tells the customer the outcome of their refund request.
// Approved and rejected notices share the layout and differ in wording.
func RefundDecisionHTML(r *models.RefundRequest) string {
	statusColor := "#ef4444"
	statusText := "Rejected"
	footer := ""
	if r.Status == models.RefundApproved {
		statusColor = "#10b981"
		statusText = "Approved"
		footer = `<p style="color: #10b981; font-weight: bold;">Your refund will be processed within 5-7 business days.</p>`
	}

	table := mailRow(true, "Reference", r.PaymentReference) +
		mailRow(false, "Amount", formatAmount(r.Currency, r.Amount)) +
		mailRow(true, "Status", fmt.Sprintf(`<span style="color: %s; font-weight: bold;">%s</span>`, statusColor, statusText))
	if r.AdminNotes != "" {
		table += mailRow(false, "Notes", r.AdminNotes)
	}

	intro := fmt.Sprintf("Hello %s,</p><p>Your refund request has been <strong>%s</strong>.",
		r.CustomerName, strings.ToLower(statusText))
	return mailWrap(fmt.Sprintf("Refund Request %s", statusText), statusColor, intro, table, footer)
}
