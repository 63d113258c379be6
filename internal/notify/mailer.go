package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var defaultSubjects = map[string]string{
	TemplateOrderStatus:  "Your order status has changed",
	TemplateDailyReport:  "Daily orders report",
	TemplateContactReply: "We received your message",
	TemplateWeeklyWishes: "Weekly wishlist report",
}

// Render executes the named template against the task context.
func Render(task Task) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, task.Template+".html", task.Context); err != nil {
		return "", fmt.Errorf("render %s: %w", task.Template, err)
	}
	return buf.String(), nil
}

type Sender interface {
	Send(ctx context.Context, task Task) error
}

type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (m *SMTPMailer) Send(ctx context.Context, task Task) error {
	if len(task.To) == 0 {
		return fmt.Errorf("task %s has no recipients", task.Template)
	}
	body, err := Render(task)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return err
	}
	if err := msg.To(task.To...); err != nil {
		return err
	}
	subject := task.Subject
	if subject == "" {
		subject = defaultSubjects[task.Template]
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)

	opts := []mail.Option{mail.WithPort(m.Port), mail.WithTLSPolicy(mail.TLSOpportunistic)}
	if m.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(m.Username),
			mail.WithPassword(m.Password),
		)
	}
	client, err := mail.NewClient(m.Host, opts...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}
