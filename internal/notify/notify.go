// Package notify renders and sends outbound email.
package notify

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	html "github.com/gofiber/template/html/v2"
	"go.uber.org/zap"

	applog "rentspace/internal/log"
)

//go:embed templates/*.html
var templateFS embed.FS

type Message struct {
	To      string
	ReplyTo string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// LogMailer only records messages; it is the default when no SMTP host is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, m Message) error {
	applog.L().Info("mail.outbound",
		zap.String("to", m.To),
		zap.String("subject", m.Subject),
		zap.Int("bytes", len(m.HTML)),
	)
	return nil
}

type SMTPMailer struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// headerSafe drops line breaks so a value cannot start a new header.
var headerSafe = strings.NewReplacer("\r", "", "\n", "")

func (s SMTPMailer) compose(m Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", headerSafe.Replace(s.From))
	fmt.Fprintf(&b, "To: %s\r\n", headerSafe.Replace(m.To))
	if m.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", headerSafe.Replace(m.ReplyTo))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", headerSafe.Replace(m.Subject))
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(m.HTML)
	return []byte(b.String())
}

func (s SMTPMailer) Send(_ context.Context, m Message) error {
	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}
	addr := s.Host + ":" + strconv.Itoa(s.Port)
	return smtp.SendMail(addr, auth, headerSafe.Replace(s.From), []string{headerSafe.Replace(m.To)}, s.compose(m))
}

// ContactRequest is the public contact form.
type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=80,excludesall=\r\n"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,max=20"`
	Subject string `json:"subject" validate:"required,max=120,excludesall=\r\n"`
	Message string `json:"message" validate:"required,max=4000"`
}

type Notifier struct {
	views   *html.Engine
	mailer  Mailer
	support string
	now     func() time.Time
}

func NewNotifier(mailer Mailer, supportMailbox string) (*Notifier, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	if err := engine.Load(); err != nil {
		return nil, err
	}
	return &Notifier{views: engine, mailer: mailer, support: supportMailbox, now: time.Now}, nil
}

func (n *Notifier) render(name string, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := n.views.Render(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// SendContact mails the request to the support mailbox and an acknowledgement to the requester.
// Both are attempted; any failure is returned.
func (n *Notifier) SendContact(ctx context.Context, req ContactRequest) error {
	data := map[string]any{
		"Name":       req.Name,
		"Email":      req.Email,
		"Phone":      req.Phone,
		"Subject":    req.Subject,
		"Message":    req.Message,
		"ReceivedAt": n.now().UTC().Format(time.RFC1123),
	}
	toSupport, err := n.render("support_request", data)
	if err != nil {
		return err
	}
	ack, err := n.render("support_ack", data)
	if err != nil {
		return err
	}
	errSupport := n.mailer.Send(ctx, Message{
		To:      n.support,
		ReplyTo: req.Email,
		Subject: "[Contact] " + req.Subject,
		HTML:    toSupport,
	})
	errAck := n.mailer.Send(ctx, Message{
		To:      req.Email,
		Subject: "We received your message",
		HTML:    ack,
	})
	return errors.Join(errSupport, errAck)
}
