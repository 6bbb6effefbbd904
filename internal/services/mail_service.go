package services

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/smtp"
	"strconv"
	"strings"

	"quill/internal/config"
	"quill/internal/tasks"

	"go.uber.org/zap"
)

//go:embed templates/email/*.html
var emailTemplates embed.FS

// DigestPost is one entry of a newsletter email.
type DigestPost struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Excerpt string `json:"excerpt"`
}

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// MailService renders and sends transactional email. It runs inside the
// task worker, never on the request path.
type MailService struct {
	smtp       config.SMTP
	serverHost string
	resetHours int
	Enabled    bool
	send       SendFunc
	templates  *template.Template
	log        *zap.Logger
}

func NewMailService(cfg *config.Config, log *zap.Logger) *MailService {
	enabled := cfg.SMTP.Enabled()
	if !enabled {
		log.Warn("MailService disabled: missing SMTP settings")
	}

	return &MailService{
		smtp:       cfg.SMTP,
		serverHost: strings.TrimRight(cfg.ServerHost, "/"),
		resetHours: cfg.ResetTokenHours,
		Enabled:    enabled,
		send:       smtp.SendMail,
		templates:  template.Must(template.ParseFS(emailTemplates, "templates/email/*.html")),
		log:        log,
	}
}

// Register binds the email jobs to this service.
func (s *MailService) Register(reg *tasks.Registry) {
	reg.Handle(tasks.JobNewAccountEmail, func(ctx context.Context, p map[string]string) error {
		return s.SendNewAccountEmail(p["email"], p["full_name"])
	})
	reg.Handle(tasks.JobResetPasswordEmail, func(ctx context.Context, p map[string]string) error {
		return s.SendPasswordResetEmail(p["email"], p["token"])
	})
	reg.Handle(tasks.JobNewsletterEmail, func(ctx context.Context, p map[string]string) error {
		var posts []DigestPost
		if err := json.Unmarshal([]byte(p["posts"]), &posts); err != nil {
			return fmt.Errorf("decode newsletter posts: %w", err)
		}
		return s.SendNewsletter(p["email"], p["category"], posts)
	})
}

func (s *MailService) SendNewAccountEmail(email, fullName string) error {
	body, err := s.render("new_account.html", map[string]string{
		"ProjectName": s.smtp.FromName,
		"Email":       email,
		"FullName":    fullName,
		"Link":        s.serverHost,
	})
	if err != nil {
		return err
	}
	return s.deliver([]string{email}, s.smtp.FromName+" - new account for "+email, body)
}

func (s *MailService) SendPasswordResetEmail(email, token string) error {
	body, err := s.render("reset_password.html", map[string]string{
		"Email":      email,
		"Link":       s.serverHost + "/reset-password?token=" + token,
		"ValidHours": strconv.Itoa(s.resetHours),
	})
	if err != nil {
		return err
	}
	return s.deliver([]string{email}, s.smtp.FromName+" - password recovery for "+email, body)
}

func (s *MailService) SendNewsletter(email, category string, posts []DigestPost) error {
	body, err := s.render("newsletter.html", map[string]any{
		"Category": category,
		"Posts":    posts,
	})
	if err != nil {
		return err
	}
	return s.deliver([]string{email}, s.smtp.FromName+" - this week in "+category, body)
}

func (s *MailService) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (s *MailService) deliver(to []string, subject, body string) error {
	if !s.Enabled {
		s.log.Debug("mail disabled, not sending", zap.Strings("to", to), zap.String("subject", subject))
		return nil
	}

	var auth smtp.Auth
	if s.smtp.User != "" {
		auth = smtp.PlainAuth("", s.smtp.User, s.smtp.Password, s.smtp.Host)
	}
	addr := s.smtp.Host + ":" + s.smtp.Port

	mime := "MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n"
	msg := []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s <%s>\r\n"+
		"Subject: %s\r\n"+
		"%s%s", strings.Join(to, ","), s.smtp.FromName, s.smtp.From, subject, mime, body))

	if err := s.send(addr, auth, s.smtp.From, to, msg); err != nil {
		return fmt.Errorf("send mail to %v: %w", to, err)
	}
	s.log.Info("email sent", zap.Strings("to", to), zap.String("subject", subject))
	return nil
}
