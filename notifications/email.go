package notifications

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/Dosada05/association-tournaments/repositories"
)

var ErrNoEmailAddress = errors.New("player has no email address")

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	// InsecureSkipVerify disables certificate checks for self-hosted relays.
	InsecureSkipVerify bool
	// Timeout bounds the whole SMTP conversation, dial included.
	Timeout time.Duration
}

const defaultSMTPTimeout = 10 * time.Second

// EmailNotifier mails a player, looking the address up in the member directory.
type EmailNotifier struct {
	cfg     SMTPConfig
	players repositories.PlayerRepository
	send    func(ctx context.Context, to, subject, htmlBody string) error
}

func NewEmailNotifier(cfg SMTPConfig, players repositories.PlayerRepository) *EmailNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSMTPTimeout
	}
	n := &EmailNotifier{cfg: cfg, players: players}
	n.send = n.sendEmail
	return n
}

var emailTemplate = template.Must(template.New("notification").Parse(
	`<p>Hello {{.Name}},</p><p>{{.Body}}</p>`))

func (n *EmailNotifier) Notify(ctx context.Context, recipientID, subject, body string) error {
	player, err := n.players.GetByID(ctx, recipientID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipient %s: %w", recipientID, err)
	}
	if player.Email == nil || strings.TrimSpace(*player.Email) == "" {
		return fmt.Errorf("recipient %s: %w", recipientID, ErrNoEmailAddress)
	}

	var html strings.Builder
	if err := emailTemplate.Execute(&html, struct{ Name, Body string }{player.DisplayName(), body}); err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}
	return n.send(ctx, *player.Email, subject, html.String())
}

func (n *EmailNotifier) sendEmail(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	tlsConfig := &tls.Config{
		InsecureSkipVerify: n.cfg.InsecureSkipVerify,
		ServerName:         n.cfg.Host,
	}

	dialer := &net.Dialer{Timeout: n.cfg.Timeout}
	var conn net.Conn
	var err error
	if n.cfg.Port == 465 {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, tlsConfig)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	deadline := time.Now().Add(n.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("smtp deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	if n.cfg.Port != 465 {
		if err := client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	defer client.Quit()

	if n.cfg.User != "" {
		if err := client.Auth(smtp.PlainAuth("", n.cfg.User, n.cfg.Password, n.cfg.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(n.cfg.From); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp RCPT TO: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(buildMessage(n.cfg.From, to, subject, htmlBody)); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close DATA: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, htmlBody string) []byte {
	return []byte("To: " + to + "\r\n" +
		"From: " + from + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		htmlBody + "\r\n")
}
