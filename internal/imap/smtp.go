package imap

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/mpham/mailboard/internal/model"
)

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	TLS      bool
}

const smtpDialTimeout = 30 * time.Second

// Send composes and delivers a draft via SMTP. The envelope sender is
// always the configured account.
func (cfg SMTPConfig) Send(draft model.Draft) error {
	if len(draft.To) == 0 {
		return fmt.Errorf("sending email: no recipients")
	}

	recipients := make([]string, 0, len(draft.To)+len(draft.Cc)+len(draft.Bcc))
	recipients = append(recipients, draft.To...)
	recipients = append(recipients, draft.Cc...)
	recipients = append(recipients, draft.Bcc...)

	body := composeMessage(cfg.Username, draft)
	addr := cfg.Host + ":" + cfg.Port

	if cfg.TLS {
		return cfg.sendWithTLS(addr, recipients, body)
	}
	return cfg.sendWithStartTLS(addr, recipients, body)
}

// composeMessage renders the draft as an RFC 2822 message. Bcc
// recipients ride only on the SMTP envelope, never in the headers.
func composeMessage(from string, draft model.Draft) string {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(draft.To, ", ")))
	if len(draft.Cc) > 0 {
		msg.WriteString(fmt.Sprintf("Cc: %s\r\n", strings.Join(draft.Cc, ", ")))
	}
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", draft.Subject))
	if draft.InReplyTo != "" {
		msg.WriteString(fmt.Sprintf("In-Reply-To: <%s>\r\n", draft.InReplyTo))
		msg.WriteString(fmt.Sprintf("References: <%s>\r\n", draft.InReplyTo))
	}
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(draft.Body)
	return msg.String()
}

// sendWithTLS delivers over an implicit TLS connection.
func (cfg SMTPConfig) sendWithTLS(addr string, recipients []string, body string) error {
	tlsConfig := &tls.Config{ServerName: cfg.Host}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("TLS dial to %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP auth: %w", err)
	}

	return sendMail(client, cfg.Username, recipients, body)
}

// sendWithStartTLS delivers using STARTTLS.
func (cfg SMTPConfig) sendWithStartTLS(addr string, recipients []string, body string) error {
	conn, err := net.DialTimeout("tcp", addr, smtpDialTimeout)
	if err != nil {
		return fmt.Errorf("dial to %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{ServerName: cfg.Host}
	if err := client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("SMTP STARTTLS: %w", err)
	}

	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP auth: %w", err)
	}

	return sendMail(client, cfg.Username, recipients, body)
}

// sendMail delivers a message using an already-authenticated SMTP client.
func sendMail(client *smtp.Client, from string, recipients []string, body string) error {
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("SMTP MAIL FROM: %w", err)
	}

	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("SMTP RCPT TO %s: %w", rcpt, err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA: %w", err)
	}

	if _, err := writer.Write([]byte(body)); err != nil {
		return fmt.Errorf("writing email body: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing email body: %w", err)
	}

	return client.Quit()
}
