// Package alert delivers scheduler failure digests by email.
package alert

import (
	"bytes"
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
	"time"

	"github.com/yuin/goldmark"
)

// EmailAlerter sends error digests over SMTP with STARTTLS. Digest bodies
// are written in markdown and rendered to HTML before sending. When the
// credentials are not configured the alerter stays disabled and Send becomes
// a logged no-op, so schedulers never fail because mail is unconfigured.
type EmailAlerter struct {
	host        string
	port        string
	user        string
	password    string
	recipients  []string
	serviceName string
}

// NewEmailAlerter reads EMAIL_USER, EMAIL_PASS and ADMIN_EMAIL (comma
// separated) from the environment. serviceName tags the subject line.
func NewEmailAlerter(serviceName string) *EmailAlerter {
	user := os.Getenv("EMAIL_USER")
	password := os.Getenv("EMAIL_PASS")

	var recipients []string
	for _, addr := range strings.Split(os.Getenv("ADMIN_EMAIL"), ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			recipients = append(recipients, addr)
		}
	}

	a := &EmailAlerter{
		host:        "smtp.gmail.com",
		port:        "587",
		user:        user,
		password:    password,
		recipients:  recipients,
		serviceName: serviceName,
	}
	if !a.Enabled() {
		log.Printf("[ALERT] EMAIL_USER/EMAIL_PASS/ADMIN_EMAIL not set, mail alerts disabled")
	}
	return a
}

// Enabled reports whether the alerter has full credentials.
func (a *EmailAlerter) Enabled() bool {
	return a.user != "" && a.password != "" && len(a.recipients) > 0
}

// Send renders a markdown digest to HTML and mails it. Errors are logged and
// returned, but callers typically ignore them: a broken mailer must not take
// a scheduler run down with it.
func (a *EmailAlerter) Send(subject, markdownBody string) error {
	if !a.Enabled() {
		log.Printf("[ALERT] mail disabled, dropping digest %q", subject)
		return nil
	}

	var html bytes.Buffer
	if err := goldmark.Convert([]byte(markdownBody), &html); err != nil {
		return fmt.Errorf("failed to render digest body: %w", err)
	}

	fullSubject := fmt.Sprintf("[ALERT][%s] %s", a.serviceName, subject)
	msg := buildMessage(a.user, a.recipients, fullSubject, html.String())

	auth := smtp.PlainAuth("", a.user, a.password, a.host)
	if err := smtp.SendMail(a.host+":"+a.port, auth, a.user, a.recipients, msg); err != nil {
		log.Printf("[ALERT] failed to send digest: %v", err)
		return fmt.Errorf("failed to send alert mail: %w", err)
	}
	return nil
}

// SendErrorDigest formats collected run errors into one digest mail.
func (a *EmailAlerter) SendErrorDigest(runID string, errs []string) error {
	if len(errs) == 0 {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## 오류 발생 (%d건)\n\n", len(errs))
	fmt.Fprintf(&b, "- run: `%s`\n- time: %s\n\n", runID, time.Now().Format(time.RFC3339))
	for _, e := range errs {
		fmt.Fprintf(&b, "1. %s\n", e)
	}
	return a.Send("오류 발생", b.String())
}

func buildMessage(from string, to []string, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}
