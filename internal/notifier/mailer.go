package notifier

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/feedback-hub/helpdesk/internal/config"
	"github.com/feedback-hub/helpdesk/internal/domain"
)

// Sender abstracts the SMTP transport so services can be tested without a
// mail server.
type Sender interface {
	Send(app *domain.App, to, subject, htmlBody string)
	Invalidate(app *domain.App)
}

type senderEntry struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

// Mailer delivers transactional email. Each app may carry its own SMTP
// sender; dialers are cached per host:port:user and rebuilt when an app's
// sender settings change. Delivery failures are logged, never surfaced:
// email is a side effect of the request, not part of it.
type Mailer struct {
	cfg    config.SMTPConfig
	logger *zap.Logger

	mu      sync.Mutex
	dialers map[string]senderEntry
}

// NewMailer builds a Mailer around the global default sender config.
func NewMailer(cfg config.SMTPConfig, logger *zap.Logger) *Mailer {
	return &Mailer{
		cfg:     cfg,
		logger:  logger,
		dialers: make(map[string]senderEntry),
	}
}

func dialerKey(host string, port int, user string) string {
	return fmt.Sprintf("%s:%d:%s", host, port, user)
}

// entryFor returns the cached sender for the app, creating it on first use.
// Falls back to the global default sender when the app has none; returns
// false when neither is configured.
func (m *Mailer) entryFor(app *domain.App) (senderEntry, bool) {
	host, port, user, pass := m.cfg.Host, m.cfg.Port, m.cfg.User, m.cfg.Pass
	from, fromName := m.cfg.From, m.cfg.FromName

	if app != nil && app.HasSMTP() {
		host = *app.SMTPHost
		port = 587
		if app.SMTPPort != nil && *app.SMTPPort > 0 {
			port = *app.SMTPPort
		}
		user = *app.SMTPUser
		pass = *app.SMTPPass
		if app.EmailFrom != nil && *app.EmailFrom != "" {
			from = *app.EmailFrom
		} else {
			from = user
		}
		if app.EmailName != nil && *app.EmailName != "" {
			fromName = *app.EmailName
		} else {
			fromName = app.Name
		}
	} else if !m.cfg.Configured() {
		return senderEntry{}, false
	}

	key := dialerKey(host, port, user)

	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.dialers[key]; ok {
		return entry, true
	}
	entry := senderEntry{
		dialer:   gomail.NewDialer(host, port, user, pass),
		from:     from,
		fromName: fromName,
	}
	m.dialers[key] = entry
	return entry, true
}

// Invalidate drops the cached dialer for the app's sender so the next Send
// rebuilds it from current settings. Call after updating an app's SMTP
// configuration.
func (m *Mailer) Invalidate(app *domain.App) {
	if app == nil || !app.HasSMTP() {
		return
	}
	port := 587
	if app.SMTPPort != nil && *app.SMTPPort > 0 {
		port = *app.SMTPPort
	}
	key := dialerKey(*app.SMTPHost, port, *app.SMTPUser)

	m.mu.Lock()
	delete(m.dialers, key)
	m.mu.Unlock()
}

// Send delivers a single HTML message on behalf of the app. A missing
// sender configuration makes Send a no-op.
func (m *Mailer) Send(app *domain.App, to, subject, htmlBody string) {
	entry, ok := m.entryFor(app)
	if !ok {
		m.logger.Debug("email skipped, no sender configured", zap.String("to", to))
		return
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", entry.from, entry.fromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := entry.dialer.DialAndSend(msg); err != nil {
		m.logger.Error("email delivery failed",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
		return
	}
	m.logger.Debug("email delivered", zap.String("to", to), zap.String("subject", subject))
}
