package domain

import "time"

// App is a tenant: one client application whose users submit tickets and
// feedback through an API key. Outbound email may use an app-specific SMTP
// sender; when unset, the global default sender applies. Push delivery
// goes through an app-specific gateway credential.
type App struct {
	ID        string
	Name      string
	APIKey    string
	IconURL   *string
	EmailFrom *string
	EmailName *string
	SMTPHost  *string
	SMTPPort  *int
	SMTPUser  *string
	SMTPPass  *string
	PushURL   *string
	PushKey   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasSMTP reports whether the app carries a complete SMTP sender config.
func (a *App) HasSMTP() bool {
	return a.SMTPHost != nil && *a.SMTPHost != "" &&
		a.SMTPUser != nil && *a.SMTPUser != "" &&
		a.SMTPPass != nil && *a.SMTPPass != ""
}

// HasPush reports whether the app carries push gateway credentials.
func (a *App) HasPush() bool {
	return a.PushURL != nil && *a.PushURL != "" && a.PushKey != nil && *a.PushKey != ""
}
