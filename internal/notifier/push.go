package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/feedback-hub/helpdesk/internal/domain"
	"github.com/feedback-hub/helpdesk/internal/repository"
)

// PushSender delivers mobile push notifications through each app's gateway.
type PushSender interface {
	SendToUser(ctx context.Context, app *domain.App, userID, title, message string)
}

type pushRequest struct {
	Tokens  []string `json:"tokens"`
	Title   string   `json:"title"`
	Message string   `json:"message"`
}

type pushResponse struct {
	StaleTokens []string `json:"staleTokens"`
}

// Pusher posts notification payloads to app-configured gateway endpoints.
// Tokens the gateway reports as stale are pruned from storage. Like email,
// push delivery is best-effort: failures are logged and swallowed.
type Pusher struct {
	client *http.Client
	tokens repository.DeviceTokenRepository
	logger *zap.Logger
}

// NewPusher builds a Pusher over the given device token store.
func NewPusher(tokens repository.DeviceTokenRepository, logger *zap.Logger) *Pusher {
	return &Pusher{
		client: &http.Client{Timeout: 10 * time.Second},
		tokens: tokens,
		logger: logger,
	}
}

func (p *Pusher) SendToUser(ctx context.Context, app *domain.App, userID, title, message string) {
	if app == nil || !app.HasPush() {
		return
	}

	registered, err := p.tokens.ListByUserApp(ctx, userID, app.ID)
	if err != nil {
		p.logger.Error("push token lookup failed", zap.String("userId", userID), zap.Error(err))
		return
	}
	if len(registered) == 0 {
		return
	}

	tokens := make([]string, 0, len(registered))
	byToken := make(map[string]string, len(registered))
	for _, t := range registered {
		tokens = append(tokens, t.Token)
		byToken[t.Token] = t.ID
	}

	body, err := json.Marshal(pushRequest{Tokens: tokens, Title: title, Message: message})
	if err != nil {
		p.logger.Error("push payload encode failed", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, *app.PushURL, bytes.NewReader(body))
	if err != nil {
		p.logger.Error("push request build failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+*app.PushKey)

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Error("push gateway unreachable",
			zap.String("appId", app.ID), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		p.logger.Error("push gateway rejected request",
			zap.String("appId", app.ID),
			zap.Int("status", resp.StatusCode))
		return
	}

	var parsed pushResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		// A gateway that returns an empty body is fine.
		return
	}
	if len(parsed.StaleTokens) == 0 {
		return
	}

	stale := make([]string, 0, len(parsed.StaleTokens))
	for _, token := range parsed.StaleTokens {
		if id, ok := byToken[token]; ok {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return
	}
	if err := p.tokens.DeleteByIDs(ctx, stale); err != nil {
		p.logger.Error("stale token prune failed", zap.Error(err))
		return
	}
	p.logger.Info(fmt.Sprintf("pruned %d stale device tokens", len(stale)),
		zap.String("appId", app.ID))
}
