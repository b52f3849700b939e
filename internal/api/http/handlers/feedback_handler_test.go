package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/feedback-hub/helpdesk/internal/api/http"
	"github.com/feedback-hub/helpdesk/internal/api/http/handlers"
	"github.com/feedback-hub/helpdesk/internal/auth"
	"github.com/feedback-hub/helpdesk/internal/domain"
	"github.com/feedback-hub/helpdesk/internal/events"
	"github.com/feedback-hub/helpdesk/internal/observability"
	"github.com/feedback-hub/helpdesk/internal/repository"
	"github.com/feedback-hub/helpdesk/internal/service"
)

type stubAppRepo struct {
	app *domain.App
}

func (r *stubAppRepo) GetByID(_ context.Context, id string) (*domain.App, error) {
	if r.app != nil && r.app.ID == id {
		return r.app, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *stubAppRepo) GetByAPIKey(_ context.Context, apiKey string) (*domain.App, error) {
	if r.app != nil && r.app.APIKey == apiKey {
		return r.app, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *stubAppRepo) ListAdminIDs(context.Context, string) ([]string, error) { return nil, nil }

func (r *stubAppRepo) GetNamesByIDs(_ context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string)
	for _, id := range ids {
		if r.app != nil && r.app.ID == id {
			names[id] = r.app.Name
		}
	}
	return names, nil
}

func (r *stubAppRepo) UpdateEmailSettings(context.Context, *domain.App) error { return nil }

type stubUserRepo struct {
	user *domain.User
}

func (r *stubUserRepo) Create(context.Context, *domain.User) error { return nil }
func (r *stubUserRepo) Update(context.Context, *domain.User) error { return nil }

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if r.user != nil && r.user.ID == id {
		return r.user, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *stubUserRepo) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}

func (r *stubUserRepo) ListByRoles(context.Context, ...domain.UserRole) ([]domain.User, error) {
	return nil, nil
}

func (r *stubUserRepo) GetNamesByIDs(context.Context, []string) (map[string]string, error) {
	return map[string]string{}, nil
}

type stubFeedbackRepo struct {
	created []domain.Feedback
}

func (r *stubFeedbackRepo) Create(_ context.Context, feedback *domain.Feedback) error {
	r.created = append(r.created, *feedback)
	return nil
}

func (r *stubFeedbackRepo) GetByID(context.Context, string) (*domain.Feedback, error) {
	return nil, pgx.ErrNoRows
}

func (r *stubFeedbackRepo) ListWithFilter(context.Context, repository.FeedbackFilter) ([]domain.Feedback, int, error) {
	return nil, 0, nil
}

func (r *stubFeedbackRepo) Delete(context.Context, string) error           { return nil }
func (r *stubFeedbackRepo) CountReplies(context.Context, string) (int, error) { return 0, nil }
func (r *stubFeedbackRepo) CreateReply(context.Context, *domain.FeedbackReply) error {
	return nil
}
func (r *stubFeedbackRepo) ListReplies(context.Context, string) ([]domain.FeedbackReply, error) {
	return nil, nil
}
func (r *stubFeedbackRepo) DeleteReply(context.Context, string) error { return nil }

type feedbackAPI struct {
	app      *fiber.App
	tenant   *domain.App
	token    string
	feedback *stubFeedbackRepo
}

func newFeedbackAPI(t *testing.T) *feedbackAPI {
	t.Helper()

	tenant := &domain.App{ID: "app-1", Name: "Acme", APIKey: "key-acme"}
	user := &domain.User{ID: "user-1", Name: "Dana", Email: "dana@test.local", Role: domain.UserRoleUser}

	appRepo := &stubAppRepo{app: tenant}
	userRepo := &stubUserRepo{user: user}
	feedbackRepo := &stubFeedbackRepo{}

	tokens := auth.NewTokenManager("test-secret", 60)
	token, _, err := tokens.GenerateToken(user)
	require.NoError(t, err)

	feedbackService := service.NewFeedbackService(feedbackRepo, userRepo, events.NewInMemoryDispatcher())

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), time.Second)

	apiKey := httptransport.NewAPIKeyMiddleware(appRepo)
	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo)
	handler := handlers.NewFeedbackHandler(feedbackService)

	app.Post("/feedback", apiKey.Handle, authMiddleware.Handle, auth.RequireUser(), handler.CreateFeedback)

	return &feedbackAPI{app: app, tenant: tenant, token: token, feedback: feedbackRepo}
}

func (f *feedbackAPI) post(t *testing.T, body string, decorate func(*http.Request)) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/feedback", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", f.tenant.APIKey)
	req.Header.Set("Authorization", "Bearer "+f.token)
	if decorate != nil {
		decorate(req)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestCreateFeedbackAcceptsIntegerRating(t *testing.T) {
	api := newFeedbackAPI(t)

	resp := api.post(t, `{"rating": 4, "category": "bug_report", "comment": "broken button"}`, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 4, data["rating"])
	assert.Equal(t, "bug_report", data["category"])

	require.Len(t, api.feedback.created, 1)
	assert.Equal(t, "app-1", api.feedback.created[0].AppID)
	assert.Equal(t, "user-1", api.feedback.created[0].UserID)
}

func TestCreateFeedbackRejectsFractionalRating(t *testing.T) {
	api := newFeedbackAPI(t)

	resp := api.post(t, `{"rating": 4.5}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_FAILED", errObj["code"])
	assert.Empty(t, api.feedback.created)
}

func TestCreateFeedbackRejectsOutOfRangeRating(t *testing.T) {
	api := newFeedbackAPI(t)

	for _, payload := range []string{`{"rating": 0}`, `{"rating": 6}`} {
		resp := api.post(t, payload, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	}
	assert.Empty(t, api.feedback.created)
}

func TestCreateFeedbackRequiresAPIKey(t *testing.T) {
	api := newFeedbackAPI(t)

	resp := api.post(t, `{"rating": 3}`, func(req *http.Request) {
		req.Header.Del("X-API-Key")
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateFeedbackRequiresBearerToken(t *testing.T) {
	api := newFeedbackAPI(t)

	resp := api.post(t, `{"rating": 3}`, func(req *http.Request) {
		req.Header.Del("Authorization")
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}
