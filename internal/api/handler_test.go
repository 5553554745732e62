package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mall-bot/internal/apiclient"
	"mall-bot/internal/bot"
	"mall-bot/internal/dialog"
	"mall-bot/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct{ up bool }

func (s stubBackend) Ping(ctx context.Context) bool { return s.up }

func (s stubBackend) ListProducts(ctx context.Context) apiclient.Result[[]models.Product] {
	return apiclient.Result[[]models.Product]{Outcome: apiclient.OutcomeEmpty}
}

func (s stubBackend) SearchProducts(ctx context.Context, name string) apiclient.Result[[]models.Product] {
	return apiclient.Result[[]models.Product]{Outcome: apiclient.OutcomeEmpty}
}

func (s stubBackend) ListUserOrders(ctx context.Context, userID int64) apiclient.Result[[]models.Order] {
	return apiclient.Result[[]models.Order]{Outcome: apiclient.OutcomeEmpty}
}

func (s stubBackend) GetCardStatement(ctx context.Context, userID, cardID int64) apiclient.Result[[]models.Transaction] {
	return apiclient.Result[[]models.Transaction]{Outcome: apiclient.OutcomeEmpty}
}

func (s stubBackend) SubmitOrder(ctx context.Context, sub *models.OrderSubmission) apiclient.Result[*models.OrderConfirmation] {
	return apiclient.Result[*models.OrderConfirmation]{Outcome: apiclient.OutcomeFailure, Err: errors.New("down")}
}

type brokenStore struct{ *bot.MemoryStore }

func (brokenStore) Ping(ctx context.Context) error { return errors.New("redis down") }

func setupRouter(backend stubBackend, store bot.StateStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	b := bot.New(dialog.NewEngine(backend, "1"), store, "bot-app")

	router := gin.New()
	NewHandler(b, backend).SetupRoutes(router)
	return router
}

func post(router *gin.Engine, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const helloActivity = `{
	"type": "message",
	"id": "in-1",
	"channelId": "webchat",
	"from": {"id": "user-1"},
	"recipient": {"id": "bot-1"},
	"conversation": {"id": "conv-1"},
	"text": "oi"
}`

func TestMessages(t *testing.T) {
	router := setupRouter(stubBackend{up: true}, bot.NewMemoryStore())

	w := post(router, "application/json; charset=utf-8", helloActivity)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Activities []models.Activity `json:"activities"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Activities, 1)
	assert.Equal(t, "user-1", body.Activities[0].Recipient.ID)
	assert.Contains(t, body.Activities[0].Text, "Menu Principal")
	require.NotNil(t, body.Activities[0].SuggestedActions)
	assert.Len(t, body.Activities[0].SuggestedActions.Actions, 3)
}

func TestMessages_ButtonValue(t *testing.T) {
	store := bot.NewMemoryStore()
	router := setupRouter(stubBackend{up: true}, store)
	require.NoError(t, store.Save(context.Background(), "conv-1",
		dialog.State{Flow: dialog.FlowProducts, Step: dialog.StepProductAction}))

	w := post(router, "application/json", `{
		"type": "message",
		"from": {"id": "user-1"},
		"conversation": {"id": "conv-1"},
		"value": {"acao": "comprar", "productId": "p-1", "productName": "Mouse", "price": 42.5}
	}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Iniciando compra")

	state, _ := store.Load(context.Background(), "conv-1")
	assert.Equal(t, dialog.FlowPurchase, state.Flow)
}

func TestMessages_UnsupportedMediaType(t *testing.T) {
	router := setupRouter(stubBackend{up: true}, bot.NewMemoryStore())

	w := post(router, "text/plain", helloActivity)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	w = post(router, "", helloActivity)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestMessages_BadBody(t *testing.T) {
	router := setupRouter(stubBackend{up: true}, bot.NewMemoryStore())

	w := post(router, "application/json", `{"type":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMessages_MissingConversation(t *testing.T) {
	router := setupRouter(stubBackend{up: true}, bot.NewMemoryStore())

	w := post(router, "application/json", `{"type":"message","text":"oi"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMessages_Busy(t *testing.T) {
	store := bot.NewMemoryStore()
	router := setupRouter(stubBackend{up: true}, store)
	_, _ = store.Lock(context.Background(), "conv-1")

	w := post(router, "application/json", helloActivity)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHealth(t *testing.T) {
	router := setupRouter(stubBackend{up: false}, bot.NewMemoryStore())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestReady(t *testing.T) {
	tests := []struct {
		name    string
		backend stubBackend
		store   bot.StateStore
		want    int
	}{
		{"Ready", stubBackend{up: true}, bot.NewMemoryStore(), http.StatusOK},
		{"BackendDown", stubBackend{up: false}, bot.NewMemoryStore(), http.StatusServiceUnavailable},
		{"StoreDown", stubBackend{up: true}, brokenStore{bot.NewMemoryStore()}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(tt.backend, tt.store)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupRouter(stubBackend{up: true}, bot.NewMemoryStore())
	post(router, "application/json", helloActivity)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bot_turns_total")
}

func TestMessages_RateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	backend := stubBackend{up: true}
	b := bot.New(dialog.NewEngine(backend, "1"), bot.NewMemoryStore(), "bot-app")

	router := gin.New()
	NewHandler(b, backend).WithRateLimit(0.001, 2).SetupRoutes(router)

	assert.Equal(t, http.StatusOK, post(router, "application/json", helloActivity).Code)
	assert.Equal(t, http.StatusOK, post(router, "application/json", helloActivity).Code)
	assert.Equal(t, http.StatusTooManyRequests, post(router, "application/json", helloActivity).Code)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestClientLimiter_SweepsIdleVisitors(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	l := newClientLimiter(1, 1)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))

	now = now.Add(visitorIdleTTL + time.Minute)
	assert.True(t, l.allow("10.0.0.2"))

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.visitors, 1)
	assert.Contains(t, l.visitors, "10.0.0.2")
}
