package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"mall-bot/internal/apiclient"
	"mall-bot/internal/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var fixedNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

type fakeBackend struct {
	down bool

	products  apiclient.Result[[]models.Product]
	search    apiclient.Result[[]models.Product]
	orders    apiclient.Result[[]models.Order]
	statement apiclient.Result[[]models.Transaction]
	submit    apiclient.Result[*models.OrderConfirmation]

	submitPanics bool

	searched    []string
	submissions []*models.OrderSubmission
}

func (f *fakeBackend) Ping(ctx context.Context) bool { return !f.down }

func (f *fakeBackend) ListProducts(ctx context.Context) apiclient.Result[[]models.Product] {
	return f.products
}

func (f *fakeBackend) SearchProducts(ctx context.Context, name string) apiclient.Result[[]models.Product] {
	f.searched = append(f.searched, name)
	return f.search
}

func (f *fakeBackend) ListUserOrders(ctx context.Context, userID int64) apiclient.Result[[]models.Order] {
	return f.orders
}

func (f *fakeBackend) GetCardStatement(ctx context.Context, userID, cardID int64) apiclient.Result[[]models.Transaction] {
	return f.statement
}

func (f *fakeBackend) SubmitOrder(ctx context.Context, s *models.OrderSubmission) apiclient.Result[*models.OrderConfirmation] {
	f.submissions = append(f.submissions, s)
	if f.submitPanics {
		panic("backend exploded")
	}
	return f.submit
}

type fakePublisher struct {
	events []*models.PurchaseEvent
	err    error
}

func (f *fakePublisher) PublishPurchaseEvent(ctx context.Context, e *models.PurchaseEvent) error {
	f.events = append(f.events, e)
	return f.err
}

func (f *fakePublisher) types() []string {
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.EventType)
	}
	return out
}

var errBoom = errors.New("boom")

func newTestEngine(t *testing.T, backend *fakeBackend) (*Engine, *fakePublisher) {
	t.Helper()
	pub := &fakePublisher{}
	e := NewEngine(backend, "1",
		WithClock(func() time.Time { return fixedNow }),
		WithEventPublisher(pub),
		WithLogger(zaptest.NewLogger(t)))
	return e, pub
}

// say runs one text turn and returns the new state and the reply texts.
func say(e *Engine, state State, text string) (State, []string) {
	turn := NewTurn("conv-1", text, nil)
	next := e.Handle(context.Background(), turn, state)
	return next, texts(turn)
}

func click(t *testing.T, e *Engine, state State, action models.BuyAction) (State, []string) {
	t.Helper()
	raw, err := json.Marshal(action)
	require.NoError(t, err)
	turn := NewTurn("conv-1", "", raw)
	next := e.Handle(context.Background(), turn, state)
	return next, texts(turn)
}

func texts(turn *Turn) []string {
	out := make([]string, 0, len(turn.Replies()))
	for _, r := range turn.Replies() {
		if r.Text != "" {
			out = append(out, r.Text)
		}
	}
	return out
}

func joined(replies []string) string {
	return strings.Join(replies, "\n")
}
