package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mall-bot/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRoundTripper allows us to mock the HTTP response
type MockRoundTripper func(req *http.Request) *http.Response

func (f MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

type MockRoundTripperWithError func(req *http.Request) (*http.Response, error)

func (f MockRoundTripperWithError) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

const baseURL = "https://shop.test"

func newTestClient(rt http.RoundTripper) *Client {
	c := NewClient(Config{BaseURL: baseURL})
	c.httpClient.Transport = rt
	return c
}

func respond(status int, body string) MockRoundTripper {
	return func(req *http.Request) *http.Response {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(bytes.NewBufferString(body)),
			Header:     make(http.Header),
		}
	}
}

func TestClient_ListProducts(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		c := newTestClient(MockRoundTripper(func(req *http.Request) *http.Response {
			assert.Equal(t, http.MethodGet, req.Method)
			assert.Equal(t, baseURL+"/products", req.URL.String())
			return respond(http.StatusOK, `[{"id":"1","productName":"Mouse","price":10.5}]`)(req)
		}))

		res := c.ListProducts(context.Background())
		require.True(t, res.IsData())
		require.Len(t, res.Value, 1)
		assert.Equal(t, "Mouse", res.Value[0].Name)
	})

	t.Run("EmptyCatalog", func(t *testing.T) {
		c := newTestClient(respond(http.StatusOK, `[]`))

		res := c.ListProducts(context.Background())
		assert.True(t, res.IsEmpty())
	})

	t.Run("NotFoundIsFailure", func(t *testing.T) {
		c := newTestClient(respond(http.StatusNotFound, ``))

		res := c.ListProducts(context.Background())
		assert.True(t, res.IsFailure())
		assert.ErrorIs(t, res.Err, ErrUnexpectedStatus)
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		c := newTestClient(respond(http.StatusOK, `{invalid`))

		res := c.ListProducts(context.Background())
		assert.True(t, res.IsFailure())
	})

	t.Run("NetworkError", func(t *testing.T) {
		c := newTestClient(MockRoundTripperWithError(func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		}))

		res := c.ListProducts(context.Background())
		assert.True(t, res.IsFailure())
		assert.Contains(t, res.Err.Error(), "connection refused")
	})
}

func TestClient_SearchProducts(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		c := newTestClient(MockRoundTripper(func(req *http.Request) *http.Response {
			assert.Equal(t, "/products/search", req.URL.Path)
			assert.Equal(t, "note book", req.URL.Query().Get("productName"))
			return respond(http.StatusOK, `[{"id":"1","productName":"Notebook","price":3500}]`)(req)
		}))

		res := c.SearchProducts(context.Background(), "note book")
		require.True(t, res.IsData())
		assert.Equal(t, "Notebook", res.Value[0].Name)
	})

	t.Run("NotFoundIsEmpty", func(t *testing.T) {
		c := newTestClient(respond(http.StatusNotFound, ``))

		res := c.SearchProducts(context.Background(), "xyz")
		assert.True(t, res.IsEmpty())
		assert.NoError(t, res.Err)
		assert.Nil(t, res.Value)
	})

	t.Run("ServerError", func(t *testing.T) {
		c := newTestClient(respond(http.StatusInternalServerError, `boom`))

		res := c.SearchProducts(context.Background(), "xyz")
		assert.True(t, res.IsFailure())
	})
}

func TestClient_ListUserOrders(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		c := newTestClient(MockRoundTripper(func(req *http.Request) *http.Response {
			assert.Equal(t, "/orders/user/42", req.URL.Path)
			return respond(http.StatusOK, `[{"id":"o-1","userId":42,"status":"PAID","totalAmount":99.9,"items":[{"productId":"p","productName":"Mouse","unitPrice":99.9,"quantity":1,"subTotal":99.9}]}]`)(req)
		}))

		res := c.ListUserOrders(context.Background(), 42)
		require.True(t, res.IsData())
		assert.Equal(t, "o-1", res.Value[0].ID)
		assert.True(t, res.Value[0].TotalAmount.Equal(decimal.RequireFromString("99.9")))
	})

	t.Run("NotFoundIsEmpty", func(t *testing.T) {
		c := newTestClient(respond(http.StatusNotFound, ``))

		res := c.ListUserOrders(context.Background(), 42)
		assert.True(t, res.IsEmpty())
	})
}

func TestClient_GetCardStatement(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		c := newTestClient(MockRoundTripper(func(req *http.Request) *http.Response {
			assert.Equal(t, "/users/3/credit-card/9/statement", req.URL.Path)
			return respond(http.StatusOK, `[{"dataTransacao":"2025-05-01T10:00:00","valor":50,"tipoTransacao":"COMPRA","descricao":"Mouse","codigoAutorizacao":"AUTH123456"}]`)(req)
		}))

		res := c.GetCardStatement(context.Background(), 3, 9)
		require.True(t, res.IsData())
		assert.Equal(t, models.TransactionPurchase, res.Value[0].Type)
	})

	t.Run("NotFoundIsEmpty", func(t *testing.T) {
		c := newTestClient(respond(http.StatusNotFound, ``))

		res := c.GetCardStatement(context.Background(), 3, 9)
		assert.True(t, res.IsEmpty())
	})

	t.Run("ForbiddenIsFailure", func(t *testing.T) {
		c := newTestClient(respond(http.StatusForbidden, ``))

		res := c.GetCardStatement(context.Background(), 3, 9)
		assert.True(t, res.IsFailure())
		assert.False(t, res.IsEmpty())
		assert.ErrorIs(t, res.Err, ErrAccessDenied)
	})

	t.Run("UnexpectedStatus", func(t *testing.T) {
		c := newTestClient(respond(http.StatusBadGateway, ``))

		res := c.GetCardStatement(context.Background(), 3, 9)
		assert.True(t, res.IsFailure())
		assert.ErrorIs(t, res.Err, ErrUnexpectedStatus)
	})
}

func TestClient_SubmitOrder(t *testing.T) {
	submission := &models.OrderSubmission{
		UserID:         7,
		Items:          []models.OrderSubmissionItem{{ProductID: "p-1", ProductName: "Notebook", Price: 42.5, Quantity: 1}},
		CardAccountRef: "1",
	}

	t.Run("Created", func(t *testing.T) {
		c := newTestClient(MockRoundTripper(func(req *http.Request) *http.Response {
			assert.Equal(t, http.MethodPost, req.Method)
			assert.Equal(t, baseURL+"/orders", req.URL.String())
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

			var got models.OrderSubmission
			require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
			assert.Equal(t, *submission, got)

			return respond(http.StatusCreated, `{"orderId":"X","status":"PAID","totalAmount":42.5}`)(req)
		}))

		res := c.SubmitOrder(context.Background(), submission)
		require.True(t, res.IsData())
		assert.Equal(t, "X", res.Value.OrderID)
		assert.Equal(t, "42.50", res.Value.TotalAmount.StringFixed(2))
	})

	t.Run("OKIsNotSuccess", func(t *testing.T) {
		c := newTestClient(respond(http.StatusOK, `{"orderId":"X"}`))

		res := c.SubmitOrder(context.Background(), submission)
		assert.True(t, res.IsFailure())
	})

	t.Run("Rejected", func(t *testing.T) {
		c := newTestClient(respond(http.StatusBadRequest, `{"message":"Saldo insuficiente"}`))

		res := c.SubmitOrder(context.Background(), submission)
		assert.True(t, res.IsFailure())
		assert.ErrorIs(t, res.Err, ErrUnexpectedStatus)
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		c := newTestClient(respond(http.StatusCreated, `nope`))

		res := c.SubmitOrder(context.Background(), submission)
		assert.True(t, res.IsFailure())
	})
}

func TestClient_Ping(t *testing.T) {
	t.Run("Up", func(t *testing.T) {
		c := newTestClient(respond(http.StatusOK, `[]`))
		assert.True(t, c.Ping(context.Background()))
	})

	t.Run("BadStatus", func(t *testing.T) {
		c := newTestClient(respond(http.StatusServiceUnavailable, ``))
		assert.False(t, c.Ping(context.Background()))
	})

	t.Run("Down", func(t *testing.T) {
		c := newTestClient(MockRoundTripperWithError(func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("no route to host")
		}))
		assert.False(t, c.Ping(context.Background()))
	})
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(Config{BaseURL: srv.URL, ReadTimeout: 50 * time.Millisecond, ProbeTimeout: 50 * time.Millisecond})

	res := c.ListProducts(context.Background())
	assert.True(t, res.IsFailure())
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)

	assert.False(t, c.Ping(context.Background()))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "data", OutcomeData.String())
	assert.Equal(t, "empty", OutcomeEmpty.String())
	assert.Equal(t, "failure", OutcomeFailure.String())
	assert.Equal(t, "outcome(9)", Outcome(9).String())
}
