package mercadopago

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astromania_back_end/internal/models"
)

func testClient(srv *httptest.Server) *Client {
	c := NewClient("TEST-token")
	c.BaseURL = srv.URL
	c.HTTPClient = srv.Client()
	return c
}

func TestCreatePreference(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/checkout/preferences", r.URL.Path)
		require.Equal(t, "Bearer TEST-token", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"id":         "pref-123",
			"init_point": "https://www.mercadopago.cl/checkout/v1/redirect?pref_id=pref-123",
		})
	}))
	defer srv.Close()

	result, err := testClient(srv).CreatePreference(context.Background(), PreferenceRequest{
		Items: []models.CartItem{
			{ReferenceID: "p1", Title: "Book", UnitPrice: 10000, Quantity: 2},
		},
		Currency:          "CLP",
		ExternalReference: "sess-abc-123",
		BackURLs: BackURLs{
			Success: "https://astromania.test/api/payments/success",
			Failure: "https://astromania.test/api/payments/failure",
			Pending: "https://astromania.test/api/payments/pending",
		},
		NotificationURL: "https://astromania.test/api/payments/notification",
	})
	require.NoError(t, err)

	assert.Equal(t, "pref-123", result.PreferenceID)
	assert.Contains(t, result.RedirectURL, "pref-123")

	assert.Equal(t, "sess-abc-123", captured["external_reference"])
	assert.Equal(t, "approved", captured["auto_return"])
	items := captured["items"].([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, "Book", item["title"])
	assert.Equal(t, 2.0, item["quantity"])
	assert.Equal(t, 10000.0, item["unit_price"])
	assert.Equal(t, "CLP", item["currency_id"])
}

func TestFetchPaymentParsesNumericID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payments/12345", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		// Mercado Pago renvoie l'id en nombre
		w.Write([]byte(`{
			"id": 12345,
			"status": "approved",
			"status_detail": "accredited",
			"transaction_amount": 20000,
			"currency_id": "CLP",
			"external_reference": "sess-abc-123"
		}`))
	}))
	defer srv.Close()

	payment, err := testClient(srv).FetchPayment(context.Background(), "12345")
	require.NoError(t, err)

	assert.Equal(t, "12345", payment.PaymentID)
	assert.Equal(t, "approved", payment.Status)
	assert.Equal(t, "accredited", payment.StatusDetail)
	assert.Equal(t, 20000.0, payment.Amount)
	assert.Equal(t, "CLP", payment.Currency)
	assert.Equal(t, "sess-abc-123", payment.ExternalReference)
}

func TestValidationErrorIsNotTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"invalid items"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv).CreatePreference(context.Background(), PreferenceRequest{})
	require.Error(t, err)
	assert.False(t, IsTransient(err))

	var mpErr *Error
	require.ErrorAs(t, err, &mpErr)
	assert.Equal(t, http.StatusBadRequest, mpErr.StatusCode)
	assert.Contains(t, mpErr.Error(), "invalid items")
}

func TestServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient(srv).FetchPayment(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestRateLimitIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(srv).FetchPayment(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestTimeoutIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := testClient(srv)
	c.HTTPClient = &http.Client{Timeout: 20 * time.Millisecond}

	_, err := c.FetchPayment(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}
