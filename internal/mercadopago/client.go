package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"astromania_back_end/internal/models"
)

const defaultBaseURL = "https://api.mercadopago.com"

// Client est l'adaptateur vers l'API Mercado Pago (Checkout Pro).
// Construit explicitement dans main et injecté : pas de singleton global.
type Client struct {
	AccessToken string
	BaseURL     string
	HTTPClient  *http.Client
}

// NewClient crée un client avec un timeout borné : un webhook ne doit
// jamais rester suspendu sur un appel sortant.
func NewClient(accessToken string) *Client {
	return &Client{
		AccessToken: accessToken,
		BaseURL:     defaultBaseURL,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Error est une erreur renvoyée par la passerelle. Transient distingue les
// pannes réessayables (réseau, 5xx, 429) des erreurs de validation (4xx).
type Error struct {
	StatusCode int
	Message    string
	Transient  bool
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("mercadopago: %s (HTTP %d)", e.Message, e.StatusCode)
	}
	return "mercadopago: " + e.Message
}

// IsTransient indique si l'appelant peut réessayer l'opération
func IsTransient(err error) bool {
	var mpErr *Error
	if errors.As(err, &mpErr) {
		return mpErr.Transient
	}
	// Erreurs de transport (timeout, connexion refusée...) : réessayables
	return err != nil
}

// BackURLs sont les URLs de retour après le checkout hébergé
type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type preferenceItem struct {
	ID         string  `json:"id,omitempty"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id,omitempty"`
}

// PreferenceRequest décrit la préférence de paiement à créer
type PreferenceRequest struct {
	Items             []models.CartItem
	Currency          string
	ExternalReference string
	BackURLs          BackURLs
	NotificationURL   string
	Metadata          map[string]string
}

// PreferenceResult est la réponse de création : l'ID côté passerelle et
// l'URL de redirection hors site.
type PreferenceResult struct {
	PreferenceID string
	RedirectURL  string
}

// PaymentInfo est l'état autoritaire d'un paiement, obtenu en rappelant la
// passerelle : jamais depuis le corps d'un webhook.
type PaymentInfo struct {
	PaymentID         string
	Status            string
	StatusDetail      string
	Amount            float64
	Currency          string
	ExternalReference string
}

// CreatePreference crée une préférence Checkout Pro
func (c *Client) CreatePreference(ctx context.Context, req PreferenceRequest) (*PreferenceResult, error) {
	items := make([]preferenceItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, preferenceItem{
			ID:         it.ReferenceID,
			Title:      it.Title,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			CurrencyID: req.Currency,
		})
	}

	body := map[string]interface{}{
		"items":              items,
		"external_reference": req.ExternalReference,
		"back_urls":          req.BackURLs,
		"auto_return":        "approved",
	}
	if req.NotificationURL != "" {
		body["notification_url"] = req.NotificationURL
	}
	if len(req.Metadata) > 0 {
		body["metadata"] = req.Metadata
	}

	var resp struct {
		ID               string `json:"id"`
		InitPoint        string `json:"init_point"`
		SandboxInitPoint string `json:"sandbox_init_point"`
	}
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", body, &resp); err != nil {
		return nil, err
	}

	redirect := resp.InitPoint
	if redirect == "" {
		redirect = resp.SandboxInitPoint
	}
	return &PreferenceResult{PreferenceID: resp.ID, RedirectURL: redirect}, nil
}

// FetchPayment récupère l'état autoritaire d'un paiement par son ID
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*PaymentInfo, error) {
	var resp struct {
		ID                json.Number `json:"id"`
		Status            string      `json:"status"`
		StatusDetail      string      `json:"status_detail"`
		TransactionAmount float64     `json:"transaction_amount"`
		CurrencyID        string      `json:"currency_id"`
		ExternalReference string      `json:"external_reference"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+paymentID, nil, &resp); err != nil {
		return nil, err
	}

	return &PaymentInfo{
		PaymentID:         resp.ID.String(),
		Status:            resp.Status,
		StatusDetail:      resp.StatusDetail,
		Amount:            resp.TransactionAmount,
		Currency:          resp.CurrencyID,
		ExternalReference: resp.ExternalReference,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Message: "sérialisation requête: " + err.Error()}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return &Error{Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		// Panne réseau ou timeout : le sender doit pouvoir relivrer
		return &Error{Message: err.Error(), Transient: true}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &Error{Message: "lecture réponse: " + err.Error(), Transient: true}
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &apiErr)
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return &Error{
			StatusCode: resp.StatusCode,
			Message:    apiErr.Message,
			Transient:  resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
		}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &Error{StatusCode: resp.StatusCode, Message: "réponse illisible: " + err.Error()}
		}
	}
	return nil
}
