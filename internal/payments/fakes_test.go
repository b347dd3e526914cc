package payments

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"astromania_back_end/internal/mercadopago"
	"astromania_back_end/internal/models"
)

// memoryStore simule le document store. Il ne déduplique rien : c'est la
// réconciliation qui porte la garde d'idempotence.
type memoryStore struct {
	mu      sync.Mutex
	byID    map[primitive.ObjectID]*models.OrderIntent
	byRef   map[string]primitive.ObjectID
	failing bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		byID:  make(map[primitive.ObjectID]*models.OrderIntent),
		byRef: make(map[string]primitive.ObjectID),
	}
}

func copyIntent(in *models.OrderIntent) *models.OrderIntent {
	out := *in
	out.Items = append([]models.CartItem(nil), in.Items...)
	out.StatusHistory = append([]models.StatusEntry(nil), in.StatusHistory...)
	return &out
}

func (s *memoryStore) Create(_ context.Context, intent *models.OrderIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return fmt.Errorf("store indisponible")
	}
	if intent.ID.IsZero() {
		intent.ID = primitive.NewObjectID()
	}
	if _, dup := s.byRef[intent.ExternalReference]; dup {
		return fmt.Errorf("external_reference dupliquée: %s", intent.ExternalReference)
	}
	s.byID[intent.ID] = copyIntent(intent)
	s.byRef[intent.ExternalReference] = intent.ID
	return nil
}

func (s *memoryStore) FindByExternalReference(_ context.Context, ref string) (*models.OrderIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return nil, fmt.Errorf("store indisponible")
	}
	id, ok := s.byRef[ref]
	if !ok {
		return nil, nil
	}
	return copyIntent(s.byID[id]), nil
}

func (s *memoryStore) SetPreferenceID(_ context.Context, id primitive.ObjectID, preferenceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if intent, ok := s.byID[id]; ok {
		intent.GatewayPreferenceID = preferenceID
	}
	return nil
}

func (s *memoryStore) AppendStatus(_ context.Context, id primitive.ObjectID, entry models.StatusEntry, newStatus, paymentID string) (*models.OrderIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return nil, fmt.Errorf("store indisponible")
	}
	intent, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("intention inconnue: %s", id.Hex())
	}
	intent.StatusHistory = append(intent.StatusHistory, entry)
	if newStatus != "" {
		intent.Status = newStatus
	}
	if paymentID != "" {
		intent.GatewayPaymentID = paymentID
	}
	intent.UpdatedAt = entry.At
	return copyIntent(intent), nil
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *memoryStore) get(ref string) *models.OrderIntent {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byRef[ref]
	if !ok {
		return nil
	}
	return copyIntent(s.byID[id])
}

// fakeGateway simule Mercado Pago : préférences toujours acceptées (sauf
// erreur programmée), paiements servis depuis une table.
type fakeGateway struct {
	mu          sync.Mutex
	createErr   error
	createCalls int
	fetchErr    error
	fetchCalls  int
	payments    map[string]mercadopago.PaymentInfo
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{payments: make(map[string]mercadopago.PaymentInfo)}
}

func (g *fakeGateway) CreatePreference(_ context.Context, req mercadopago.PreferenceRequest) (*mercadopago.PreferenceResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls++
	if g.createErr != nil {
		return nil, g.createErr
	}
	return &mercadopago.PreferenceResult{
		PreferenceID: "pref-" + req.ExternalReference,
		RedirectURL:  "https://mp.test/checkout/" + req.ExternalReference,
	}, nil
}

func (g *fakeGateway) FetchPayment(_ context.Context, paymentID string) (*mercadopago.PaymentInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetchCalls++
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	p, ok := g.payments[paymentID]
	if !ok {
		return nil, &mercadopago.Error{StatusCode: 404, Message: "Payment not found"}
	}
	return &p, nil
}

func (g *fakeGateway) setPayment(p mercadopago.PaymentInfo) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payments[p.PaymentID] = p
}

func newTestService(store IntentStore, gateway Gateway) *Service {
	return NewService(store, gateway, Config{
		Currency: "CLP",
		BackURLs: mercadopago.BackURLs{
			Success: "https://astromania.test/api/payments/success",
			Failure: "https://astromania.test/api/payments/failure",
			Pending: "https://astromania.test/api/payments/pending",
		},
		NotificationURL: "https://astromania.test/api/payments/notification",
	})
}
