package payments

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astromania_back_end/internal/mercadopago"
	"astromania_back_end/internal/models"
)

func bookCart() []models.CartItem {
	return []models.CartItem{
		{ReferenceID: "p1", Title: "Book", UnitPrice: 10000, Quantity: 2},
	}
}

func TestCreateIntentValidation(t *testing.T) {
	svc := newTestService(newMemoryStore(), newFakeGateway())
	ctx := context.Background()

	_, err := svc.CreateIntent(ctx, nil, models.BuyerMetadata{})
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = svc.CreateIntent(ctx, []models.CartItem{
		{ReferenceID: "p1", Title: "Book", UnitPrice: 100, Quantity: 0},
	}, models.BuyerMetadata{})
	assert.ErrorIs(t, err, ErrInvalidItem)

	_, err = svc.CreateIntent(ctx, []models.CartItem{
		{ReferenceID: "p1", Title: "Book", UnitPrice: -1, Quantity: 1},
	}, models.BuyerMetadata{})
	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestCreateIntentSuccess(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, newFakeGateway())

	result, err := svc.CreateIntent(context.Background(), bookCart(), models.BuyerMetadata{SessionID: "sess-1"})
	require.NoError(t, err)

	intent := result.Intent
	assert.Equal(t, models.StatusCreated, intent.Status)
	assert.Equal(t, 20000.0, intent.Total())
	assert.NotEmpty(t, intent.ExternalReference)
	assert.NotEmpty(t, intent.GatewayPreferenceID)
	assert.NotEmpty(t, result.RedirectURL)

	require.Len(t, intent.StatusHistory, 1)
	assert.Equal(t, models.StatusCreated, intent.StatusHistory[0].Status)
	assert.Equal(t, models.SourceCreate, intent.StatusHistory[0].Source)

	stored := store.get(intent.ExternalReference)
	require.NotNil(t, stored)
	assert.Equal(t, intent.GatewayPreferenceID, stored.GatewayPreferenceID)
}

// L'intention doit être persistée AVANT l'appel passerelle : en cas d'échec
// de la passerelle, l'intention CREATED existe, sans preference_id.
func TestCreateIntentWritesIntentBeforeGateway(t *testing.T) {
	store := newMemoryStore()
	gateway := newFakeGateway()
	gateway.createErr = &mercadopago.Error{StatusCode: 400, Message: "invalid items"}
	svc := newTestService(store, gateway)

	_, err := svc.CreateIntent(context.Background(), bookCart(), models.BuyerMetadata{})
	require.ErrorIs(t, err, ErrGatewayDown)

	require.Equal(t, 1, store.count())
	// Erreur de validation : pas de retry
	assert.Equal(t, 1, gateway.createCalls)

	for _, intent := range store.byID {
		assert.Equal(t, models.StatusCreated, intent.Status)
		assert.Empty(t, intent.GatewayPreferenceID)
	}
}

func TestCreateIntentRetriesTransientGatewayFailure(t *testing.T) {
	gateway := newFakeGateway()
	gateway.createErr = &mercadopago.Error{StatusCode: 503, Message: "unavailable", Transient: true}
	svc := newTestService(newMemoryStore(), gateway)

	_, err := svc.CreateIntent(context.Background(), bookCart(), models.BuyerMetadata{})
	require.ErrorIs(t, err, ErrGatewayDown)
	assert.Equal(t, createRetries, gateway.createCalls)
}

func TestExternalReferenceUniquenessUnderConcurrency(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, newFakeGateway())

	const n = 100
	refs := make(chan string, n)
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.CreateIntent(context.Background(), bookCart(), models.BuyerMetadata{SessionID: "sess"})
			if err != nil {
				errs <- err
				return
			}
			refs <- result.Intent.ExternalReference
		}()
	}
	wg.Wait()
	close(refs)
	close(errs)

	for err := range errs {
		t.Fatalf("création concurrente en échec: %v", err)
	}

	seen := make(map[string]bool, n)
	for ref := range refs {
		assert.False(t, seen[ref], "référence dupliquée: %s", ref)
		seen[ref] = true
	}
	assert.Len(t, seen, n)
	assert.Equal(t, n, store.count())
}

func TestCreateIntentStoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.failing = true
	gateway := newFakeGateway()
	svc := newTestService(store, gateway)

	_, err := svc.CreateIntent(context.Background(), bookCart(), models.BuyerMetadata{})
	require.Error(t, err)
	// Store en panne : la passerelle ne doit jamais être appelée
	assert.Equal(t, 0, gateway.createCalls)
}
