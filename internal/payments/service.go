package payments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"astromania_back_end/internal/mercadopago"
	"astromania_back_end/internal/models"
)

// Erreurs renvoyées au checkout
var (
	ErrEmptyCart    = errors.New("panier vide")
	ErrInvalidItem  = errors.New("article invalide")
	ErrGatewayDown  = errors.New("passerelle de paiement indisponible")
)

const (
	defaultCurrency     = "CLP"
	defaultFetchTimeout = 8 * time.Second
	createRetries       = 3
)

// Config regroupe ce que le service reçoit du point d'entrée
type Config struct {
	Currency        string
	BackURLs        mercadopago.BackURLs
	NotificationURL string
	FetchTimeout    time.Duration
}

// Service porte le cœur paiement : construction d'intentions et
// réconciliation des notifications. Passerelle et store sont injectés,
// aucun état global.
type Service struct {
	store   IntentStore
	gateway Gateway
	cfg     Config
	locks   *refLocks
	now     func() time.Time

	// OnApproved est appelé (dans une goroutine) après chaque transition
	// réelle vers APPROVED : nettoyage panier, reçu par e-mail...
	OnApproved func(intent models.OrderIntent)
}

func NewService(store IntentStore, gateway Gateway, cfg Config) *Service {
	if cfg.Currency == "" {
		cfg.Currency = defaultCurrency
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	return &Service{
		store:   store,
		gateway: gateway,
		cfg:     cfg,
		locks:   newRefLocks(),
		now:     time.Now,
	}
}

// CheckoutResult est ce que le client a besoin pour rediriger l'acheteur
type CheckoutResult struct {
	Intent      *models.OrderIntent
	RedirectURL string
}

// CreateIntent valide le panier, persiste l'intention PUIS crée la
// préférence côté passerelle. L'ordre est essentiel : si le process meurt
// entre les deux, l'intention CREATED existe déjà pour une réconciliation
// manuelle. Jamais l'inverse.
func (s *Service) CreateIntent(ctx context.Context, items []models.CartItem, buyer models.BuyerMetadata) (*CheckoutResult, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantité < 1 pour %q", ErrInvalidItem, it.ReferenceID)
		}
		if it.UnitPrice < 0 {
			return nil, fmt.Errorf("%w: prix négatif pour %q", ErrInvalidItem, it.ReferenceID)
		}
	}

	now := s.now()
	intent := &models.OrderIntent{
		ExternalReference: s.newExternalReference(buyer, now),
		Items:             append([]models.CartItem(nil), items...),
		Status:            models.StatusCreated,
		Currency:          s.cfg.Currency,
		Buyer:             buyer,
		StatusHistory: []models.StatusEntry{
			{Status: models.StatusCreated, At: now, Source: models.SourceCreate},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, intent); err != nil {
		return nil, fmt.Errorf("enregistrement intention: %w", err)
	}

	pref, err := s.createPreference(ctx, intent)
	if err != nil {
		// L'intention reste CREATED sans preference_id ; l'appelant peut
		// réessayer en créant une nouvelle intention, celle-ci est abandonnée.
		log.Printf("❌ Création préférence échouée pour %s: %v", intent.ExternalReference, err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayDown, err)
	}

	intent.GatewayPreferenceID = pref.PreferenceID
	if err := s.store.SetPreferenceID(ctx, intent.ID, pref.PreferenceID); err != nil {
		log.Printf("⚠️ preference_id non persisté pour %s: %v", intent.ExternalReference, err)
	}

	log.Printf("💳 Intention créée: %s (préférence %s, total %.2f %s)",
		intent.ExternalReference, pref.PreferenceID, intent.Total(), intent.Currency)

	return &CheckoutResult{Intent: intent, RedirectURL: pref.RedirectURL}, nil
}

// newExternalReference fabrique la clé de corrélation : identifiant de
// session + jeton unique + horodatage. Unicité obligatoire, c'est la clé
// primaire de la réconciliation.
func (s *Service) newExternalReference(buyer models.BuyerMetadata, now time.Time) string {
	who := buyer.SessionID
	if who == "" {
		who = "guest"
	}
	return fmt.Sprintf("%s-%s-%d", who, uuid.NewString(), now.UnixMilli())
}

func (s *Service) createPreference(ctx context.Context, intent *models.OrderIntent) (*mercadopago.PreferenceResult, error) {
	req := mercadopago.PreferenceRequest{
		Items:             intent.Items,
		Currency:          intent.Currency,
		ExternalReference: intent.ExternalReference,
		BackURLs:          s.cfg.BackURLs,
		NotificationURL:   s.cfg.NotificationURL,
		Metadata: map[string]string{
			"session_id": intent.Buyer.SessionID,
		},
	}

	var lastErr error
	for attempt := 1; attempt <= createRetries; attempt++ {
		pref, err := s.gateway.CreatePreference(ctx, req)
		if err == nil {
			return pref, nil
		}
		lastErr = err
		if !mercadopago.IsTransient(err) {
			// Erreur de validation : réessayer ne changera rien
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
		}
	}
	return nil, lastErr
}

// FindIntent retrouve une intention par sa référence externe (nil si absente)
func (s *Service) FindIntent(ctx context.Context, externalReference string) (*models.OrderIntent, error) {
	return s.store.FindByExternalReference(ctx, externalReference)
}

// FetchPayment interroge la passerelle avec le timeout du service
func (s *Service) FetchPayment(ctx context.Context, paymentID string) (*mercadopago.PaymentInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()
	return s.gateway.FetchPayment(ctx, paymentID)
}
