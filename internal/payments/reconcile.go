package payments

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/url"

	"astromania_back_end/internal/mercadopago"
	"astromania_back_end/internal/models"
)

// Outcome est l'issue métier d'une livraison de notification. Toutes sont
// acquittées au sender ; seule une vraie panne transitoire est réessayable.
type Outcome string

const (
	OutcomeApplied          Outcome = "applied"
	OutcomeDuplicate        Outcome = "duplicate"
	OutcomeNoPaymentID      Outcome = "no_payment_id"
	OutcomeUnknownPayment   Outcome = "unknown_payment"
	OutcomeUnknownReference Outcome = "unknown_reference"
	OutcomeMismatch         Outcome = "amount_mismatch"
	OutcomeStale            Outcome = "stale_transition"
)

// Result décrit ce qu'une livraison a produit
type Result struct {
	Outcome   Outcome
	PaymentID string
	Intent    *models.OrderIntent
	Payment   *mercadopago.PaymentInfo
}

// ProcessNotification est le point d'entrée du webhook : extraction de
// l'identifiant, fetch autoritaire, puis réconciliation. Une erreur non
// nulle signifie « panne transitoire, relivrez » ; tout le reste est
// acquitté.
func (s *Service) ProcessNotification(ctx context.Context, body []byte, query url.Values, source string) (*Result, error) {
	paymentID := ExtractPaymentID(body, query)
	if paymentID == "" {
		// Malformée mais inoffensive : acquitter pour couper les relivraisons
		return &Result{Outcome: OutcomeNoPaymentID}, nil
	}

	payment, err := s.FetchPayment(ctx, paymentID)
	if err != nil {
		if mercadopago.IsTransient(err) {
			return nil, fmt.Errorf("fetch paiement %s: %w", paymentID, err)
		}
		// La passerelle ne connaît pas ce paiement : relivrer n'y changera rien
		return &Result{Outcome: OutcomeUnknownPayment, PaymentID: paymentID}, nil
	}

	return s.Reconcile(ctx, payment, source)
}

// Reconcile fait converger l'intention locale vers l'état autoritaire de la
// passerelle, exactement une fois par transition réelle. Également appelé
// par le polling client (source "poll").
func (s *Service) Reconcile(ctx context.Context, payment *mercadopago.PaymentInfo, source string) (*Result, error) {
	res := &Result{PaymentID: payment.PaymentID, Payment: payment}

	if payment.ExternalReference == "" {
		res.Outcome = OutcomeUnknownReference
		return res, nil
	}

	// Sérialisation par intention : la garde d'idempotence ne vaut rien si
	// deux livraisons la passent en même temps.
	unlock := s.locks.lock(payment.ExternalReference)
	defer unlock()

	intent, err := s.store.FindByExternalReference(ctx, payment.ExternalReference)
	if err != nil {
		return nil, fmt.Errorf("lecture intention %s: %w", payment.ExternalReference, err)
	}
	if intent == nil {
		// Jamais créer d'intention depuis un webhook
		res.Outcome = OutcomeUnknownReference
		return res, nil
	}
	res.Intent = intent

	target := gatewayStatusToIntent(payment.Status)

	// Livraison dupliquée : transition déjà enregistrée pour ce couple
	// (statut, paiement)
	if intent.HasStatusEntry(target, payment.PaymentID) {
		res.Outcome = OutcomeDuplicate
		return res, nil
	}

	// Aucun statut ne sort d'un état terminal
	if intent.IsTerminal() {
		log.Printf("⚠️ Transition %s ignorée: intention %s déjà %s",
			target, intent.ExternalReference, intent.Status)
		res.Outcome = OutcomeStale
		return res, nil
	}

	now := s.now()

	// Garde financière : un montant ou une devise qui ne colle pas ne doit
	// jamais approuver silencieusement une commande.
	if target == models.StatusApproved && !amountsMatch(intent, payment) {
		if intent.HasMismatchEntry(payment.PaymentID) {
			res.Outcome = OutcomeDuplicate
			return res, nil
		}
		entry := models.StatusEntry{
			Status:    intent.Status,
			At:        now,
			Source:    source,
			PaymentID: payment.PaymentID,
			Mismatch:  true,
			Detail: fmt.Sprintf("attendu %.2f %s, passerelle %.2f %s",
				intent.Total(), intent.Currency, payment.Amount, payment.Currency),
		}
		updated, err := s.store.AppendStatus(ctx, intent.ID, entry, "", payment.PaymentID)
		if err != nil {
			return nil, fmt.Errorf("enregistrement désaccord %s: %w", intent.ExternalReference, err)
		}
		log.Printf("🚨 Désaccord montant sur %s: %s", intent.ExternalReference, entry.Detail)
		res.Intent = updated
		res.Outcome = OutcomeMismatch
		return res, nil
	}

	entry := models.StatusEntry{
		Status:    target,
		At:        now,
		Source:    source,
		PaymentID: payment.PaymentID,
	}
	updated, err := s.store.AppendStatus(ctx, intent.ID, entry, target, payment.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("enregistrement transition %s: %w", intent.ExternalReference, err)
	}

	log.Printf("✅ Intention %s: %s → %s (paiement %s, source %s)",
		intent.ExternalReference, intent.Status, target, payment.PaymentID, source)

	res.Intent = updated
	res.Outcome = OutcomeApplied

	if target == models.StatusApproved && s.OnApproved != nil {
		hooked := *updated
		go s.OnApproved(hooked)
	}
	return res, nil
}

// gatewayStatusToIntent projette les statuts Mercado Pago sur la machine à
// états locale. Tout ce qui n'est pas tranché (in_process, authorized...)
// reste PENDING jusqu'à la notification suivante.
func gatewayStatusToIntent(status string) string {
	switch status {
	case "approved":
		return models.StatusApproved
	case "rejected":
		return models.StatusRejected
	case "cancelled":
		return models.StatusCancelled
	default:
		return models.StatusPending
	}
}

func amountsMatch(intent *models.OrderIntent, payment *mercadopago.PaymentInfo) bool {
	if payment.Currency != "" && payment.Currency != intent.Currency {
		return false
	}
	return math.Abs(payment.Amount-intent.Total()) < 0.01
}
