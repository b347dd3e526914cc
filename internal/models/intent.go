package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Statuts d'une intention de commande. APPROVED, REJECTED et CANCELLED
// sont terminaux : aucune transition n'en sort.
const (
	StatusCreated   = "CREATED"
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)

// Provenance d'une entrée d'historique
const (
	SourceCreate  = "create"
	SourceWebhook = "webhook"
	SourcePoll    = "poll"
)

// StatusEntry est une entrée de l'historique de statuts. L'historique est
// append-only : jamais modifié, jamais supprimé.
type StatusEntry struct {
	Status    string    `json:"status" bson:"status"`
	At        time.Time `json:"at" bson:"at"`
	Source    string    `json:"source" bson:"source"`
	PaymentID string    `json:"paymentId,omitempty" bson:"payment_id,omitempty"`
	Mismatch  bool      `json:"mismatch,omitempty" bson:"mismatch,omitempty"`
	Detail    string    `json:"detail,omitempty" bson:"detail,omitempty"`
}

// BuyerMetadata identifie l'acheteur/la session à l'origine d'un checkout
type BuyerMetadata struct {
	SessionID string `json:"sessionId" bson:"session_id"`
	Name      string `json:"name,omitempty" bson:"name,omitempty"`
	Email     string `json:"email,omitempty" bson:"email,omitempty"`
}

// OrderIntent est l'enregistrement durable d'une tentative de checkout,
// indépendant du fait que le paiement aboutisse ou non. Jamais supprimé,
// conservé pour audit.
type OrderIntent struct {
	ID                  primitive.ObjectID `json:"intentId" bson:"_id,omitempty"`
	ExternalReference   string             `json:"externalReference" bson:"external_reference"`
	Items               []CartItem         `json:"items" bson:"items"`
	Status              string             `json:"status" bson:"status"`
	Currency            string             `json:"currency" bson:"currency"`
	GatewayPreferenceID string             `json:"gatewayPreferenceId,omitempty" bson:"gateway_preference_id,omitempty"`
	GatewayPaymentID    string             `json:"gatewayPaymentId,omitempty" bson:"gateway_payment_id,omitempty"`
	StatusHistory       []StatusEntry      `json:"statusHistory" bson:"status_history"`
	Buyer               BuyerMetadata      `json:"buyer" bson:"buyer"`
	CreatedAt           time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt           time.Time          `json:"updatedAt" bson:"updated_at"`
}

// Total est le montant impliqué par les articles de l'intention
func (i *OrderIntent) Total() float64 {
	return CartTotal(i.Items)
}

// IsTerminal indique si le statut courant interdit toute transition
func (i *OrderIntent) IsTerminal() bool {
	return IsTerminalStatus(i.Status)
}

// IsTerminalStatus indique si un statut est terminal
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// HasStatusEntry cherche une entrée (statut, paiement) déjà enregistrée :
// c'est la garde d'idempotence contre les livraisons dupliquées.
func (i *OrderIntent) HasStatusEntry(status, paymentID string) bool {
	for _, e := range i.StatusHistory {
		if !e.Mismatch && e.Status == status && e.PaymentID == paymentID {
			return true
		}
	}
	return false
}

// HasMismatchEntry cherche une entrée de désaccord déjà enregistrée pour un paiement
func (i *OrderIntent) HasMismatchEntry(paymentID string) bool {
	for _, e := range i.StatusHistory {
		if e.Mismatch && e.PaymentID == paymentID {
			return true
		}
	}
	return false
}
