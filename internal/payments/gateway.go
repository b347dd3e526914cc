package payments

import (
	"context"

	"astromania_back_end/internal/mercadopago"
)

// Gateway est le contrat minimal dont la réconciliation a besoin.
// FetchPayment est la seule source de vérité sur l'état d'un paiement :
// le contenu d'un webhook ne sert qu'à déclencher l'appel.
type Gateway interface {
	CreatePreference(ctx context.Context, req mercadopago.PreferenceRequest) (*mercadopago.PreferenceResult, error)
	FetchPayment(ctx context.Context, paymentID string) (*mercadopago.PaymentInfo, error)
}
