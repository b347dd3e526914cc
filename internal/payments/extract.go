package payments

import (
	"encoding/json"
	"net/url"
	"strconv"
)

// flexID accepte un identifiant JSON livré en chaîne ou en nombre :
// Mercado Pago envoie les deux selon le topic.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type notificationPayload struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Topic  string `json:"topic"`
	ID     flexID `json:"id"`
	Data   struct {
		ID        flexID `json:"id"`
		PaymentID flexID `json:"paymentId"`
	} `json:"data"`
}

// Une stratégie d'extraction : fonction pure payload/query -> paymentId ("" si absent)
type extractor struct {
	name string
	fn   func(p *notificationPayload, q url.Values) string
}

// Ordre de précédence fixe. L'objet data porte l'identifiant de paiement
// pour le topic "payment" ; le champ id de premier niveau passe en dernier
// car pour les autres topics c'est l'identifiant de la notification.
var extractors = []extractor{
	{"body.data.id", func(p *notificationPayload, _ url.Values) string {
		if p.Data.ID != "" {
			return string(p.Data.ID)
		}
		return string(p.Data.PaymentID)
	}},
	{"query.data.id", func(_ *notificationPayload, q url.Values) string {
		return q.Get("data.id")
	}},
	{"query.id", func(_ *notificationPayload, q url.Values) string {
		return q.Get("id")
	}},
	{"body.id", func(p *notificationPayload, _ url.Values) string {
		return string(p.ID)
	}},
}

// ExtractPaymentID normalise les différentes formes de notification vers un
// identifiant de paiement canonique. Chaîne vide si rien d'exploitable :
// une notification malformée est inoffensive, pas une erreur.
func ExtractPaymentID(body []byte, query url.Values) string {
	var payload notificationPayload
	if len(body) > 0 {
		// Un body illisible n'empêche pas le fallback par query params
		_ = json.Unmarshal(body, &payload)
	}

	for _, e := range extractors {
		if id := e.fn(&payload, query); id != "" && isPlausiblePaymentID(id) {
			return id
		}
	}
	return ""
}

// isPlausiblePaymentID écarte les valeurs manifestement non numériques ;
// les identifiants de paiement Mercado Pago sont des entiers.
func isPlausiblePaymentID(id string) bool {
	_, err := strconv.ParseInt(id, 10, 64)
	return err == nil
}
