package utils

import (
	"log"
	"time"

	"github.com/gocql/gocql"

	"astromania_back_end/internal/database"
	"astromania_back_end/internal/models"
)

// AuditNotification trace chaque livraison de webhook dans ScyllaDB, quelle
// que soit l'issue. Asynchrone et best effort : l'audit ne doit jamais
// retarder ni faire échouer l'acquittement.
func AuditNotification(ip, paymentID, externalReference, outcome, errorMsg string) {
	if database.Scylla == nil {
		return
	}

	entry := models.NotificationAudit{
		ID:                gocql.TimeUUID(),
		PaymentID:         paymentID,
		ExternalReference: externalReference,
		Outcome:           outcome,
		ErrorMsg:          errorMsg,
		IPAddress:         ip,
		ReceivedAt:        time.Now(),
	}

	go func() {
		query := `
			INSERT INTO notification_audit (
				id, payment_id, external_reference, outcome,
				error_msg, ip_address, received_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		err := database.Scylla.Query(query,
			entry.ID, entry.PaymentID, entry.ExternalReference, entry.Outcome,
			entry.ErrorMsg, entry.IPAddress, entry.ReceivedAt,
		).Exec()
		if err != nil {
			log.Printf("❌ Erreur enregistrement audit notification: %v", err)
		}
	}()
}
