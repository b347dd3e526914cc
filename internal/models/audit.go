package models

import (
	"time"

	"github.com/gocql/gocql"
)

// NotificationAudit est une trace append-only d'une livraison de webhook,
// quelle qu'en soit l'issue. Stocké dans ScyllaDB, table notification_audit.
type NotificationAudit struct {
	ID                gocql.UUID
	PaymentID         string
	ExternalReference string
	Outcome           string
	ErrorMsg          string
	IPAddress         string
	ReceivedAt        time.Time
}
