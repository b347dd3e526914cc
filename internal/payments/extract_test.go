package payments

import (
	"net/url"
	"testing"
)

func TestExtractPaymentID(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		query string
		want  string
	}{
		{
			name: "data.id en chaîne",
			body: `{"type":"payment","data":{"id":"12345"}}`,
			want: "12345",
		},
		{
			name: "data.id numérique",
			body: `{"type":"payment","data":{"id":98765}}`,
			want: "98765",
		},
		{
			name: "data.paymentId",
			body: `{"data":{"paymentId":"555"}}`,
			want: "555",
		},
		{
			name:  "query data.id",
			query: "data.id=777&type=payment",
			want:  "777",
		},
		{
			name:  "query id",
			query: "id=888&topic=payment",
			want:  "888",
		},
		{
			name: "body.id en dernier recours",
			body: `{"id":999,"topic":"payment"}`,
			want: "999",
		},
		{
			name:  "data.id prioritaire sur query et body.id",
			body:  `{"id":111,"data":{"id":"222"}}`,
			query: "id=333&data.id=444",
			want:  "222",
		},
		{
			name:  "query data.id prioritaire sur query id",
			query: "data.id=444&id=333",
			want:  "444",
		},
		{
			name:  "body illisible, fallback query",
			body:  `{pas du json`,
			query: "data.id=1212",
			want:  "1212",
		},
		{
			name: "identifiant non numérique écarté",
			body: `{"data":{"id":"abc-def"}}`,
			want: "",
		},
		{
			name: "rien d'exploitable",
			body: `{"type":"test"}`,
			want: "",
		},
		{
			name: "body vide",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("query invalide: %v", err)
			}
			if got := ExtractPaymentID([]byte(tt.body), q); got != tt.want {
				t.Fatalf("ExtractPaymentID() = %q, veut %q", got, tt.want)
			}
		})
	}
}
