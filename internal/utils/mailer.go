package utils

import (
	"bytes"
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/wneessen/go-mail"
)

// Message est un courriel sortant
type Message struct {
	To         string
	Subject    string
	HTML       string
	ReplyTo    string
	Attachment []byte
	AttachName string
}

// transport est un serveur SMTP candidat. Les transports sont essayés dans
// l'ordre, chacun avec son propre timeout : si le premier tombe, le suivant
// prend le relais.
type transport struct {
	Host     string
	Port     int
	Username string
	Password string
}

// transports lit la chaîne de transports depuis l'env : SMTP_* d'abord,
// puis SMTP_FALLBACK_* s'il est configuré.
func transports() []transport {
	var list []transport

	if host := os.Getenv("SMTP_HOST"); host != "" {
		list = append(list, transport{
			Host:     host,
			Port:     envPort("SMTP_PORT"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
		})
	}
	if host := os.Getenv("SMTP_FALLBACK_HOST"); host != "" {
		list = append(list, transport{
			Host:     host,
			Port:     envPort("SMTP_FALLBACK_PORT"),
			Username: os.Getenv("SMTP_FALLBACK_USERNAME"),
			Password: os.Getenv("SMTP_FALLBACK_PASSWORD"),
		})
	}
	return list
}

func envPort(key string) int {
	if p, err := strconv.Atoi(os.Getenv(key)); err == nil && p > 0 {
		return p
	}
	return 587
}

// SendMail envoie un courriel via le premier transport qui répond
func SendMail(m Message) error {
	list := transports()
	if len(list) == 0 {
		return errors.New("aucun transport SMTP configuré")
	}

	to := m.To
	if to == "" {
		to = os.Getenv("CONTACT_RECIPIENT")
	}
	if to == "" {
		return errors.New("destinataire manquant")
	}

	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "noreply@astromania.cl"
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	if m.ReplyTo != "" {
		if err := msg.ReplyTo(m.ReplyTo); err != nil {
			return err
		}
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextHTML, m.HTML)
	if m.Attachment != nil {
		name := m.AttachName
		if name == "" {
			name = "document.pdf"
		}
		msg.AttachReader(name, bytes.NewReader(m.Attachment))
	}

	var lastErr error
	for i, t := range list {
		client, err := mail.NewClient(t.Host,
			mail.WithPort(t.Port),
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(t.Username),
			mail.WithPassword(t.Password),
			mail.WithTLSPolicy(mail.TLSMandatory),
			mail.WithTimeout(15*time.Second),
		)
		if err != nil {
			lastErr = err
			continue
		}

		if err := client.DialAndSend(msg); err != nil {
			log.Printf("⚠️ Transport SMTP %d (%s) en échec: %v", i+1, t.Host, err)
			lastErr = err
			continue
		}

		log.Println("📧 Courriel envoyé à", to)
		return nil
	}
	return lastErr
}
