package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"astromania_back_end/internal/config"
	"astromania_back_end/internal/database"
	"astromania_back_end/internal/handlers"
	"astromania_back_end/internal/mercadopago"
	"astromania_back_end/internal/models"
	"astromania_back_end/internal/payments"
	"astromania_back_end/internal/routes"
	"astromania_back_end/internal/utils"
)

func main() {
	config.Load()

	accessToken := os.Getenv("MP_ACCESS_TOKEN")
	if accessToken == "" {
		log.Fatal("❌ Impossible d'initialiser Mercado Pago : MP_ACCESS_TOKEN manquant")
	}

	database.ConnectDatabases()
	defer database.CloseScylla()

	// Le client passerelle et le service paiements sont construits ici et
	// injectés : pas de singleton ambiant.
	gateway := mercadopago.NewClient(accessToken)
	if base := os.Getenv("MP_BASE_URL"); base != "" {
		gateway.BaseURL = base
	}
	log.Println("✅ Client Mercado Pago initialisé")

	store := payments.NewMongoIntentStore(database.MongoDB)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatal("❌ Création index order_intents échouée:", err)
	}
	cancel()

	baseURL := config.Getenv("BASE_URL", "http://localhost:8080")
	svc := payments.NewService(store, gateway, payments.Config{
		Currency: config.Getenv("MP_CURRENCY", "CLP"),
		BackURLs: mercadopago.BackURLs{
			Success: baseURL + "/api/payments/success",
			Failure: baseURL + "/api/payments/failure",
			Pending: baseURL + "/api/payments/pending",
		},
		NotificationURL: baseURL + "/api/payments/notification",
	})
	svc.OnApproved = onOrderApproved(baseURL)

	r := gin.Default()
	r.Use(cors.Default())
	routes.RegisterRoutes(r, handlers.NewPaymentHandler(svc))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Serveur Astromanía lancé sur le port", port)
	r.Run(":" + port)
}

// onOrderApproved est exécuté après chaque transition réelle vers APPROVED :
// purge du panier de la session puis envoi du reçu. Tout est best effort,
// rien ne remonte vers l'acquittement du webhook.
func onOrderApproved(baseURL string) func(models.OrderIntent) {
	return func(intent models.OrderIntent) {
		handlers.ClearCartForSession(intent.Buyer.SessionID)

		if intent.Buyer.Email == "" {
			return
		}

		statusURL := baseURL + "/api/payments/order/" + intent.ExternalReference
		qr, err := utils.GenerateStatusQR(statusURL)
		if err != nil {
			log.Println("⚠️ Génération QR échouée:", err)
		}

		html := utils.GenerateReceiptHTML(intent, qr)

		pdf, err := utils.RenderReceiptPDF(html)
		if err != nil {
			log.Println("⚠️ Génération PDF reçu échouée:", err)
			pdf = nil
		}

		if err := utils.SendMail(utils.Message{
			To:         intent.Buyer.Email,
			Subject:    "Confirmación de tu compra Astromanía",
			HTML:       html,
			Attachment: pdf,
			AttachName: "comprobante_astromania.pdf",
		}); err != nil {
			log.Println("❌ Envoi du reçu échoué:", err)
		}
	}
}
