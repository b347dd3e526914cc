package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"astromania_back_end/internal/mercadopago"
	"astromania_back_end/internal/models"
	"astromania_back_end/internal/payments"
	"astromania_back_end/internal/utils"
)

// PaymentHandler expose le cœur paiement sur HTTP. Le service est injecté
// depuis main, pas d'état de module.
type PaymentHandler struct {
	Svc *payments.Service
}

func NewPaymentHandler(svc *payments.Service) *PaymentHandler {
	return &PaymentHandler{Svc: svc}
}

// POST /api/payments/create-preference
func (h *PaymentHandler) CreatePreference(c *gin.Context) {
	var req struct {
		Items []models.CartItem    `json:"items"`
		Buyer models.BuyerMetadata `json:"buyer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	if req.Buyer.SessionID == "" {
		req.Buyer.SessionID = c.GetHeader("X-Session-ID")
	}

	result, err := h.Svc.CreateIntent(c.Request.Context(), req.Items, req.Buyer)
	switch {
	case errors.Is(err, payments.ErrEmptyCart), errors.Is(err, payments.ErrInvalidItem):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, payments.ErrGatewayDown):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Paiement momentanément indisponible, réessayez"})
		return
	case err != nil:
		log.Println("❌ Création intention échouée:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"preferenceId":      result.Intent.GatewayPreferenceID,
		"redirectUrl":       result.RedirectURL,
		"externalReference": result.Intent.ExternalReference,
	})
}

// POST /api/payments/notification : webhook Mercado Pago.
// Toujours 200, sauf vraie panne transitoire : le 5xx est le seul signal
// qui provoque une relivraison.
func (h *PaymentHandler) Notification(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		log.Println("⚠️ Lecture body webhook échouée:", err)
		body = nil
	}

	result, err := h.Svc.ProcessNotification(c.Request.Context(), body, c.Request.URL.Query(), models.SourceWebhook)
	if err != nil {
		log.Println("❌ Webhook en échec transitoire, relivraison attendue:", err)
		utils.AuditNotification(c.ClientIP(), "", "", "transient_error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Réessayez"})
		return
	}

	ref := ""
	if result.Payment != nil {
		ref = result.Payment.ExternalReference
	}
	utils.AuditNotification(c.ClientIP(), result.PaymentID, ref, string(result.Outcome), "")

	switch result.Outcome {
	case payments.OutcomeApplied:
		// Déjà loggé par la réconciliation
	case payments.OutcomeDuplicate:
		log.Printf("🔁 Livraison dupliquée pour paiement %s, ignorée", result.PaymentID)
	case payments.OutcomeMismatch:
		log.Printf("🚨 Webhook acquitté mais commande NON approuvée (désaccord montant), paiement %s", result.PaymentID)
	case payments.OutcomeNoPaymentID:
		log.Println("ℹ️ Notification sans identifiant de paiement, ignorée")
	default:
		log.Printf("ℹ️ Notification ignorée (%s), paiement %s", result.Outcome, result.PaymentID)
	}

	c.String(http.StatusOK, "OK")
}

// GET /api/payments/status/:paymentId : proxy de l'état autoritaire,
// utilisé par le client après le retour de redirection.
func (h *PaymentHandler) Status(c *gin.Context) {
	paymentID := c.Param("paymentId")

	payment, err := h.Svc.FetchPayment(c.Request.Context(), paymentID)
	if err != nil {
		if mercadopago.IsTransient(err) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Passerelle indisponible, réessayez"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Paiement introuvable"})
		return
	}

	// Le poll peut faire converger l'état local lui aussi, même machine à
	// états que le webhook. Best effort, jamais bloquant pour la réponse.
	go func(p mercadopago.PaymentInfo) {
		if _, err := h.Svc.Reconcile(context.Background(), &p, models.SourcePoll); err != nil {
			log.Println("⚠️ Réconciliation par poll échouée:", err)
		}
	}(*payment)

	c.JSON(http.StatusOK, gin.H{
		"id":                payment.PaymentID,
		"status":            payment.Status,
		"statusDetail":      payment.StatusDetail,
		"amount":            payment.Amount,
		"currency":          payment.Currency,
		"externalReference": payment.ExternalReference,
	})
}

// GET /api/payments/order/:externalReference : état local de l'intention
func (h *PaymentHandler) OrderByReference(c *gin.Context) {
	ref := c.Param("externalReference")

	intent, err := h.Svc.FindIntent(c.Request.Context(), ref)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture commande"})
		return
	}
	if intent == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	c.JSON(http.StatusOK, intent)
}

// Pages de retour après checkout. Purement informatives : les query params
// de redirection ne sont jamais une source de vérité, seule la notification
// fait foi.
func (h *PaymentHandler) SuccessReturn(c *gin.Context) {
	c.String(http.StatusOK, "Pago aprobado. Puedes cerrar esta ventana.")
}

func (h *PaymentHandler) FailureReturn(c *gin.Context) {
	c.String(http.StatusOK, "Pago rechazado o fallido.")
}

func (h *PaymentHandler) PendingReturn(c *gin.Context) {
	c.String(http.StatusOK, "Pago pendiente.")
}
