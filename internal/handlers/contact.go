package handlers

import (
	"fmt"
	"html"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"astromania_back_end/internal/utils"
)

// 🟢 POST /api/contact : formulaire de contact public
func CreateContact(c *gin.Context) {
	var req struct {
		Name    string `json:"name" binding:"required"`
		Email   string `json:"email" binding:"required,email"`
		Subject string `json:"subject" binding:"required"`
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tous les champs sont obligatoires"})
		return
	}

	body := fmt.Sprintf(`
		<h3>Nouveau message depuis le site</h3>
		<p><strong>Nom :</strong> %s</p>
		<p><strong>Email :</strong> %s</p>
		<p><strong>Sujet :</strong> %s</p>
		<p>%s</p>`,
		html.EscapeString(req.Name),
		html.EscapeString(req.Email),
		html.EscapeString(req.Subject),
		html.EscapeString(req.Message),
	)

	if err := utils.SendMail(utils.Message{
		Subject: "[Contacto] " + req.Subject,
		HTML:    body,
		ReplyTo: req.Email,
	}); err != nil {
		log.Println("❌ Envoi du message de contact échoué:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Le message n'a pas pu être envoyé"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message envoyé"})
}
