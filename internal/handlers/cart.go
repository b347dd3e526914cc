package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"astromania_back_end/internal/database"
	"astromania_back_end/internal/models"
)

const cartTTL = 30 * 24 * time.Hour

func cartKey(sessionID string) string {
	return "cart:" + sessionID
}

func cartSession(c *gin.Context) string {
	return c.GetHeader("X-Session-ID")
}

// 🟢 GET /api/cart
func GetCart(c *gin.Context) {
	sessionID := cartSession(c)
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-Session-ID manquant"})
		return
	}

	data, err := database.Redis.Get(context.Background(), cartKey(sessionID)).Result()
	if err != nil {
		c.JSON(http.StatusOK, []models.CartItem{}) // Panier vide par défaut
		return
	}

	var cart []models.CartItem
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur décodage panier"})
		return
	}

	c.JSON(http.StatusOK, cart)
}

// 🟢 POST /api/cart/add
func AddToCart(c *gin.Context) {
	sessionID := cartSession(c)
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-Session-ID manquant"})
		return
	}

	var item models.CartItem
	if err := c.ShouldBindJSON(&item); err != nil || item.Quantity < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	key := cartKey(sessionID)
	data, _ := database.Redis.Get(context.Background(), key).Result()
	var cart []models.CartItem
	if data != "" {
		_ = json.Unmarshal([]byte(data), &cart)
	}

	// Cumule la quantité si l'article est déjà présent
	found := false
	for i := range cart {
		if cart[i].ReferenceID == item.ReferenceID {
			cart[i].Quantity += item.Quantity
			found = true
			break
		}
	}
	if !found {
		cart = append(cart, item)
	}

	jsonData, _ := json.Marshal(cart)
	database.Redis.Set(context.Background(), key, jsonData, cartTTL)

	c.JSON(http.StatusOK, cart)
}

// 🟢 DELETE /api/cart/:referenceId
func RemoveFromCart(c *gin.Context) {
	sessionID := cartSession(c)
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-Session-ID manquant"})
		return
	}

	referenceID := c.Param("referenceId")
	key := cartKey(sessionID)

	data, _ := database.Redis.Get(context.Background(), key).Result()
	if data == "" {
		c.JSON(http.StatusOK, gin.H{"message": "Panier vide"})
		return
	}

	var cart []models.CartItem
	_ = json.Unmarshal([]byte(data), &cart)

	newCart := []models.CartItem{}
	for _, item := range cart {
		if item.ReferenceID != referenceID {
			newCart = append(newCart, item)
		}
	}

	jsonData, _ := json.Marshal(newCart)
	database.Redis.Set(context.Background(), key, jsonData, cartTTL)

	c.JSON(http.StatusOK, newCart)
}

// 🟢 DELETE /api/cart
func ClearCart(c *gin.Context) {
	sessionID := cartSession(c)
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-Session-ID manquant"})
		return
	}

	database.Redis.Del(context.Background(), cartKey(sessionID))
	c.JSON(http.StatusOK, gin.H{"message": "Panier vidé"})
}

// ClearCartForSession supprime le panier d'une session, utilisé après une
// commande approuvée.
func ClearCartForSession(sessionID string) {
	if sessionID == "" {
		return
	}
	database.Redis.Del(context.Background(), cartKey(sessionID))
}
