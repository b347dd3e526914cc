package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"astromania_back_end/internal/database"
	"astromania_back_end/internal/models"
)

func eventsCollection() *mongo.Collection {
	return database.MongoDB.Collection("events")
}

// 🟢 GET /api/events
func GetAllEvents(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start_date_time", Value: 1}})
	cursor, err := eventsCollection().Find(ctx, bson.M{}, opts)
	if err != nil {
		log.Println("❌ Erreur MongoDB Find événements:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération événements"})
		return
	}
	defer cursor.Close(ctx)

	events := []models.Event{}
	if err := cursor.All(ctx, &events); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur décodage"})
		return
	}

	c.JSON(http.StatusOK, events)
}

// 🟢 GET /api/events/:id
func GetEventByID(c *gin.Context) {
	oid, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID invalide"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	var event models.Event
	if err := eventsCollection().FindOne(ctx, bson.M{"_id": oid}).Decode(&event); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Événement introuvable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"event": event})
}

// 🟢 POST /api/events
func CreateEvent(c *gin.Context) {
	var event models.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	// Garde contre les doublons : même titre, même date, même lieu
	count, err := eventsCollection().CountDocuments(ctx, bson.M{
		"title":           event.Title,
		"start_date_time": event.StartDateTime,
		"location":        event.Location,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur base de données"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Un événement identique existe déjà (titre, date, lieu)"})
		return
	}

	event.ID = primitive.NewObjectID()
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt

	if _, err := eventsCollection().InsertOne(ctx, event); err != nil {
		log.Println("❌ Erreur insertion événement:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création événement"})
		return
	}

	c.JSON(http.StatusCreated, event)
}

// 🟢 PUT /api/events/:id
func UpdateEvent(c *gin.Context) {
	oid, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID invalide"})
		return
	}

	var update map[string]interface{}
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	delete(update, "_id")
	delete(update, "id")
	update["updated_at"] = time.Now()

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var event models.Event
	err = eventsCollection().FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": update}, opts).Decode(&event)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Événement introuvable"})
		return
	}

	c.JSON(http.StatusOK, event)
}

// 🟢 DELETE /api/events/:id
func DeleteEvent(c *gin.Context) {
	oid, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID invalide"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	res, err := eventsCollection().DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression"})
		return
	}
	if res.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Événement introuvable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Événement supprimé correctement"})
}
