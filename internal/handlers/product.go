package handlers

import (
	"context"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"astromania_back_end/internal/database"
	"astromania_back_end/internal/models"
	"astromania_back_end/internal/services"
)

func productsCollection() *mongo.Collection {
	return database.MongoDB.Collection("service_products")
}

var slugCleaner = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(title string) string {
	s := slugCleaner.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}

// 🟢 GET /api/products : liste, filtrable par type et actif
func GetAllProducts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if t := c.Query("type"); t != "" {
		filter["type"] = t
	}
	if c.Query("active") == "true" {
		filter["active"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := productsCollection().Find(ctx, filter, opts)
	if err != nil {
		log.Println("❌ Erreur MongoDB Find produits:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération catalogue"})
		return
	}
	defer cursor.Close(ctx)

	products := []models.ServiceProduct{}
	if err := cursor.All(ctx, &products); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur décodage catalogue"})
		return
	}

	c.JSON(http.StatusOK, products)
}

// 🟢 GET /api/products/:id
func GetProductByID(c *gin.Context) {
	oid, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID invalide"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	var product models.ServiceProduct
	if err := productsCollection().FindOne(ctx, bson.M{"_id": oid}).Decode(&product); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article introuvable"})
		return
	}

	c.JSON(http.StatusOK, product)
}

// 🟢 POST /api/products
func CreateProduct(c *gin.Context) {
	var product models.ServiceProduct
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}
	if product.Title == "" || (product.Type != models.ItemTypeProduct && product.Type != models.ItemTypeService) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Titre et type (product|service) obligatoires"})
		return
	}

	if product.Slug == "" {
		product.Slug = slugify(product.Title)
	}
	if product.Currency == "" {
		product.Currency = "CLP"
	}
	product.ID = primitive.NewObjectID()
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	// Unicité du slug
	count, err := productsCollection().CountDocuments(ctx, bson.M{"slug": product.Slug})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur base de données"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Un article existe déjà avec ce slug", "slug": product.Slug})
		return
	}

	if _, err := productsCollection().InsertOne(ctx, product); err != nil {
		log.Println("❌ Erreur insertion produit:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création article"})
		return
	}

	go services.IndexProduct(product)

	c.JSON(http.StatusCreated, product)
}

// 🟢 PUT /api/products/:id
func UpdateProduct(c *gin.Context) {
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
	var product models.ServiceProduct
	err = productsCollection().FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": update}, opts).Decode(&product)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article introuvable"})
		return
	}

	go services.IndexProduct(product)

	c.JSON(http.StatusOK, product)
}

// 🟢 DELETE /api/products/:id : supprime aussi les images MinIO associées
func DeleteProduct(c *gin.Context) {
	oid, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID invalide"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	var product models.ServiceProduct
	if err := productsCollection().FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&product); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article introuvable"})
		return
	}

	for _, img := range product.Images {
		if err := services.DeleteImage(ctx, img.ObjectKey); err != nil {
			log.Println("⚠️ Suppression image échouée:", img.ObjectKey, err)
		}
	}
	go services.RemoveProductFromIndex(product.ID.Hex())

	c.JSON(http.StatusOK, gin.H{"message": "Article supprimé"})
}

// 🟢 GET /api/products/search?q=
func SearchProducts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre q requis"})
		return
	}

	results, err := services.SearchProducts(query)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Recherche indisponible"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// 🟢 POST /api/products/:id/images : upload multipart vers MinIO
func UploadProductImage(c *gin.Context) {
	oid, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID invalide"})
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier image requis"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	url, objectKey, err := services.UploadImage(ctx, oid.Hex(), file)
	if err != nil {
		log.Println("❌ Upload MinIO échoué:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload impossible"})
		return
	}

	image := models.ProductImage{URL: url, ObjectKey: objectKey, Alt: c.PostForm("alt")}
	_, err = productsCollection().UpdateByID(ctx, oid, bson.M{
		"$push": bson.M{"images": image},
		"$set":  bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur enregistrement image"})
		return
	}

	c.JSON(http.StatusCreated, image)
}
