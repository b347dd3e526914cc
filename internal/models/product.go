package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Types d'articles du catalogue
const (
	ItemTypeProduct = "product"
	ItemTypeService = "service"
)

// ProductImage référence une image stockée dans MinIO
type ProductImage struct {
	URL       string `json:"url" bson:"url"`
	ObjectKey string `json:"objectKey" bson:"object_key"`
	Alt       string `json:"alt,omitempty" bson:"alt,omitempty"`
}

// ServiceProduct est un article du catalogue : produit physique ou service
// (atelier, observation, charla...)
type ServiceProduct struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title            string             `json:"title" bson:"title"`
	Slug             string             `json:"slug" bson:"slug"`
	Type             string             `json:"type" bson:"type"`
	Category         string             `json:"category,omitempty" bson:"category,omitempty"`
	ShortDescription string             `json:"shortDescription,omitempty" bson:"short_description,omitempty"`
	Description      string             `json:"description,omitempty" bson:"description,omitempty"`
	Price            float64            `json:"price" bson:"price"`
	Currency         string             `json:"currency" bson:"currency"`
	Active           bool               `json:"active" bson:"active"`
	Stock            int                `json:"stock" bson:"stock"`
	Delivery         string             `json:"delivery,omitempty" bson:"delivery,omitempty"`
	Images           []ProductImage     `json:"images" bson:"images"`
	DurationMinutes  int                `json:"durationMinutes,omitempty" bson:"duration_minutes,omitempty"`
	Capacity         int                `json:"capacity,omitempty" bson:"capacity,omitempty"`
	Locations        []string           `json:"locations,omitempty" bson:"locations,omitempty"`
	Tags             []string           `json:"tags,omitempty" bson:"tags,omitempty"`
	CreatedAt        time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt        time.Time          `json:"updatedAt" bson:"updated_at"`
}
