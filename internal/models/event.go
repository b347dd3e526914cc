package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event est un événement du calendrier public
type Event struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title         string             `json:"title" bson:"title" binding:"required"`
	Description   string             `json:"description,omitempty" bson:"description,omitempty"`
	StartDateTime time.Time          `json:"startDateTime" bson:"start_date_time" binding:"required"`
	EndDateTime   time.Time          `json:"endDateTime" bson:"end_date_time"`
	Location      string             `json:"location,omitempty" bson:"location,omitempty"`
	Capacity      int                `json:"capacity,omitempty" bson:"capacity,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updated_at"`
}
