package model

import "time"

type SparePart struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Brand     string    `json:"brand" bson:"brand" validate:"max=100"`
	Category  string    `json:"category" bson:"category" validate:"required,max=50"`
	Price     float64   `json:"price" bson:"price" validate:"min=0"`
	Stock     int       `json:"stock" bson:"stock" validate:"min=0"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
