package model

import "time"

type Notification struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Kind      string    `json:"kind" bson:"kind"`
	Message   string    `json:"message" bson:"message"`
	RecordID  string    `json:"record_id,omitempty" bson:"record_id,omitempty"`
	Read      bool      `json:"read" bson:"read"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
