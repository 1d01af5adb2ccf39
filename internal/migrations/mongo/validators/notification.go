package validators

import "go.mongodb.org/mongo-driver/bson"

var NotificationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"user_id",
			"kind",
			"message",
			"read",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"user_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"kind": bson.M{
				"bsonType": "string",
			},

			"message": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"record_id": bson.M{
				"bsonType": "string",
			},

			"read": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
