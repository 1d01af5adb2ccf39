package validators

import "go.mongodb.org/mongo-driver/bson"

var statuses = []string{"Pending", "Confirmed", "In Progress", "Completed", "Cancelled"}

// JobValidator is applied to both jobs and bookings.
var JobValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"requester_id",
			"customer_name",
			"contact_number",
			"vehicle",
			"service_type",
			"status",
			"scheduled_at",
			"needs_sync",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"requester_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"assigned_provider_id": bson.M{
				"bsonType": "string",
			},

			"service_center_id": bson.M{
				"bsonType": "string",
			},

			"customer_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"contact_number": bson.M{
				"bsonType": "string",
			},

			"vehicle": bson.M{
				"bsonType":  "string",
				"maxLength": 200,
			},

			"service_type": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"message": bson.M{
				"bsonType":  "string",
				"maxLength": 2000,
			},

			"status": bson.M{
				"enum": statuses,
			},

			"scheduled_at": bson.M{
				"bsonType": "date",
			},

			"cost": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"started_at": bson.M{
				"bsonType": "date",
			},

			"completed_at": bson.M{
				"bsonType": "date",
			},

			"needs_sync": bson.M{
				"bsonType": "bool",
			},

			"rest_ref": bson.M{
				"bsonType": "string",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
