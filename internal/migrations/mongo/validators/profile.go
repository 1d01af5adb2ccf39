package validators

import "go.mongodb.org/mongo-driver/bson"

// ProfileValidator covers the fields every role shares. Role specific
// fields are left open.
var ProfileValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"category",
			"display_name",
			"needs_sync",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"category": bson.M{
				"enum": []string{"owner", "technician", "service-center"},
			},

			"display_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"email": bson.M{
				"bsonType": "string",
			},

			"contact_number": bson.M{
				"bsonType": "string",
			},

			"experience_years": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
				"maximum":  80,
			},

			"available": bson.M{
				"bsonType": "bool",
			},

			"services": bson.M{
				"bsonType": "array",
				"items":    bson.M{"bsonType": "string"},
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
