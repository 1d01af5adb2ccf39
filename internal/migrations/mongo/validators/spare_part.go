package validators

import "go.mongodb.org/mongo-driver/bson"

var SparePartValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"category",
			"price",
			"stock",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"brand": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"category": bson.M{
				"bsonType":  "string",
				"maxLength": 50,
			},

			"price": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"stock": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
