// Package docs registers the OpenAPI document served under /swagger.
// Regenerate it from the handler annotations with `go generate ./cmd`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/tournaments": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "List tournaments",
                "parameters": [
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "boolean", "name": "featured", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "Create a tournament",
                "parameters": [
                    {"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.CreateTournamentInput"}}
                ],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/tournaments/{tournamentID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "Get a tournament",
                "parameters": [
                    {"type": "string", "name": "tournamentID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/tournaments/{tournamentID}/status": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "Change tournament status",
                "parameters": [
                    {"type": "string", "name": "tournamentID", "in": "path", "required": true},
                    {"type": "string", "name": "status", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}
            }
        },
        "/tournaments/{tournamentID}/registrations": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["registrations"],
                "summary": "List registrations",
                "description": "Includes payment details and notes, so it is limited to admins and operators.",
                "parameters": [
                    {"type": "string", "name": "tournamentID", "in": "path", "required": true},
                    {"type": "string", "name": "status", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["registrations"],
                "summary": "Register a player",
                "parameters": [
                    {"type": "string", "name": "tournamentID", "in": "path", "required": true},
                    {"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.RegisterInput"}}
                ],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}
            }
        },
        "/tournaments/{tournamentID}/registrations/{registrationID}/status": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["registrations"],
                "summary": "Change registration status",
                "parameters": [
                    {"type": "string", "name": "tournamentID", "in": "path", "required": true},
                    {"type": "string", "name": "registrationID", "in": "path", "required": true},
                    {"type": "string", "name": "status", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        },
        "/tournaments/{tournamentID}/bracket": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["brackets"],
                "summary": "Generate a bracket",
                "parameters": [
                    {"type": "string", "name": "tournamentID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        }
    },
    "definitions": {
        "services.CreateTournamentInput": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "venue": {"type": "string"},
                "start_date": {"type": "string", "format": "date-time"},
                "end_date": {"type": "string", "format": "date-time"},
                "registration_start": {"type": "string", "format": "date-time"},
                "registration_end": {"type": "string", "format": "date-time"},
                "max_participants": {"type": "integer"},
                "entry_fee_cents": {"type": "integer"},
                "prize_pool_cents": {"type": "integer"},
                "tournament_type": {"type": "string", "enum": ["SINGLES", "DOUBLES", "MIXED_DOUBLES", "TEAM"]},
                "age_category": {"type": "string"},
                "gender_category": {"type": "string", "enum": ["MALE", "FEMALE", "MIXED", "OPEN"]},
                "is_featured": {"type": "boolean"}
            }
        },
        "services.RegisterInput": {
            "type": "object",
            "properties": {
                "player_id": {"type": "string"},
                "payment_amount_cents": {"type": "integer"},
                "payment_reference": {"type": "string"},
                "notes": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Association Tournaments API",
	Description:      "Tournament lifecycle, registration and bracket generation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
