// Package docs registers the OpenAPI description served under /swagger/.
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
        "/api/v1/notifications": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Merged local and aggregator notifications, newest first. Returned local notifications are marked read.",
                "produces": ["application/json"],
                "tags": ["notifications"],
                "summary": "Get notification feed",
                "parameters": [
                    {"type": "string", "description": "Comma-separated aggregator types; omit for all, empty for none", "name": "types", "in": "query"},
                    {"type": "string", "description": "Opaque cursor from a previous page", "name": "cursor", "in": "query"},
                    {"type": "integer", "description": "Page size (max 25)", "name": "limit", "in": "query"},
                    {"type": "boolean", "description": "Bypass the response cache", "name": "fresh", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/FeedPage"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/Error"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/Error"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/Error"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/api/v1/notifications/unread-count": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Counts unread local notifications only",
                "produces": ["application/json"],
                "tags": ["notifications"],
                "summary": "Get unread count",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "properties": {"unread_count": {"type": "integer"}}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/Error"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/api/v1/notifications/mark-read": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["notifications"],
                "summary": "Mark notifications read",
                "parameters": [
                    {"description": "Notification ids", "name": "request", "in": "body", "required": true,
                     "schema": {"type": "object", "properties": {"ids": {"type": "array", "items": {"type": "string"}}}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "properties": {"marked": {"type": "integer"}}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/Error"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/Error"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        }
    },
    "definitions": {
        "Actor": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "handle": {"type": "string"},
                "display_label": {"type": "string"},
                "avatar_ref": {"type": "string"}
            }
        },
        "NotificationView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "type": {"type": "string"},
                "source": {"type": "string", "enum": ["local", "external"]},
                "recipient_id": {"type": "string"},
                "timestamp": {"type": "string"},
                "post_reference": {"type": "string"},
                "payload": {"type": "object"},
                "actor": {"$ref": "#/definitions/Actor"},
                "is_read": {"type": "boolean"}
            }
        },
        "FeedPage": {
            "type": "object",
            "properties": {
                "notifications": {"type": "array", "items": {"$ref": "#/definitions/NotificationView"}},
                "next_cursor": {"type": "string"}
            }
        },
        "Error": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Notification Feed API",
	Description:      "Merged, cursor-paginated notification feed over local watch events and the aggregator API",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
