// Package swagger registers the generated OpenAPI document with swag.
// Regenerate with: swag init -g cmd/api/main.go -o api/swagger
package swagger

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
        "/api/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Merchant login",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/api/purchase_orders": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["purchase-orders"],
                "summary": "List purchase orders",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["purchase-orders"],
                "summary": "Create purchase order",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/api/purchase_orders/{ref}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["purchase-orders"],
                "summary": "Get purchase order",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/api/purchase_orders/{ref}/initiate": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["purchase-orders"],
                "summary": "Initiate checkout",
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/api/purchase_orders/{ref}/cancel": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["purchase-orders"],
                "summary": "Cancel purchase order",
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/api/webhook_events/unprocessed": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["webhooks"],
                "summary": "List unprocessed webhook events",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/webhook/pi": {
            "post": {
                "tags": ["webhooks"],
                "summary": "Pi payment webhook",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Pi Purchase Order API",
	Description:      "Merchant backend for Pi-denominated purchase orders with signed payment webhooks.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
