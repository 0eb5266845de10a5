// Package docs registers the OpenAPI description served at /swagger/.
// Regenerate with: swag init -g cmd/farm-smart/main.go
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
        "/products": {
            "get": {"tags": ["Products"], "summary": "List catalog products", "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "pageSize", "in": "query"}
                ],
                "responses": {"200": {"description": "Products"}, "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["Products"], "summary": "Add a product to the catalog",
                "consumes": ["application/json", "application/x-www-form-urlencoded"], "produces": ["application/json"],
                "parameters": [{"name": "product", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.CreateProductRequest"}}],
                "responses": {"201": {"description": "Product created"}, "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}, "401": {"description": "Authentication required", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}}}
        },
        "/products/{id}": {
            "get": {"tags": ["Products"], "summary": "Get a product by ID", "produces": ["application/json"],
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Product found"}, "404": {"description": "Product not found", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}}}
        },
        "/carts": {
            "get": {"tags": ["Carts"], "summary": "View the cart", "produces": ["application/json"],
                "responses": {"200": {"description": "Cart contents"}, "409": {"description": "Cart references a product that no longer exists", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}}},
            "delete": {"tags": ["Carts"], "summary": "Empty the cart", "responses": {"204": {"description": "No Content"}}}
        },
        "/carts/items": {
            "get": {"tags": ["Carts"], "summary": "List cart entries", "produces": ["application/json"], "responses": {"200": {"description": "Cart entries"}}},
            "post": {"tags": ["Carts"], "summary": "Add a product to the cart", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"name": "item", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.AddItemRequest"}}],
                "responses": {"201": {"description": "Entry added"}, "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}, "404": {"description": "Product not found", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}}}
        },
        "/carts/items/{productId}": {
            "delete": {"tags": ["Carts"], "summary": "Remove a product from the cart",
                "parameters": [{"type": "integer", "name": "productId", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "400": {"description": "Invalid product ID", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}}}
        },
        "/carts/total": {
            "get": {"tags": ["Carts"], "summary": "Cart total at current prices", "produces": ["application/json"], "responses": {"200": {"description": "Total"}}}
        },
        "/session/logout": {
            "post": {"tags": ["Session"], "summary": "End the browsing session", "responses": {"204": {"description": "No Content"}}}
        },
        "/checkout": {
            "get": {"tags": ["Checkout"], "summary": "Review the cart before paying", "produces": ["application/json"],
                "responses": {"200": {"description": "Items and total"}, "409": {"description": "Cart is empty or references a missing product", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}}},
            "post": {"tags": ["Checkout"], "summary": "Pay for the cart", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"name": "checkout", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.SubmitCheckoutRequest"}}],
                "responses": {"201": {"description": "Order confirmed"}, "400": {"description": "Payment details rejected", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}, "409": {"description": "Cart is empty or references a missing product", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}, "429": {"description": "Too many checkout attempts", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}}}
        },
        "/orders": {
            "get": {"tags": ["Orders"], "summary": "List the current owner's orders", "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "pageSize", "in": "query"}
                ],
                "responses": {"200": {"description": "Orders, newest first"}}}
        },
        "/orders/{id}": {
            "get": {"tags": ["Orders"], "summary": "Get an order by ID", "produces": ["application/json"],
                "parameters": [{"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Order"}, "404": {"description": "Order not found", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}}}
        }
    },
    "definitions": {
        "models.AddItemRequest": {"type": "object", "properties": {"product_id": {"type": "integer"}, "quantity": {"type": "integer"}}},
        "models.CreateProductRequest": {"type": "object", "properties": {"name": {"type": "string"}, "description": {"type": "string"}, "price": {"type": "string"}, "image_ref": {"type": "string"}}},
        "models.PaymentFields": {"type": "object", "properties": {"mobile_number": {"type": "string"}, "card_number": {"type": "string"}, "cvv": {"type": "string"}, "expiry": {"type": "string"}}},
        "models.SubmitCheckoutRequest": {"type": "object", "properties": {"payment_method": {"type": "string", "enum": ["mobile_money", "card"]}, "payment": {"$ref": "#/definitions/models.PaymentFields"}, "contact_email": {"type": "string"}}},
        "response.ErrorResponse": {"type": "object", "properties": {"code": {"type": "string"}, "message": {"type": "string"}, "details": {"type": "array", "items": {"type": "string"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Farm Smart Market API",
	Description:      "Catalog, cart and checkout for the farm shop.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
