// Package docs registers the OpenAPI document served under /swagger.
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Create an account", "responses": {"201": {"description": "token and user"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Log in with email or username", "responses": {"200": {"description": "token and user"}}}},
        "/auth/me": {"get": {"tags": ["auth"], "security": [{"BearerAuth": []}], "summary": "Current user", "responses": {"200": {"description": "user"}}}},
        "/books": {
            "get": {"tags": ["books"], "summary": "Search and filter listings", "responses": {"200": {"description": "books and pagination"}}},
            "post": {"tags": ["books"], "security": [{"BearerAuth": []}], "summary": "Create a listing", "responses": {"201": {"description": "book"}}}
        },
        "/books/{id}": {
            "get": {"tags": ["books"], "summary": "Listing detail", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "book"}}},
            "put": {"tags": ["books"], "security": [{"BearerAuth": []}], "summary": "Update a listing", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "book"}}},
            "delete": {"tags": ["books"], "security": [{"BearerAuth": []}], "summary": "Delete a listing", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "deleted"}}}
        },
        "/books/{id}/availability": {"put": {"tags": ["books"], "security": [{"BearerAuth": []}], "summary": "Toggle availability", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "book"}}}},
        "/books/user/{userId}": {"get": {"tags": ["books"], "summary": "Available books of an owner", "parameters": [{"name": "userId", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "books"}}}},
        "/loans": {
            "get": {"tags": ["loans"], "security": [{"BearerAuth": []}], "summary": "Loans of the current user", "responses": {"200": {"description": "loans"}}},
            "post": {"tags": ["loans"], "security": [{"BearerAuth": []}], "summary": "Request a loan", "responses": {"201": {"description": "loan"}}}
        },
        "/loans/{id}": {"get": {"tags": ["loans"], "security": [{"BearerAuth": []}], "summary": "Loan detail", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "loan"}}}},
        "/loans/{id}/status": {"put": {"tags": ["loans"], "security": [{"BearerAuth": []}], "summary": "Move a loan to a new status", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "loan"}}}},
        "/loans/{id}/rate": {"post": {"tags": ["loans"], "security": [{"BearerAuth": []}], "summary": "Rate the other party of a completed loan", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "loan"}}}},
        "/loans/{id}/damage": {"post": {"tags": ["loans"], "security": [{"BearerAuth": []}], "summary": "Report damage", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "loan"}}}},
        "/loans/{id}/damage/resolve": {"put": {"tags": ["loans"], "security": [{"BearerAuth": []}], "summary": "Resolve a damage report", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "loan"}}}},
        "/users": {"get": {"tags": ["users"], "summary": "Search users", "responses": {"200": {"description": "users and pagination"}}}},
        "/users/{id}": {"get": {"tags": ["users"], "summary": "Public profile", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "user, books and stats"}}}},
        "/users/{id}/books": {"get": {"tags": ["users"], "summary": "Books of a user", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "books and pagination"}}}},
        "/users/{id}/reviews": {"get": {"tags": ["users"], "summary": "Ratings received", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "reviews"}}}},
        "/users/{id}/verify": {"put": {"tags": ["users"], "security": [{"BearerAuth": []}], "summary": "Verify own account", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "user"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "BookBnB API",
	Description:      "Peer-to-peer book lending: listings, loans and ratings.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
