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
    "paths": {
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in with a campus email",
                "parameters": [
                    {"description": "Campus email", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.AuthResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Revoke the current session token",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Show the current session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.SessionResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/items": {
            "get": {
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "List found items, newest first",
                "parameters": [
                    {"type": "string", "description": "Filter by status", "name": "status", "in": "query"},
                    {"type": "string", "description": "Filter by finder email", "name": "postedBy", "in": "query"},
                    {"type": "string", "description": "Filter by category", "name": "category", "in": "query"},
                    {"type": "string", "description": "Case-insensitive search", "name": "q", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Item"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Report a found item",
                "parameters": [
                    {"description": "Item", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.CreateItemRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.Item"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/items/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Get an item",
                "parameters": [
                    {"type": "string", "description": "Item ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Item"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/items/{id}/review": {
            "get": {
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Side-by-side view of secret answers and claim answers",
                "parameters": [
                    {"type": "string", "description": "Item ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.ItemReview"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/items/{id}/claim": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Claim a posted item",
                "parameters": [
                    {"type": "string", "description": "Item ID", "name": "id", "in": "path", "required": true},
                    {"description": "Claim", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.ClaimRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Item"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/items/{id}/status": {
            "put": {
                "description": "READY_FOR_PICKUP approves (pickupLocation required, code generated), Posted rejects, Completed confirms the handoff.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Approve, reject or complete a claim",
                "parameters": [
                    {"type": "string", "description": "Item ID", "name": "id", "in": "path", "required": true},
                    {"description": "Target status", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.StatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Item"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/users/{email}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get a profile, creating an incomplete one on first lookup",
                "parameters": [
                    {"type": "string", "description": "Campus email", "name": "email", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.User"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Update a profile and mark it complete",
                "parameters": [
                    {"type": "string", "description": "Campus email", "name": "email", "in": "path", "required": true},
                    {"description": "Profile fields", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.UpdateProfileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.User"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "handler.LoginRequest": {
            "type": "object",
            "required": ["email"],
            "properties": {"email": {"type": "string"}}
        },
        "handler.AuthResponse": {
            "type": "object",
            "properties": {
                "expiresAt": {"type": "string"},
                "token": {"type": "string"},
                "user": {"$ref": "#/definitions/model.User"}
            }
        },
        "handler.SessionResponse": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "expiresAt": {"type": "string"},
                "issuedAt": {"type": "string"},
                "tokenId": {"type": "string"}
            }
        },
        "handler.CreateItemRequest": {
            "type": "object",
            "required": ["category", "date", "description", "location", "name"],
            "properties": {
                "category": {"type": "string"},
                "date": {"type": "string"},
                "description": {"type": "string"},
                "image": {"type": "string"},
                "location": {"type": "string"},
                "name": {"type": "string"},
                "postedBy": {"type": "string"},
                "secretAnswer1": {"type": "string"},
                "secretAnswer2": {"type": "string"},
                "secretAnswer3": {"type": "string"},
                "secretQuestion1": {"type": "string"},
                "secretQuestion2": {"type": "string"},
                "secretQuestion3": {"type": "string"}
            }
        },
        "handler.ClaimRequest": {
            "type": "object",
            "required": ["claimantName"],
            "properties": {
                "claimAnswer1": {"type": "string"},
                "claimAnswer2": {"type": "string"},
                "claimAnswer3": {"type": "string"},
                "claimImage": {"type": "string"},
                "claimantEmail": {"type": "string"},
                "claimantName": {"type": "string"},
                "claimantPhone": {"type": "string"}
            }
        },
        "handler.StatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "pickupCode": {"type": "string"},
                "pickupLocation": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "handler.UpdateProfileRequest": {
            "type": "object",
            "properties": {
                "branch": {"type": "string"},
                "course": {"type": "string"},
                "name": {"type": "string"},
                "profilePhoto": {"type": "string"},
                "usn": {"type": "string"},
                "year": {"type": "integer"}
            }
        },
        "model.Item": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "claimAnswer1": {"type": "string"},
                "claimAnswer2": {"type": "string"},
                "claimAnswer3": {"type": "string"},
                "claimImage": {"type": "string"},
                "claimantEmail": {"type": "string"},
                "claimantName": {"type": "string"},
                "claimantPhone": {"type": "string"},
                "createdAt": {"type": "string"},
                "date": {"type": "string"},
                "description": {"type": "string"},
                "id": {"type": "string"},
                "image": {"type": "string"},
                "location": {"type": "string"},
                "name": {"type": "string"},
                "pickupCode": {"type": "string"},
                "pickupLocation": {"type": "string"},
                "postedBy": {"type": "string"},
                "secretAnswer1": {"type": "string"},
                "secretAnswer2": {"type": "string"},
                "secretAnswer3": {"type": "string"},
                "secretQuestion1": {"type": "string"},
                "secretQuestion2": {"type": "string"},
                "secretQuestion3": {"type": "string"},
                "status": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "model.ReviewPair": {
            "type": "object",
            "properties": {
                "claimAnswer": {"type": "string"},
                "expectedAnswer": {"type": "string"},
                "question": {"type": "string"}
            }
        },
        "model.ItemReview": {
            "type": "object",
            "properties": {
                "claimImage": {"type": "string"},
                "claimantEmail": {"type": "string"},
                "claimantName": {"type": "string"},
                "claimantPhone": {"type": "string"},
                "itemId": {"type": "string"},
                "pairs": {"type": "array", "items": {"$ref": "#/definitions/model.ReviewPair"}},
                "status": {"type": "string"}
            }
        },
        "model.User": {
            "type": "object",
            "properties": {
                "branch": {"type": "string"},
                "claimsCount": {"type": "integer"},
                "course": {"type": "string"},
                "createdAt": {"type": "string"},
                "email": {"type": "string"},
                "isProfileComplete": {"type": "boolean"},
                "name": {"type": "string"},
                "postsCount": {"type": "integer"},
                "profilePhoto": {"type": "string"},
                "updatedAt": {"type": "string"},
                "usn": {"type": "string"},
                "year": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the session token.",
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
	BasePath:         "/api",
	Schemes:          []string{"http"},
	Title:            "CampuSafe API",
	Description:      "Campus lost-and-found: found-item reports, ownership claims, pickup handoff and student profiles.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
