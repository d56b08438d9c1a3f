// Package docs registers the swagger document served at /swagger.
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
        "/healthz": {
            "get": {
                "tags": ["health"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/readyz": {
            "get": {
                "tags": ["health"],
                "summary": "Readiness check",
                "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/api/sync-logs": {
            "get": {
                "tags": ["sync"],
                "summary": "List sync logs",
                "parameters": [
                    {"type": "string", "description": "sync type", "name": "type", "in": "query"},
                    {"type": "string", "description": "pending|running|success|failed", "name": "status", "in": "query"},
                    {"type": "integer", "default": 50, "description": "page size", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "offset", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/sync-logs/{id}": {
            "get": {
                "tags": ["sync"],
                "summary": "Get a sync log",
                "parameters": [
                    {"type": "integer", "description": "sync log id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/jobs/{id}": {
            "get": {
                "tags": ["sync"],
                "summary": "Get the state of a dispatched job",
                "parameters": [
                    {"type": "string", "description": "job id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/sync/{type}": {
            "post": {
                "tags": ["sync"],
                "summary": "Dispatch a sync job",
                "parameters": [
                    {"type": "string", "description": "equipment|running_time|work_orders|equipment_work_order_materials|daily_plant_data|all", "name": "type", "in": "path", "required": true}
                ],
                "responses": {"202": {"description": "Accepted"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}
            }
        },
        "/api/webhooks/sync": {
            "post": {
                "tags": ["sync"],
                "summary": "Trigger a sync from an external system",
                "parameters": [
                    {"type": "string", "description": "webhook key", "name": "X-Webhook-Key", "in": "header"},
                    {"type": "string", "description": "webhook key", "name": "api_key", "in": "formData"},
                    {"type": "string", "description": "sync type, default all", "name": "type", "in": "formData"}
                ],
                "responses": {"202": {"description": "Accepted"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/api/notifications": {
            "get": {
                "tags": ["notifications"],
                "summary": "List operator notifications",
                "parameters": [
                    {"type": "string", "description": "info|critical", "name": "level", "in": "query"},
                    {"type": "boolean", "description": "only unread", "name": "unread", "in": "query"},
                    {"type": "integer", "default": 50, "description": "page size", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "offset", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/notifications/{id}/read": {
            "post": {
                "tags": ["notifications"],
                "summary": "Mark a notification read",
                "parameters": [
                    {"type": "integer", "description": "notification id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "CMMS Sync API",
	Description:      "Remote maintenance data sync, sync audit logs and operator notifications.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
