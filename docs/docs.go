// Package docs holds the hand-maintained Swagger document for the
// admin API, in the shape swag init would generate from the
// @Summary/@Router annotations on pkg/admin's handlers. The pack's
// generated docs/ directory wasn't retrieved alongside the teacher, so
// this is written directly rather than run through swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{.Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/healthz": {
            "get": {
                "tags": ["health"],
                "summary": "Health check",
                "description": "Reports admin server liveness and the active session count",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/sessions": {
            "get": {
                "tags": ["sessions"],
                "summary": "List sessions",
                "description": "Returns the most recent ASTM session audit records",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer", "required": false}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "500": {"description": "store error"}
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "tags": ["sessions"],
                "summary": "Get a session",
                "description": "Returns one session's audit record by ID",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "not found"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["metrics"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    }
}`

// SwaggerInfo holds the exported Swagger spec metadata, wired into
// gin-swagger's default registry via swag.Register in init, the same
// pattern swag init's generated docs.go uses.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "ASTM Admin API",
	Description:      "Session audit and health surface for the ASTM daemon",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
