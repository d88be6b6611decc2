//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

const docTemplate = `{
  "swagger": "2.0",
  "info": {"title": "{{.Title}}", "description": "{{escape .Description}}", "version": "{{.Version}}"},
  "basePath": "{{.BasePath}}",
  "schemes": {{ marshal .Schemes }},
  "paths": {
    "/models": {"get": {"summary": "List discovered models", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
    "/models/{id}": {"get": {"summary": "Get one model", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}},
    "/models/{id}/unload": {"post": {"summary": "Unload a resident model", "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}], "responses": {"204": {"description": "Unloaded"}, "404": {"description": "Not loaded"}}}},
    "/infer": {"post": {"summary": "Run inference", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad input"}, "404": {"description": "Model or blob not found"}, "422": {"description": "An output holds NaN or Inf, which JSON cannot encode"}, "429": {"description": "Too busy"}, "503": {"description": "Engine unavailable"}}}},
    "/status": {"get": {"summary": "Instances and budget", "responses": {"200": {"description": "OK"}}}},
    "/healthz": {"get": {"summary": "Liveness", "responses": {"200": {"description": "OK"}}}},
    "/readyz": {"get": {"summary": "Readiness", "responses": {"200": {"description": "Ready"}, "503": {"description": "Not ready"}}}}
  }
}`

// SwaggerInfo describes the served API document.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "ncnnd API",
	Description:      "HTTP API for serving ncnn networks.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// MountSwagger serves the Swagger UI under /swagger/.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
