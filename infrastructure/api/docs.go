// Package api serves the guildhall HTTP surface and its API documentation.
package api

import (
	_ "embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	apimiddleware "github.com/emberline/guildhall/infrastructure/api/middleware"
)

//go:embed openapi.json
var openapiSpec []byte

var swaggerUI = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Guildhall API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" charset="UTF-8"></script>
    <script>
        window.onload = function() {
            window.ui = SwaggerUIBundle({url: {{.}}, dom_id: "#swagger-ui", deepLinking: true});
        };
    </script>
</body>
</html>`))

// DocsRouter serves Swagger UI and the OpenAPI document for /api/v1.
type DocsRouter struct {
	specURL string
}

// NewDocsRouter creates a DocsRouter whose UI loads the document from specURL.
func NewDocsRouter(specURL string) *DocsRouter {
	return &DocsRouter{specURL: specURL}
}

// Routes returns the chi router for the documentation endpoints.
func (d *DocsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = swaggerUI.Execute(w, d.specURL)
	})

	// The server URL follows the request so "Try it out" works behind
	// proxies and on any host.
	router.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := openapiFor(serverURL(r))
		if err != nil {
			apimiddleware.WriteError(w, r, err, nil)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(doc)
	})

	return router
}

func serverURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	host := r.Host
	if forwarded := r.Header.Get("X-Forwarded-Host"); forwarded != "" {
		host = forwarded
	}
	return fmt.Sprintf("%s://%s/api/v1", scheme, host)
}

func openapiFor(server string) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(openapiSpec, &doc); err != nil {
		return nil, fmt.Errorf("decode openapi document: %w", err)
	}
	servers, err := json.Marshal([]map[string]string{{"url": server}})
	if err != nil {
		return nil, fmt.Errorf("encode servers: %w", err)
	}
	doc["servers"] = servers
	return json.MarshalIndent(doc, "", "  ")
}
