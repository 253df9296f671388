package handlers

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"html/template"
	"net/http"
)

//go:embed openapi.yaml
var openapiSpec []byte

// openapiETag is fixed for the life of the binary since the document is embedded.
var openapiETag = func() string {
	sum := sha256.Sum256(openapiSpec)
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}()

var docsPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>crowpanel status API {{.Version}}</title>
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui" data-spec="{{.SpecURL}}"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: document.getElementById("swagger-ui").dataset.spec,
      dom_id: "#swagger-ui",
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: "BaseLayout",
      deepLinking: true,
    });
  </script>
</body>
</html>`))

// OpenAPISpec handles GET /openapi.yaml. A request carrying the current ETag
// gets 304 with no body.
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", openapiETag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == openapiETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(openapiSpec)
}

// Docs handles GET /docs with a Swagger UI page over /openapi.yaml.
func (h *Handler) Docs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct{ Version, SpecURL string }{h.Version, "/openapi.yaml"}
	if err := docsPage.Execute(w, data); err != nil {
		http.Error(w, "render docs", http.StatusInternalServerError)
	}
}
