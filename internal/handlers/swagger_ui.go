package handlers

import (
	"html/template"
	"net/http"
)

const openAPIPath = "/api/docs/openapi.json"

var swaggerTemplate = template.Must(template.New("swagger").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5.10.0/swagger-ui.css">
    <style>
        body { margin: 0; padding: 0; }
        .climate-banner { font-family: sans-serif; padding: 12px 20px; background: #1b4965; color: #fff; }
        .climate-banner a { color: #bee9e8; }
    </style>
</head>
<body>
    <div class="climate-banner">
        {{.Title}}: read-only access to the Hawaii measurement and station dataset.
        <a href="/">Route index</a>
    </div>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.10.0/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            window.ui = SwaggerUIBundle({
                url: {{.SpecURL}},
                dom_id: '#swagger-ui',
                deepLinking: true,
                supportedSubmitMethods: ['get'],
                presets: [SwaggerUIBundle.presets.apis]
            });
        };
    </script>
</body>
</html>`))

// SwaggerUI serves the interactive documentation page for the Climate API
func SwaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	swaggerTemplate.Execute(w, struct {
		Title   string
		SpecURL string
	}{
		Title:   "Climate API Documentation",
		SpecURL: openAPIPath,
	})
}
