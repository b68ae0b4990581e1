package api

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	yaml "gopkg.in/yaml.v3"
)

// SwaggerHandler serves an interactive Swagger UI with the spec inlined and
// tenant/role headers injected into every try-it-out request.
func (s *Server) SwaggerHandler(w http.ResponseWriter, r *http.Request) {
	data, err := openAPILoad()
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "OpenAPI not available", err.Error(), r.URL.Path)
		return
	}
	var obj map[string]any
	if err := yaml.Unmarshal(data, &obj); err != nil {
		writeProblem(w, http.StatusInternalServerError, "OpenAPI parse failed", err.Error(), r.URL.Path)
		return
	}
	js, err := json.Marshal(obj)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "OpenAPI encode failed", err.Error(), r.URL.Path)
		return
	}
	b64 := base64.StdEncoding.EncodeToString(js)
	html := `<!DOCTYPE html><html lang="en"><head>
    <title>ispnet API Console</title>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width,initial-scale=1">
    <link rel="stylesheet" href="/static/swagger-ui.css" />
    <style>body{margin:0} .topbar{display:none} .cfg{position:fixed;top:8px;right:8px;padding:8px;background:#fff;border:1px solid #ddd;z-index:9}</style>
    </head><body>
    <div class="cfg">
      <div><strong>Caller</strong></div>
      <div><label>Tenant: <input id="tenant" value="t_demo"></label></div>
      <div><label>Role: <select id="role"><option>admin</option><option>operator</option><option>sales</option></select></label></div>
      <button onclick="saveCaller()">Save</button>
    </div>
    <div id="swagger-ui"></div>
    <script src="/static/swagger-ui-bundle.js"></script>
    <script src="/static/swagger-ui-standalone-preset.js"></script>
    <script>
    const spec = JSON.parse(atob('` + b64 + `'));
    function loadCaller(){
      const t=localStorage.getItem('tenant')||'t_demo'; const r=localStorage.getItem('role')||'admin';
      document.getElementById('tenant').value=t; document.getElementById('role').value=r;
      return {tenant:t, role:r};
    }
    function saveCaller(){ localStorage.setItem('tenant',document.getElementById('tenant').value); localStorage.setItem('role',document.getElementById('role').value); }
    loadCaller();
    const ui = SwaggerUIBundle({
        spec: spec,
        dom_id: '#swagger-ui',
        deepLinking: true,
        presets: [SwaggerUIBundle.presets.apis, SwaggerUIStandalonePreset],
        layout: "BaseLayout",
        requestInterceptor: (req) => {
            const p = loadCaller();
            if (p.tenant) req.headers['X-Tenant-Id'] = p.tenant;
            if (p.role) req.headers['X-Role'] = p.role;
            return req;
        }
    });
    </script>
    </body></html>`
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}
