package handlers

import (
	"net/http"
)

// Router bundles the handlers mounted by the server
type Router struct {
	Public     *PublicHandler
	Admin      *AdminHandler
	Publish    *PublishFunctionHandler
	Middleware *Middleware
	StaticPath string
}

// Handler builds the HTTP routes, wrapped in request logging
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	m := rt.Middleware

	if rt.StaticPath != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(rt.StaticPath))))
	}

	// Public routes
	mux.HandleFunc("GET /data/{file}", rt.Public.DataFile)
	mux.HandleFunc("GET /api/news", rt.Public.News)
	mux.HandleFunc("GET /api/events", rt.Public.Events)
	mux.HandleFunc("GET /api/appearance", rt.Public.Appearance)
	mux.HandleFunc("POST /api/register", m.RateLimit(rt.Public.Register))

	// Publish function, any method so non-POST gets its 405
	mux.HandleFunc("/api/publish-data", m.RequireAdmin(m.CSRFProtect(rt.Publish.ServeHTTP)))

	// Admin routes
	mux.HandleFunc("POST /admin/login", m.RateLimit(rt.Admin.Login))
	mux.HandleFunc("POST /admin/logout", rt.Admin.Logout)
	mux.HandleFunc("GET /admin/api/session", m.RequireAdmin(rt.Admin.Session))
	mux.HandleFunc("GET /admin/api/settings", m.RequireAdmin(rt.Admin.Settings))
	mux.HandleFunc("PUT /admin/api/settings/{key}", m.RequireAdmin(m.CSRFProtect(rt.Admin.UpdateSetting)))
	mux.HandleFunc("POST /admin/api/sync", m.RequireAdmin(m.CSRFProtect(rt.Admin.Sync)))
	mux.HandleFunc("POST /admin/api/publish", m.RequireAdmin(m.CSRFProtect(rt.Admin.Publish)))
	mux.HandleFunc("POST /admin/api/email", m.RequireAdmin(m.CSRFProtect(rt.Admin.SendEmail)))
	mux.HandleFunc("GET /admin/api/export/{collection}", m.RequireAdmin(rt.Admin.Export))
	mux.HandleFunc("GET /admin/api/{collection}", m.RequireAdmin(rt.Admin.ListCollection))
	mux.HandleFunc("PUT /admin/api/{collection}/{id}", m.RequireAdmin(m.CSRFProtect(rt.Admin.UpsertRecord)))
	mux.HandleFunc("DELETE /admin/api/{collection}/{id}", m.RequireAdmin(m.CSRFProtect(rt.Admin.DeleteRecord)))

	return Logging(mux)
}
