package app

import (
	"net/http"
)

// registerRoutes sets up all HTTP handlers for the application.
func (a *App) registerRoutes() {
	// Static files (CSS, JS)
	fs := http.FileServer(http.Dir("web/static"))
	a.Mux.Handle("/static/", http.StripPrefix("/static/", fs))

	// Public routes
	a.Mux.HandleFunc("/", a.AuthMiddleware(a.handleDashboard))
	a.Mux.HandleFunc("/login", a.handleLogin)
	a.Mux.HandleFunc("/logout", a.handleLogout)

	// API routes
	a.Mux.HandleFunc("/api/latest", a.handleLatest)
	a.Mux.HandleFunc("/api/command", a.AuthMiddleware(a.handleCommand))
	a.Mux.HandleFunc("/api/sequence", a.AuthMiddleware(a.handleSequence))
	a.Mux.HandleFunc("/ws", a.handleWS)
}
