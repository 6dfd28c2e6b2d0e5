package app

import (
	"log"
	"net/http"
)

// handleDashboard renders the main dashboard page.
func (a *App) handleDashboard(w http.ResponseWriter, r *http.Request) {
	log.Printf("[app] GET / (dashboard) from %s", r.RemoteAddr)
	data := map[string]any{
		"Title":     "ArduLink Dashboard",
		"Sequences": a.sequenceNames(),
	}
	if err := a.Tmpl.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// sequenceNames lists the configured sequences for the dashboard controls.
func (a *App) sequenceNames() []string {
	names := make([]string, 0, len(a.Sequences))
	for name := range a.Sequences {
		names = append(names, name)
	}
	return names
}
