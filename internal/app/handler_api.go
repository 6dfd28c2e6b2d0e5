package app

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"ArduLink/internal/parser"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// latestResponse is the payload of GET /api/latest.
type latestResponse struct {
	Telemetry string         `json:"telemetry"`
	Fields    []parser.Field `json:"fields,omitempty"`
}

// handleLatest returns the most recent telemetry record with its parsed fields.
func (a *App) handleLatest(w http.ResponseWriter, r *http.Request) {
	record := a.Bridge.LatestTelemetry()
	resp := latestResponse{Telemetry: record}
	if record != "" {
		resp.Fields = parser.Fields(record)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("[app] warning: failed to write latest telemetry: %v", err)
	}
}

// handleCommand enqueues a command for the device. Fire-and-forget: the
// transport reports no delivery outcome, so the reply is always 202.
func (a *App) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cmd := r.FormValue("command")
	if cmd == "" {
		http.Error(w, "missing command", http.StatusBadRequest)
		return
	}
	a.Bridge.SendCommand(cmd)
	log.Printf("[app] queued command %q", cmd)
	w.WriteHeader(http.StatusAccepted)
}

// handleSequence fires a configured command sequence by name.
func (a *App) handleSequence(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := r.FormValue("name")
	runner, ok := a.Sequences[name]
	if !ok {
		http.Error(w, "unknown sequence", http.StatusNotFound)
		return
	}
	if err := runner.Start(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	log.Printf("[app] started sequence %q", name)
	w.WriteHeader(http.StatusAccepted)
}

// handleWS upgrades HTTP to websocket and registers the client for
// telemetry broadcasts.
func (a *App) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	a.cmu.Lock()
	a.clients[conn] = true
	a.cmu.Unlock()

	go func() {
		defer func() {
			a.cmu.Lock()
			delete(a.clients, conn)
			a.cmu.Unlock()
			if err := conn.Close(); err != nil {
				log.Printf("[app] warning: failed to close websocket: %v", err)
			}
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}
