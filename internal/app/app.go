// Package app implements the web server and API layer for the ArduLink dashboard.
package app

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.etcd.io/bbolt"

	"ArduLink/internal/sequence"
)

// broadcastInterval is how often the websocket broadcaster polls the bridge.
const broadcastInterval = 500 * time.Millisecond

// Bridge is the transport surface the web layer needs. Both calls are
// non-blocking and never fail.
type Bridge interface {
	SendCommand(text string)
	LatestTelemetry() string
}

type App struct {
	DB     *bbolt.DB
	Tmpl   *template.Template
	Mux    *http.ServeMux
	Server *http.Server

	Bridge    Bridge
	Sequences map[string]*sequence.Runner
	Username  string
	Password  string

	clients map[*websocket.Conn]bool
	cmu     sync.Mutex

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewApp initializes the web app with templates, session database, and routes.
func NewApp(bridge Bridge, sequences map[string]*sequence.Runner, username, password string) (*App, error) {
	cwd, _ := os.Getwd()
	tmplPath := filepath.Join(cwd, "web", "templates", "*.html")

	tmpl := template.New("").Funcs(template.FuncMap{
		"year": func() int { return time.Now().Year() },
	})

	tmpl, err := tmpl.ParseGlob(tmplPath)
	if err != nil {
		return nil, fmt.Errorf("[app] failed to load templates: %w", err)
	}

	if err := os.MkdirAll("tmp", 0o755); err != nil {
		return nil, fmt.Errorf("[app] failed to create tmp/: %w", err)
	}

	dbPath := filepath.Join("tmp", "sessions.db")
	db, err := bbolt.Open(dbPath, 0o666, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("[app] failed to open BoltDB: %w", err)
	}

	app := &App{
		DB:        db,
		Tmpl:      tmpl,
		Mux:       http.NewServeMux(),
		Bridge:    bridge,
		Sequences: sequences,
		Username:  username,
		Password:  password,
		clients:   map[*websocket.Conn]bool{},
	}

	app.registerRoutes()
	return app, nil
}

// Start launches the websocket broadcaster and the web server, blocking
// until stopped.
func (a *App) Start(addr string) error {
	if addr == "" {
		log.Println("[app] app server not started (empty address)")
		return nil
	}

	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimPrefix(addr, "https://")
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	a.stop = make(chan struct{})
	a.wg.Add(1)
	go a.broadcastLoop()

	a.Server = &http.Server{
		Addr:    addr,
		Handler: a.Mux,
	}

	log.Printf("[app] Web server listening at http://%s", addr)

	// Run server until Shutdown() is called
	if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("[app] HTTP server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the broadcaster and web server and closes the DB.
func (a *App) Stop() {
	if a == nil {
		return
	}

	if a.stop != nil {
		select {
		case <-a.stop:
		default:
			close(a.stop)
		}
		a.wg.Wait()
	}

	if a.Server != nil {
		log.Println("[app] Shutting down web server...")
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.Server.Shutdown(ctx); err != nil {
			log.Printf("[app] HTTP server shutdown error: %v", err)
		} else {
			log.Println("[app] Web server stopped cleanly")
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			log.Printf("[app] error closing BoltDB: %v", err)
		} else {
			log.Println("[app] Closed session store")
		}
	}
}

// broadcastLoop polls the bridge and pushes changed telemetry to all
// connected websocket clients.
func (a *App) broadcastLoop() {
	defer a.wg.Done()
	ticker := time.NewTicker(broadcastInterval)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			record := a.Bridge.LatestTelemetry()
			if record == "" || record == last {
				continue
			}
			last = record
			a.broadcast(record)
		}
	}
}

// broadcast sends a message to all connected websocket clients.
func (a *App) broadcast(msg string) {
	a.cmu.Lock()
	defer a.cmu.Unlock()
	for c := range a.clients {
		_ = c.WriteMessage(websocket.TextMessage, []byte(msg))
	}
}
