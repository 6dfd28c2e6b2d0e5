package app

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"time"

	"go.etcd.io/bbolt"
)

// sessionTTL bounds how long a dashboard login stays valid.
const sessionTTL = 24 * time.Hour

// handleLogin displays a login form or processes login POST.
func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if err := a.Tmpl.ExecuteTemplate(w, "login.html", nil); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	case http.MethodPost:
		username := r.FormValue("username")
		password := r.FormValue("password")

		if username != a.Username || password != a.Password {
			http.Redirect(w, r, "/login?err=1", http.StatusSeeOther)
			return
		}

		id, err := a.createSession()
		if err != nil {
			log.Printf("[auth] create session: %v", err)
			http.Error(w, "login failed", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     "session_id",
			Value:    id,
			Path:     "/",
			Expires:  time.Now().Add(sessionTTL),
			HttpOnly: true,
		})
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleLogout clears the session cookie and removes the stored session.
func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie("session_id"); err == nil && a.DB != nil {
		_ = a.DB.Update(func(tx *bbolt.Tx) error {
			b := tx.Bucket([]byte("sessions"))
			if b == nil {
				return nil
			}
			return b.Delete([]byte(cookie.Value))
		})
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session_id",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
	log.Printf("[auth] user logged out")
}

// createSession stores a fresh random session ID with its expiry.
func (a *App) createSession() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	id := hex.EncodeToString(raw)

	expires := time.Now().Add(sessionTTL).Format(time.RFC3339)
	err := a.DB.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte("sessions"))
		if err != nil {
			return err
		}
		return b.Put([]byte(id), []byte(expires))
	})
	if err != nil {
		return "", err
	}
	return id, nil
}
