package app

import (
	"net/http"
	"time"

	"go.etcd.io/bbolt"
)

// AuthMiddleware restricts access to logged-in users only.
// Sessions live in the BoltDB "sessions" bucket, keyed by session ID.
func (a *App) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("session_id")
		if err != nil || cookie.Value == "" || !a.sessionValid(cookie.Value) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// sessionValid reports whether the session exists and has not expired.
func (a *App) sessionValid(id string) bool {
	if a.DB == nil {
		return false
	}
	valid := false
	_ = a.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte("sessions"))
		if b == nil {
			return nil
		}
		v := b.Get([]byte(id))
		if v == nil {
			return nil
		}
		expires, err := time.Parse(time.RFC3339, string(v))
		if err != nil {
			return nil
		}
		valid = time.Now().Before(expires)
		return nil
	})
	return valid
}
