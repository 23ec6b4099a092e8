package web

import (
	"net/http"
	"net/url"
	"strings"
)

const flashCookie = "doacoes_flash"

// Flash is a one-shot status message shown on the next rendered page.
type Flash struct {
	Level   string // success, info, warning or danger
	Message string
}

func setFlash(w http.ResponseWriter, level, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(level + "|" + message),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads the pending flash, if any, and expires its cookie.
func popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})
	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return nil
	}
	level, msg, ok := strings.Cut(raw, "|")
	if !ok || msg == "" {
		return nil
	}
	return &Flash{Level: level, Message: msg}
}

// redirectWithFlash sets a flash and answers 303 See Other.
func redirectWithFlash(w http.ResponseWriter, r *http.Request, to, level, message string) {
	setFlash(w, level, message)
	http.Redirect(w, r, to, http.StatusSeeOther)
}
