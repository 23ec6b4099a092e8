package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"donationRegistry/internal/auth"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pages = []string{"login", "index", "cadastrar", "lista", "dashboard", "404", "500"}

type pageData struct {
	Title   string
	Session *auth.Session
	Flash   *Flash
	Data    any
}

type loginData struct {
	Error string
}

// renderer holds one parsed template set per page, each combined with the layout.
type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	r := &renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, p := range pages {
		t, err := template.ParseFS(templatesFS, "templates/layout.html", "templates/"+p+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", p, err)
		}
		r.pages[p] = t
	}
	return r, nil
}

// render executes into a buffer first so a template error never produces a
// half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	t, ok := s.views.pages[page]
	if !ok {
		s.fault(w, r, fmt.Errorf("unknown page %q", page))
		return
	}
	sess, _ := auth.FromContext(r.Context())
	pd := pageData{Title: title, Session: sess, Flash: popFlash(w, r), Data: data}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", pd); err != nil {
		s.log.WithError(err).WithField("page", page).Error("render template")
		if page != "500" {
			s.fault(w, r, err)
		} else {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// fault logs err and renders the 500 page.
func (s *Server) fault(w http.ResponseWriter, r *http.Request, err error) {
	s.requestLog(r).WithError(err).Error("internal fault")
	s.render(w, r, http.StatusInternalServerError, "500", "Erro", nil)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, "404", "Não encontrado", nil)
}
