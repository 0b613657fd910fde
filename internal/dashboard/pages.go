package dashboard

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/bmatch/matchbot/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageLogin     = "login.html"
	pageDashboard = "dashboard.html"
	pageUsers     = "users.html"
	pageUser      = "user.html"
)

type pages struct {
	byName map[string]*template.Template
}

type loginData struct {
	Error string
}

type dashboardData struct {
	Stats *store.Stats
	Now   string
}

type usersData struct {
	Users []store.User
}

type userData struct {
	User     *store.User
	Messages []store.Message
	Searches []store.Search
}

var funcs = template.FuncMap{
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Local().Format("02.01.2006 15:04")
	},
}

func parsePages() (*pages, error) {
	p := &pages{byName: make(map[string]*template.Template)}
	for _, name := range []string{pageLogin, pageDashboard, pageUsers, pageUser} {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		p.byName[name] = tmpl
	}
	return p, nil
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := s.pages.byName[name]
	if !ok {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.serverError(w, "render "+name, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
