// Package handler contains the HTTP route handlers: they parse requests,
// call the services, and render HTML pages. No business logic lives here.
package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/TomatoBigBig/remix-jokes/internal/apperror"
	"github.com/TomatoBigBig/remix-jokes/internal/model"
)

// pages are the content templates. Each is parsed together with base.html so
// every page can fill the base layout's "content" block; parsing them all
// into one template set would make their {{define "content"}} blocks collide.
var pages = []string{"home", "jokes", "joke", "new_joke", "login", "error"}

// Renderer holds the parsed templates, one set per page, parsed once at
// startup.
type Renderer struct {
	templates map[string]*template.Template
	logger    *slog.Logger
}

// NewRenderer parses base.html plus every page template under templateDir.
func NewRenderer(templateDir string, logger *slog.Logger) (*Renderer, error) {
	base := filepath.Join(templateDir, "base.html")

	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		tmpl, err := template.ParseFiles(base, filepath.Join(templateDir, page+".html"))
		if err != nil {
			return nil, err
		}
		templates[page] = tmpl
	}

	return &Renderer{templates: templates, logger: logger}, nil
}

// Render writes an HTML page with the given status code.
func (rn *Renderer) Render(w http.ResponseWriter, status int, page string, data any) {
	tmpl, ok := rn.templates[page]
	if !ok {
		rn.logger.Error("unknown template", slog.String("page", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		// headers are already sent; all we can do is log
		rn.logger.Error("rendering template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
	}
}

// errorPageData feeds the error template.
type errorPageData struct {
	User    *model.User
	Status  int
	Message string
}

// RenderError maps a domain error to a status code and renders the error
// page. This is where the service layer's error kinds become HTTP:
//
//	ErrNotFound   → 404
//	ErrValidation → 400
//	ErrForbidden  → 403 (ownership mismatch — never a login redirect)
//	ErrConflict   → 409
//	anything else → 500 with a generic message, internals stay in the logs
func (rn *Renderer) RenderError(w http.ResponseWriter, user *model.User, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
		}

		rn.Render(w, status, "error", errorPageData{
			User:    user,
			Status:  status,
			Message: appErr.Message,
		})
		return
	}

	rn.logger.Error("unhandled error", slog.String("error", err.Error()))
	rn.Render(w, http.StatusInternalServerError, "error", errorPageData{
		User:    user,
		Status:  http.StatusInternalServerError,
		Message: "Something unexpected went wrong. Sorry about that.",
	})
}
