package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/TomatoBigBig/remix-jokes/internal/apperror"
	"github.com/TomatoBigBig/remix-jokes/internal/model"
	"github.com/TomatoBigBig/remix-jokes/internal/repository"
	"github.com/TomatoBigBig/remix-jokes/internal/service"
)

// AuthHandler serves the combined login/registration page and the logout
// action.
type AuthHandler struct {
	identity *service.IdentityService
	users    repository.UserRepository
	renderer *Renderer
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(
	identity *service.IdentityService,
	users repository.UserRepository,
	renderer *Renderer,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		identity: identity,
		users:    users,
		renderer: renderer,
		logger:   logger,
	}
}

// loginPageData feeds the login template. Fields echoes the user's
// in-progress input back on a failed submission so nothing is retyped.
type loginPageData struct {
	User        *model.User
	RedirectTo  string
	Fields      LoginForm
	FieldErrors map[string]string
	FormError   string
}

// HandleLoginPage renders the login/register form.
//
// HTTP: GET /login?redirectTo=<path>
// The redirectTo query parameter is carried into a hidden form field so the
// POST can send the user back to where they were headed.
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "login", loginPageData{
		RedirectTo: r.URL.Query().Get("redirectTo"),
	})
}

// HandleLogin processes a login or registration submission.
//
// HTTP: POST /login
// Form: loginType=login|register, username, password, redirectTo (hidden)
//
// Every failure path re-renders the form with status 400, the submitted
// fields echoed back, and either per-field errors or a form-level error.
// Success establishes the session and redirects to redirectTo.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	form, fieldErrors := decodeLoginForm(r)

	if len(fieldErrors) > 0 {
		h.renderer.Render(w, http.StatusBadRequest, "login", loginPageData{
			RedirectTo:  form.RedirectTo,
			Fields:      form,
			FieldErrors: fieldErrors,
		})
		return
	}

	switch form.LoginType {
	case "login":
		user, err := h.identity.Login(r.Context(), form.Username, form.Password)
		if err != nil {
			h.renderer.RenderError(w, nil, err)
			return
		}
		if user == nil {
			// unknown username and wrong password land here identically
			h.renderer.Render(w, http.StatusBadRequest, "login", loginPageData{
				RedirectTo: form.RedirectTo,
				Fields:     form,
				FormError:  "Username/Password combination is incorrect",
			})
			return
		}
		h.createSession(w, r, user.ID, form)

	case "register":
		// Advisory pre-check for a friendlier error. The store's UNIQUE
		// constraint below is what actually decides races.
		if taken, err := h.usernameTaken(r.Context(), form.Username); err != nil {
			h.renderer.RenderError(w, nil, err)
			return
		} else if taken {
			h.renderer.Render(w, http.StatusBadRequest, "login", loginPageData{
				RedirectTo: form.RedirectTo,
				Fields:     form,
				FormError:  "User with username " + form.Username + " already exists",
			})
			return
		}

		user, err := h.identity.Register(r.Context(), form.Username, form.Password)
		if err != nil {
			if errors.Is(err, apperror.ErrConflict) {
				// lost the race to a concurrent registration
				h.renderer.Render(w, http.StatusBadRequest, "login", loginPageData{
					RedirectTo: form.RedirectTo,
					Fields:     form,
					FormError:  "User with username " + form.Username + " already exists",
				})
				return
			}
			h.renderer.RenderError(w, nil, err)
			return
		}
		h.createSession(w, r, user.ID, form)

	default:
		h.renderer.Render(w, http.StatusBadRequest, "login", loginPageData{
			RedirectTo: form.RedirectTo,
			Fields:     form,
			FormError:  "Login type invalid",
		})
	}
}

// HandleLogout destroys the session.
//
// HTTP: POST /logout
// POST, not GET: logout changes state, and GET links get pre-fetched.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.identity.EndSession(w, r)
}

func (h *AuthHandler) createSession(w http.ResponseWriter, r *http.Request, userID string, form LoginForm) {
	if err := h.identity.CreateSession(w, r, userID, form.RedirectTo); err != nil {
		h.logger.Error("creating session", slog.String("error", err.Error()))
		h.renderer.RenderError(w, nil, err)
	}
}

func (h *AuthHandler) usernameTaken(ctx context.Context, username string) (bool, error) {
	_, err := h.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
