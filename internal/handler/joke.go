package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TomatoBigBig/remix-jokes/internal/auth"
	"github.com/TomatoBigBig/remix-jokes/internal/model"
	"github.com/TomatoBigBig/remix-jokes/internal/service"
)

// JokeHandler serves the joke pages: browse, show, create, delete.
type JokeHandler struct {
	jokes    *service.JokeService
	identity *service.IdentityService
	guard    *auth.Guard
	renderer *Renderer
	logger   *slog.Logger
}

// NewJokeHandler creates a JokeHandler.
func NewJokeHandler(
	jokes *service.JokeService,
	identity *service.IdentityService,
	guard *auth.Guard,
	renderer *Renderer,
	logger *slog.Logger,
) *JokeHandler {
	return &JokeHandler{
		jokes:    jokes,
		identity: identity,
		guard:    guard,
		renderer: renderer,
		logger:   logger,
	}
}

// currentUser resolves the session user for page headers. A stale session
// (cookie pointing at a user that no longer exists) is force-logged-out here
// rather than rendered as half-authenticated; the false return tells the
// caller the response is already written.
func (h *JokeHandler) currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user, err := h.identity.CurrentUser(r.Context(), r)
	if err != nil {
		if errors.Is(err, service.ErrStaleSession) {
			h.identity.EndSession(w, r)
			return nil, false
		}
		h.renderer.RenderError(w, nil, err)
		return nil, false
	}
	return user, true
}

// homePageData feeds the home template.
type homePageData struct {
	User *model.User
}

// HandleHome renders the landing page.
//
// HTTP: GET /
func (h *JokeHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	h.renderer.Render(w, http.StatusOK, "home", homePageData{User: user})
}

// jokesPageData feeds the jokes list template.
type jokesPageData struct {
	User   *model.User
	Jokes  []model.Joke
	Random *model.Joke // nil when there are no jokes yet
}

// HandleJokes renders the joke list with one random joke featured.
//
// HTTP: GET /jokes
// Readable by anyone, logged in or not.
func (h *JokeHandler) HandleJokes(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	jokes, err := h.jokes.List(r.Context(), service.DefaultListLimit, 0)
	if err != nil {
		h.renderer.RenderError(w, user, err)
		return
	}

	random, err := h.jokes.Random(r.Context())
	if err != nil {
		h.renderer.RenderError(w, user, err)
		return
	}

	h.renderer.Render(w, http.StatusOK, "jokes", jokesPageData{
		User:   user,
		Jokes:  jokes,
		Random: random,
	})
}

// newJokePageData feeds the new-joke template.
type newJokePageData struct {
	User        *model.User
	Fields      JokeForm
	FieldErrors map[string]string
}

// HandleNewJokePage renders the joke submission form.
//
// HTTP: GET /jokes/new
// An anonymous visitor gets a 401 page with a login link — a page view has
// no form state to preserve, so there is no redirect context to carry.
func (h *JokeHandler) HandleNewJokePage(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if user == nil {
		h.renderer.Render(w, http.StatusUnauthorized, "error", errorPageData{
			Status:  http.StatusUnauthorized,
			Message: "You must be logged in to create a joke.",
		})
		return
	}

	h.renderer.Render(w, http.StatusOK, "new_joke", newJokePageData{User: user})
}

// HandleCreateJoke processes a joke submission.
//
// HTTP: POST /jokes
// An anonymous submission is redirected to /login?redirectTo=%2Fjokes%2Fnew —
// the form page, not this POST endpoint, is where the user should land after
// logging in. Validation failures re-render the form with the fields echoed.
func (h *JokeHandler) HandleCreateJoke(w http.ResponseWriter, r *http.Request) {
	decision := h.guard.RequireUserIDTo(r, "/jokes/new")
	if !decision.Allowed() {
		http.Redirect(w, r, decision.RedirectTo, http.StatusFound)
		return
	}

	form, fieldErrors := decodeJokeForm(r)
	if len(fieldErrors) > 0 {
		user, ok := h.currentUser(w, r)
		if !ok {
			return
		}
		h.renderer.Render(w, http.StatusBadRequest, "new_joke", newJokePageData{
			User:        user,
			Fields:      form,
			FieldErrors: fieldErrors,
		})
		return
	}

	joke, err := h.jokes.Create(r.Context(), form.Name, form.Content, decision.UserID)
	if err != nil {
		h.renderer.RenderError(w, nil, err)
		return
	}

	http.Redirect(w, r, "/jokes/"+joke.ID, http.StatusFound)
}

// jokePageData feeds the single-joke template.
type jokePageData struct {
	User    *model.User
	Joke    *model.Joke
	IsOwner bool
}

// HandleJoke renders a single joke. The delete form is only shown to the
// owner — but hiding it is cosmetic; HandleDeleteJoke re-checks ownership.
//
// HTTP: GET /jokes/{id}
func (h *JokeHandler) HandleJoke(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	joke, err := h.jokes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.renderer.RenderError(w, user, err)
		return
	}

	isOwner := user != nil && user.ID == joke.JokesterID
	h.renderer.Render(w, http.StatusOK, "joke", jokePageData{
		User:    user,
		Joke:    joke,
		IsOwner: isOwner,
	})
}

// HandleDeleteJoke removes a joke on its owner's behalf.
//
// HTTP: POST /jokes/{id} with _method=delete
// Plain HTML forms can only GET and POST, so deletion tunnels through a
// hidden _method field; any other value is a 400. Anonymous callers are
// redirected to login with this joke's path as the return target. A
// non-owner gets a 403 page, and the joke stays.
func (h *JokeHandler) HandleDeleteJoke(w http.ResponseWriter, r *http.Request) {
	if method := r.PostFormValue("_method"); method != "delete" {
		h.renderer.Render(w, http.StatusBadRequest, "error", errorPageData{
			Status:  http.StatusBadRequest,
			Message: "The _method " + method + " is not supported",
		})
		return
	}

	decision := h.guard.RequireUserID(r)
	if !decision.Allowed() {
		http.Redirect(w, r, decision.RedirectTo, http.StatusFound)
		return
	}

	if err := h.jokes.Delete(r.Context(), chi.URLParam(r, "id"), decision.UserID); err != nil {
		h.renderer.RenderError(w, nil, err)
		return
	}

	http.Redirect(w, r, "/jokes", http.StatusFound)
}
