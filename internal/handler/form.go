package handler

import (
	"net/http"

	"github.com/TomatoBigBig/remix-jokes/internal/service"
)

// Form decoding happens once, at the boundary: each decode function reads
// the posted form into a typed struct and returns it alongside a field-error
// map. Downstream code never re-checks field presence or types — an empty
// map means the struct is valid.

// LoginForm is the decoded login/registration submission.
type LoginForm struct {
	LoginType  string
	Username   string
	Password   string
	RedirectTo string
}

// decodeLoginForm reads the login form. RedirectTo defaults to /jokes so a
// direct visit to /login still lands somewhere sensible after submitting.
func decodeLoginForm(r *http.Request) (LoginForm, map[string]string) {
	form := LoginForm{
		LoginType:  r.PostFormValue("loginType"),
		Username:   r.PostFormValue("username"),
		Password:   r.PostFormValue("password"),
		RedirectTo: r.PostFormValue("redirectTo"),
	}
	if form.RedirectTo == "" {
		form.RedirectTo = "/jokes"
	}

	fieldErrors := map[string]string{}
	if msg := service.ValidateUsername(form.Username); msg != "" {
		fieldErrors["username"] = msg
	}
	if msg := service.ValidatePassword(form.Password); msg != "" {
		fieldErrors["password"] = msg
	}

	return form, fieldErrors
}

// JokeForm is the decoded new-joke submission.
type JokeForm struct {
	Name    string
	Content string
}

// decodeJokeForm reads the joke form.
func decodeJokeForm(r *http.Request) (JokeForm, map[string]string) {
	form := JokeForm{
		Name:    r.PostFormValue("name"),
		Content: r.PostFormValue("content"),
	}

	fieldErrors := map[string]string{}
	if msg := service.ValidateJokeName(form.Name); msg != "" {
		fieldErrors["name"] = msg
	}
	if msg := service.ValidateJokeContent(form.Content); msg != "" {
		fieldErrors["content"] = msg
	}

	return form, fieldErrors
}
