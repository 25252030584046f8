package server

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"sync/atomic"

	"golang.org/x/oauth2"
)

// OAuthResult is the outcome of one Google login round trip.
//
// IDToken is the OpenID Connect token from the token response; sign-in verifies it.
type OAuthResult struct {
	Token   *oauth2.Token
	IDToken string
	err     error
}

func (o *OAuthResult) Error() error {
	return o.err
}

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>ytstream sign-in</title>
<style>
  body { font-family: system-ui, sans-serif; background: #0f0f0f; color: #f1f1f1;
         display: grid; place-items: center; min-height: 100vh; margin: 0; }
  main { max-width: 28rem; padding: 2rem; border-left: 4px solid {{if .OK}}#ff0000{{else}}#aaaaaa{{end}}; }
  h1 { font-size: 1.25rem; margin: 0 0 .5rem; }
  p { color: #aaaaaa; margin: 0; }
</style>
</head>
<body>
<main>
  <h1>{{.Title}}</h1>
  <p>{{.Detail}}</p>
</main>
</body>
</html>
`))

type callbackView struct {
	OK     bool
	Title  string
	Detail string
}

// OAuthHandler serves the loopback redirect of the CLI login and exchanges the code once.
type OAuthHandler struct {
	config  *oauth2.Config
	state   string
	results chan OAuthResult
	used    atomic.Bool
	once    sync.Once
}

// NewOAuthHandler creates a handler expecting state on the redirect. state must be unguessable.
func NewOAuthHandler(config *oauth2.Config, state string) *OAuthHandler {
	return &OAuthHandler{
		config:  config,
		state:   state,
		results: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"GET /callback"}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.used.CompareAndSwap(false, true) {
		h.render(w, http.StatusBadRequest, callbackView{Title: "Sign-in already handled", Detail: "Run 'ytstream auth login' again to start over."})
		return
	}

	query := r.URL.Query()
	if query.Get("state") != h.state {
		h.fail(w, http.StatusBadRequest, errors.New("state mismatch on login redirect"))
		return
	}

	code := query.Get("code")
	if code == "" {
		h.fail(w, http.StatusBadRequest, fmt.Errorf("google declined the login: %s %s", query.Get("error"), query.Get("error_description")))
		return
	}

	token, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, fmt.Errorf("code exchange: %w", err))
		return
	}

	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		h.fail(w, http.StatusBadGateway, errors.New("token response carried no id_token"))
		return
	}

	h.finish(OAuthResult{Token: token, IDToken: idToken})
	h.render(w, http.StatusOK, callbackView{OK: true, Title: "Signed in to ytstream", Detail: "The terminal has your session. This tab can be closed."})
}

func (h *OAuthHandler) fail(w http.ResponseWriter, status int, err error) {
	h.finish(OAuthResult{err: err})
	h.render(w, status, callbackView{Title: "Sign-in failed", Detail: err.Error()})
}

func (h *OAuthHandler) render(w http.ResponseWriter, status int, view callbackView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = callbackPage.Execute(w, view)
}

func (h *OAuthHandler) finish(result OAuthResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result delivers exactly one [OAuthResult], then closes.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}
