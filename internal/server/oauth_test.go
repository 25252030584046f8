package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func newTokenServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "auth-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func oauthConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:3000/callback",
		Endpoint:     oauth2.Endpoint{AuthURL: "https://accounts.example/auth", TokenURL: tokenURL},
		Scopes:       []string{"openid", "email", "profile"},
	}
}

func TestOAuthHandler(t *testing.T) {
	t.Run("exchanges code for id token", func(t *testing.T) {
		srv := newTokenServer(t, `{"access_token":"at","token_type":"Bearer","expires_in":3600,"id_token":"header.payload.sig"}`)
		handler := NewOAuthHandler(oauthConfig(srv.URL), "state-1")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=state-1&code=auth-code", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		result := <-handler.Result()
		if result.Error() != nil {
			t.Fatalf("unexpected error: %v", result.Error())
		}
		if result.IDToken != "header.payload.sig" || result.Token.AccessToken != "at" {
			t.Errorf("unexpected result: %+v", result)
		}
		if !strings.Contains(rec.Body.String(), "Signed in to ytstream") {
			t.Errorf("expected success page, got %s", rec.Body.String())
		}
	})

	t.Run("escapes provider error text", func(t *testing.T) {
		handler := NewOAuthHandler(oauthConfig("http://unused"), "state-1")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=state-1&error=%3Cscript%3E", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if body := rec.Body.String(); strings.Contains(body, "<script>") || !strings.Contains(body, "Sign-in failed") {
			t.Errorf("unexpected failure page: %s", body)
		}
	})

	t.Run("rejects state mismatch", func(t *testing.T) {
		handler := NewOAuthHandler(oauthConfig("http://unused"), "state-1")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=other&code=auth-code", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if result := <-handler.Result(); result.Error() == nil {
			t.Error("expected an error result")
		}
	})

	t.Run("reports provider error", func(t *testing.T) {
		handler := NewOAuthHandler(oauthConfig("http://unused"), "state-1")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=state-1&error=access_denied", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if result := <-handler.Result(); result.Error() == nil {
			t.Error("expected an error result")
		}
	})

	t.Run("requires id token", func(t *testing.T) {
		srv := newTokenServer(t, `{"access_token":"at","token_type":"Bearer"}`)
		handler := NewOAuthHandler(oauthConfig(srv.URL), "state-1")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=state-1&code=auth-code", nil))
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", rec.Code)
		}
		if result := <-handler.Result(); result.Error() == nil {
			t.Error("expected an error result")
		}
	})

	t.Run("processes a single callback", func(t *testing.T) {
		handler := NewOAuthHandler(oauthConfig("http://unused"), "state-1")
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?state=x", nil))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=state-1&code=auth-code", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 on replay, got %d", rec.Code)
		}
	})
}
