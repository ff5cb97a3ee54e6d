package auth

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestRedirectURL(t *testing.T) {
	cases := map[string]string{
		"":                                   "http://localhost:6789/oauth2callback",
		"urn:ietf:wg:oauth:2.0:oob":          "http://localhost:6789/oauth2callback",
		"http://localhost":                   "http://localhost:6789",
		"http://localhost:1234/cb":           "http://localhost:6789/cb",
		"http://127.0.0.1:6789/cb":           "http://127.0.0.1:6789/cb",
		"https://example.com/oauth/callback": "https://example.com/oauth/callback",
	}
	for in, want := range cases {
		if got := redirectURL(in); got != want {
			t.Errorf("redirectURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGetConfig(t *testing.T) {
	dir := t.TempDir()
	secrets := filepath.Join(dir, "credentials.json")
	body := `{"installed":{"client_id":"id","client_secret":"s","auth_uri":"https://accounts.example/auth","token_uri":"https://accounts.example/token","redirect_uris":["http://localhost"]}}`
	if err := os.WriteFile(secrets, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := GetConfig(secrets, ClassroomScopes)
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}
	if cfg.RedirectURL != "http://localhost:6789" {
		t.Errorf("Unexpected redirect %s", cfg.RedirectURL)
	}
	if len(cfg.Scopes) != 2 {
		t.Errorf("Expected 2 scopes, got %v", cfg.Scopes)
	}
}

func TestGetConfigMissingFile(t *testing.T) {
	if _, err := GetConfig(filepath.Join(t.TempDir(), "nope.json"), nil); err == nil {
		t.Error("Expected an error for a missing secrets file")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	tok := &oauth2.Token{AccessToken: "a", RefreshToken: "r", Expiry: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}

	if err := saveToken(path, tok); err != nil {
		t.Fatalf("saveToken failed: %v", err)
	}
	got, err := tokenFromFile(path)
	if err != nil {
		t.Fatalf("tokenFromFile failed: %v", err)
	}
	if got.AccessToken != "a" || got.RefreshToken != "r" || !got.Expiry.Equal(tok.Expiry) {
		t.Errorf("Unexpected token %+v", got)
	}
}

type staticSource struct{ tok *oauth2.Token }

func (s staticSource) Token() (*oauth2.Token, error) { return s.tok, nil }

func TestSavingSourcePersistsRefresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	old := &oauth2.Token{AccessToken: "old", RefreshToken: "r"}
	fresh := &oauth2.Token{AccessToken: "new", RefreshToken: "r"}

	src := &savingSource{base: staticSource{fresh}, last: old, path: path}
	if _, err := src.Token(); err != nil {
		t.Fatal(err)
	}
	got, err := tokenFromFile(path)
	if err != nil || got.AccessToken != "new" {
		t.Errorf("Expected refreshed token saved, got %v, %v", got, err)
	}
}

func TestCallbackHandler(t *testing.T) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	h := callbackHandler(codeCh, errCh)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth2callback?code=xyz", nil))
	if got := <-codeCh; got != "xyz" {
		t.Errorf("Expected code xyz, got %s", got)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth2callback", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
	if err := <-errCh; err == nil {
		t.Error("Expected an error for a missing code")
	}
}
