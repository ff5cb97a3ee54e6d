// Package auth runs the installed-app OAuth flow for Google and caches the
// resulting token on disk.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/classroom/v1"
)

const (
	// LocalhostAuthPort receives the OAuth redirect. It must match the
	// redirect URI registered for the client.
	LocalhostAuthPort = "6789"

	authTimeout = 5 * time.Minute
)

// ClassroomScopes are the read-only scopes the Classroom integration needs.
var ClassroomScopes = []string{
	classroom.ClassroomCoursesReadonlyScope,
	classroom.ClassroomCourseworkMeReadonlyScope,
}

// Files locates the client secrets and the cached token.
type Files struct {
	ClientSecrets string
	Token         string
}

// GetConfig creates an oauth2.Config from the client secrets file, forcing
// the redirect onto the local callback port.
func GetConfig(secretsFile string, scopes []string) (*oauth2.Config, error) {
	b, err := os.ReadFile(secretsFile)
	if err != nil {
		return nil, errors.Wrapf(err, "reading client secret file %s", secretsFile)
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, errors.Wrap(err, "parsing client secret file")
	}
	config.RedirectURL = redirectURL(config.RedirectURL)
	return config, nil
}

// redirectURL rewrites localhost and out-of-band redirects to the local
// callback port. Other redirects are kept.
func redirectURL(configured string) string {
	if configured == "" || configured == "urn:ietf:wg:oauth:2.0:oob" {
		return fmt.Sprintf("http://localhost:%s/oauth2callback", LocalhostAuthPort)
	}

	u, err := url.Parse(configured)
	if err != nil {
		slog.Warn("could not parse redirect URL, using it as is", "redirect_url", configured, "error", err)
		return configured
	}
	if u.Hostname() != "localhost" && u.Hostname() != "127.0.0.1" {
		slog.Warn("redirect URL is not a localhost callback", "redirect_url", configured)
		return configured
	}
	if u.Port() != LocalhostAuthPort {
		u.Host = net.JoinHostPort(u.Hostname(), LocalhostAuthPort)
	}
	return u.String()
}

// GetClient returns an HTTP client carrying a token for scopes. A cached
// token is used and refreshed when possible; otherwise the browser flow runs.
func GetClient(ctx context.Context, files Files, scopes []string) (*http.Client, error) {
	config, err := GetConfig(files.ClientSecrets, scopes)
	if err != nil {
		return nil, err
	}

	tok, err := tokenFromFile(files.Token)
	if err != nil {
		slog.Info("no cached token, starting web authorization", "token_file", files.Token)
		tok, err = getTokenFromWeb(ctx, config)
		if err != nil {
			return nil, errors.Wrap(err, "getting token from web")
		}
		if err := saveToken(files.Token, tok); err != nil {
			return nil, err
		}
	}

	src := &savingSource{
		base: config.TokenSource(ctx, tok),
		last: tok,
		path: files.Token,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

// Reauthorize drops the cached token and runs the browser flow again.
func Reauthorize(ctx context.Context, files Files, scopes []string) error {
	if err := os.Remove(files.Token); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "deleting token file %s", files.Token)
	}
	_, err := GetClient(ctx, files, scopes)
	return err
}

// savingSource writes refreshed tokens back to the cache file.
type savingSource struct {
	base oauth2.TokenSource
	last *oauth2.Token
	path string
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last.AccessToken || tok.RefreshToken != s.last.RefreshToken {
		if err := saveToken(s.path, tok); err != nil {
			slog.Warn("could not save refreshed token", "error", err)
		}
		s.last = tok
	}
	return tok, nil
}

func getTokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	listener, err := net.Listen("tcp", ":"+LocalhostAuthPort)
	if err != nil {
		return nil, errors.Wrapf(err, "listening on port %s", LocalhostAuthPort)
	}
	defer listener.Close()

	server := &http.Server{
		Handler:      callbackHandler(codeCh, errCh),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- errors.Wrap(err, "callback server")
		}
	}()
	defer server.Shutdown(context.Background())

	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Printf("Open the following URL in your browser to authorize schooltasks:\n%s\n", authURL)
	slog.Info("waiting for authorization code", "redirect_url", config.RedirectURL)

	select {
	case code := <-codeCh:
		exchangeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		tok, err := config.Exchange(exchangeCtx, code)
		if err != nil {
			return nil, errors.Wrap(err, "exchanging authorization code")
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(authTimeout):
		return nil, errors.New("authorization timed out, please try again")
	}
}

func callbackHandler(codeCh chan<- string, errCh chan<- error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Authorization code not found", http.StatusBadRequest)
			select {
			case errCh <- errors.New("authorization code not found in redirect URL"):
			default:
			}
			return
		}
		fmt.Fprintf(w, "Authentication successful! You can close this window.")
		select {
		case codeCh <- code:
		default:
		}
	})
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, errors.Wrapf(err, "decoding token from file %s", file)
	}
	return tok, nil
}

func saveToken(path string, token *oauth2.Token) error {
	slog.Info("saving authentication token", "token_file", path)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Wrapf(err, "creating token directory for %s", path)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return errors.Wrapf(err, "caching OAuth token to %s", path)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
