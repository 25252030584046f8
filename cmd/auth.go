package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/ytstream/internal/server"
	"github.com/desertthunder/ytstream/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const oauthTimeout = 2 * time.Minute

var googleEndpoint = oauth2.Endpoint{
	AuthURL:   "https://accounts.google.com/o/oauth2/auth",
	TokenURL:  "https://oauth2.googleapis.com/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// googleOAuthConfig returns the authorization-code config for the CLI login flow.
func googleOAuthConfig(config *shared.Config) (*oauth2.Config, error) {
	google := config.Credentials.Google
	if google.ClientID == "" || google.ClientSecret == "" {
		return nil, fmt.Errorf("%w: Google client_id and client_secret must be set in config.toml", shared.ErrMissingCredentials)
	}
	return &oauth2.Config{
		ClientID:     google.ClientID,
		ClientSecret: google.ClientSecret,
		RedirectURL:  google.RedirectURI,
		Endpoint:     googleEndpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}, nil
}

// callbackAddr is the listen address for the loopback redirect URI.
func callbackAddr(redirectURI string) (string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: invalid redirect_uri %q", shared.ErrInvalidConfig, redirectURI)
	}
	if u.Path != "/callback" {
		return "", fmt.Errorf("%w: redirect_uri must end in /callback", shared.ErrInvalidConfig)
	}
	return u.Host, nil
}

// AuthLogin signs in with Google and prints a session token for the API.
//
// Runs the browser authorization-code flow unless --id-token is given.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	idToken := strings.TrimSpace(cmd.String("id-token"))
	if idToken == "" {
		oauthConfig, err := googleOAuthConfig(config)
		if err != nil {
			return err
		}
		result, err := r.doOAuth(ctx, oauthConfig, "sign-in")
		if err != nil {
			return err
		}
		idToken = result.IDToken
	}

	users, err := r.users()
	if err != nil {
		return err
	}
	auth, err := r.authService(ctx, users)
	if err != nil {
		return err
	}

	signedIn, err := auth.SignIn(ctx, idToken)
	if err != nil {
		return fmt.Errorf("sign-in failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(signedIn, cmd.Bool("pretty"))
	}

	r.writePlainln("✓ Signed in as %s <%s>", signedIn.User.Name, signedIn.User.Email)
	r.writePlain("Session token:\n%s\n\n", signedIn.Token)
	r.writePlain("Send it as: Authorization: Bearer <token>\n")
	return nil
}

// AuthWhoami prints the user a session token belongs to.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)
	token := strings.TrimSpace(cmd.StringArg("token"))
	if token == "" {
		return fmt.Errorf("%w: session token is required", shared.ErrMissingArgument)
	}

	users, err := r.users()
	if err != nil {
		return err
	}
	auth, err := r.authService(ctx, users)
	if err != nil {
		return err
	}

	user, err := auth.Authenticate(ctx, token)
	if err != nil {
		return err
	}

	profile := user.Profile()
	if cmd.Bool("json") {
		return r.writeJSON(profile, cmd.Bool("pretty"))
	}
	r.writePlain("ID: %s\n", profile.ID)
	r.writePlain("Name: %s\n", profile.Name)
	r.writePlain("Email: %s\n", profile.Email)
	return nil
}

// doOAuth serves the redirect URI on loopback, opens the consent page and waits for the callback.
func (r *Runner) doOAuth(ctx context.Context, oauthConfig *oauth2.Config, prefix string) (*server.OAuthResult, error) {
	addr, err := callbackAddr(oauthConfig.RedirectURL)
	if err != nil {
		return nil, err
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
	oauthHandler := server.NewOAuthHandler(oauthConfig, state)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", prefix, addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Google %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(oauthTimeout)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		err = fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		err = ctx.Err()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		r.logger.Warn("error shutting down server", "error", shutdownErr)
	}

	if err != nil {
		return nil, err
	}
	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.IDToken == "" {
		return nil, fmt.Errorf("no ID token received")
	}

	return &result, nil
}
