// Command gdrive-auth obtains the Google Drive refresh token used by the
// gdrive storage provider (GDRIVE_REFRESH_TOKEN).
package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"

	"preflight/internal/config"
	"preflight/internal/pkg/logger"
)

const authTimeout = 3 * time.Minute

func main() {
	ctx := context.Background()
	log := logger.New(logger.Config{Level: "info", Format: "text", ServiceName: "gdrive-auth"})

	if err := config.LoadDotEnv(); err != nil {
		log.LogFatal("failed to load .env", err)
	}
	clientID := config.MustEnv("GDRIVE_CLIENT_ID")
	clientSecret := config.MustEnv("GDRIVE_CLIENT_SECRET")

	// Local callback on a free port.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.LogFatal("failed to listen for callback", err)
	}
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	redirectURL := fmt.Sprintf("http://127.0.0.1:%d/callback", port)

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveFileScope}, // files created by this app only
		RedirectURL:  redirectURL,
	}

	state := randomState()
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(w, "invalid state", http.StatusBadRequest)
			errCh <- errors.New("invalid state")
		case q.Get("error") != "":
			http.Error(w, "auth error: "+q.Get("error"), http.StatusBadRequest)
			errCh <- fmt.Errorf("auth error: %s", q.Get("error"))
		case q.Get("code") == "":
			http.Error(w, "missing code", http.StatusBadRequest)
			errCh <- errors.New("missing code")
		default:
			fmt.Fprintln(w, "Authorized. You can close this window and return to the terminal.")
			codeCh <- q.Get("code")
		}
	})

	srv := &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		_ = srv.Serve(ln)
	}()

	// Offline access so Google issues a refresh token.
	authURL := conf.AuthCodeURL(
		state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)

	fmt.Println("\nOpen this URL in your browser:")
	fmt.Println()
	fmt.Println(authURL)
	fmt.Println("\nWaiting for authorization on", redirectURL)

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		_ = srv.Close()
		log.LogFatal("authorization failed", err)
	case <-time.After(authTimeout):
		_ = srv.Close()
		log.LogFatal("authorization failed", errors.New("timed out waiting for authorization"))
	}
	_ = srv.Close()

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		log.LogFatal("token exchange failed", err)
	}

	// Google omits the refresh token when the app was already authorized without prompt=consent.
	if strings.TrimSpace(tok.RefreshToken) == "" {
		log.Warn("no refresh_token returned; revoke the app at https://myaccount.google.com/permissions and run again")
		return
	}

	fmt.Println("\nAdd this to your .env:")
	fmt.Println()
	fmt.Printf("GDRIVE_REFRESH_TOKEN=%s\n", tok.RefreshToken)
}

func randomState() string {
	b := make([]byte, 18)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
