package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"voucher-service/internal/infrastructure/oauth"
	"voucher-service/pkg/logger"

	"github.com/joho/godotenv"
)

// Prints a Gmail refresh token for GMAIL_REFRESH_TOKEN after a browser consent.
func main() {
	godotenv.Load()
	log := logger.NewLogger("info")

	clientID, clientSecret := os.Getenv("GMAIL_CLIENT_ID"), os.Getenv("GMAIL_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		log.Fatal("GMAIL_CLIENT_ID and GMAIL_CLIENT_SECRET must be set")
	}

	addr := os.Getenv("OAUTH_CALLBACK_ADDR")
	if addr == "" {
		addr = "localhost:8090"
	}

	gmailOAuth := oauth.NewGmailOAuth(clientID, clientSecret, "", log).
		WithRedirectURL("http://" + addr + "/oauth2callback")

	state := oauth.NewState()

	http.HandleFunc("/oauth2callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}

		token, err := gmailOAuth.ExchangeCode(context.Background(), r.URL.Query().Get("code"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if raw, err := gmailOAuth.TokenToJSON(token); err == nil {
			fmt.Println(raw)
		}
		fmt.Printf("\nGMAIL_REFRESH_TOKEN=%s\n\n", token.RefreshToken)
		fmt.Fprintf(w, "Authentication successful! You can close this window.")
		go os.Exit(0)
	})

	fmt.Printf("Open this URL in your browser:\n%s\n", gmailOAuth.GenerateAuthURL(state))
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatal("Callback server failed", "error", err)
	}
}
