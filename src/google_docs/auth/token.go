package google_docs_auth

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"
)

const AUTH_STATE = "mtec-schedule-export"

var Scopes = []string{sheets.SpreadsheetsScope, drive.DriveFileScope}

// Prompt asks the operator for an authorization code when no token is stored yet.
type Prompt struct {
	In  io.Reader
	Out io.Writer
}

func TerminalPrompt() Prompt {
	return Prompt{In: os.Stdin, Out: os.Stdout}
}

// GetClient builds an OAuth2 client for the export. Tokens refreshed by the client are written
// back to tokenFile.
func GetClient(ctx context.Context, credentialsFile, tokenFile string, prompt Prompt) (*http.Client, error) {
	credentials, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read google credentials: %w", err)
	}
	config, err := google.ConfigFromJSON(credentials, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse google credentials: %w", err)
	}

	store := &TokenFile{Path: tokenFile}
	token, err := store.Load()
	if errors.Is(err, os.ErrNotExist) {
		token, err = exchangeCode(ctx, config, prompt)
		if err == nil {
			err = store.Save(token)
		}
	}
	if err != nil {
		return nil, err
	}

	source := &savingSource{base: config.TokenSource(ctx, token), store: store, last: token.AccessToken}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, source)), nil
}

func exchangeCode(ctx context.Context, config *oauth2.Config, prompt Prompt) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL(AUTH_STATE, oauth2.AccessTypeOffline)
	fmt.Fprintf(prompt.Out, "Open the link below and paste the authorization code:\n%s\n", authURL)

	code, err := bufio.NewReader(prompt.In).ReadString('\n')
	code = strings.TrimSpace(code)
	if code == "" {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("failed to read google auth code: %w", err)
	}
	token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange google auth code: %w", err)
	}
	return token, nil
}

type TokenFile struct {
	Path string
}

func (file *TokenFile) Load() (*oauth2.Token, error) {
	raw, err := os.ReadFile(file.Path)
	if err != nil {
		return nil, err
	}
	token := &oauth2.Token{}
	if err := json.Unmarshal(raw, token); err != nil {
		return nil, fmt.Errorf("failed to decode token %s: %w", file.Path, err)
	}
	return token, nil
}

func (file *TokenFile) Save(token *oauth2.Token) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return err
	}
	if err := os.WriteFile(file.Path, raw, 0600); err != nil {
		return fmt.Errorf("failed to save token %s: %w", file.Path, err)
	}
	slog.Info("google token saved", "path", file.Path)
	return nil
}

// savingSource persists every token that differs from the last one it has seen.
type savingSource struct {
	base  oauth2.TokenSource
	store *TokenFile

	mu   sync.Mutex
	last string
}

func (source *savingSource) Token() (*oauth2.Token, error) {
	token, err := source.base.Token()
	if err != nil {
		return nil, err
	}
	source.mu.Lock()
	defer source.mu.Unlock()
	if token.AccessToken != source.last {
		source.last = token.AccessToken
		if err := source.store.Save(token); err != nil {
			slog.Error(err.Error())
		}
	}
	return token, nil
}
