package google_docs_auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

type staticSource struct {
	tokens []*oauth2.Token
	calls  int
}

func (source *staticSource) Token() (*oauth2.Token, error) {
	token := source.tokens[min(source.calls, len(source.tokens)-1)]
	source.calls++
	return token, nil
}

func TestTokenFile(t *testing.T) {
	file := &TokenFile{Path: filepath.Join(t.TempDir(), "token.json")}
	if _, err := file.Load(); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf(`Load() on missing file = %v, want os.ErrNotExist`, err)
	}

	expiry := time.Date(2025, 10, 14, 12, 0, 0, 0, time.UTC)
	want := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: expiry}
	if err := file.Save(want); err != nil {
		t.Fatal(err)
	}
	got, err := file.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got.AccessToken != want.AccessToken || got.RefreshToken != want.RefreshToken || !got.Expiry.Equal(expiry) {
		t.Errorf(`Load() = %+v, want %+v`, got, want)
	}
}

func TestSavingSourcePersistsRefreshedTokens(t *testing.T) {
	file := &TokenFile{Path: filepath.Join(t.TempDir(), "token.json")}
	base := &staticSource{tokens: []*oauth2.Token{{AccessToken: "old"}, {AccessToken: "new"}}}
	source := &savingSource{base: base, store: file, last: "old"}

	if _, err := source.Token(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(file.Path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf(`token file written for an unchanged token, stat error = %v`, err)
	}

	if _, err := source.Token(); err != nil {
		t.Fatal(err)
	}
	saved, err := file.Load()
	if err != nil {
		t.Fatal(err)
	}
	if saved.AccessToken != "new" {
		t.Errorf(`saved token = %q, want %q`, saved.AccessToken, "new")
	}
}
