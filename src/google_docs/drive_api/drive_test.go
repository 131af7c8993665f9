package driveapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

func TestSpreadsheetQuery(t *testing.T) {
	got := SpreadsheetQuery("Расписание 'МТЭК'")
	want := `mimeType='application/vnd.google-apps.spreadsheet' and name='Расписание \'МТЭК\'' and trashed=false`
	if got != want {
		t.Errorf(`SpreadsheetQuery() = %s, want %s`, got, want)
	}
}

func newTestService(t *testing.T, handler http.HandlerFunc) *DriveApiService {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	api, err := drive.NewService(context.Background(), option.WithoutAuthentication(),
		option.WithEndpoint(server.URL+"/"), option.WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatal(err)
	}
	return NewDriveApiService(api)
}

func TestFindSpreadsheetPages(t *testing.T) {
	requests := 0
	serv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("pageToken") == "" {
			fmt.Fprint(w, `{"nextPageToken":"p2","files":[{"id":"doc","name":"Расписание","mimeType":"application/vnd.google-apps.document"}]}`)
			return
		}
		fmt.Fprintf(w, `{"files":[{"id":"sheet","name":"Расписание","mimeType":"%s"}]}`, SHEETS_MIME_TYPE)
	})

	res, err := serv.FindSpreadsheet(context.Background(), "Расписание")
	if err != nil {
		t.Fatal(err)
	}
	if !res.DoesExist() || res.SpreadsheetId() != "sheet" {
		t.Errorf(`FindSpreadsheet() = %+v, want spreadsheet "sheet"`, res)
	}
	if requests != 2 {
		t.Errorf(`FindSpreadsheet() made %d requests, want 2`, requests)
	}
}

func TestFindSpreadsheetMissing(t *testing.T) {
	serv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"files":[]}`)
	})

	res, err := serv.FindSpreadsheet(context.Background(), "Расписание")
	if err != nil {
		t.Fatal(err)
	}
	if res.DoesExist() {
		t.Errorf(`FindSpreadsheet() = %+v, want missing`, res)
	}
}

func TestFindSpreadsheetError(t *testing.T) {
	serv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
	})

	if _, err := serv.FindSpreadsheet(context.Background(), "Расписание"); err == nil {
		t.Errorf(`FindSpreadsheet() error = nil, want forbidden`)
	}
}
