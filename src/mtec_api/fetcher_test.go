package mtec_api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
)

func TestFetchSchedulePostsForm(t *testing.T) {
	var form map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		form = map[string]string{
			"action": r.PostForm.Get("action"),
			"rtype":  r.PostForm.Get("rtype"),
			"date":   r.PostForm.Get("date"),
			"value":  r.PostForm.Get("value"),
		}
		w.Write([]byte("<table></table>"))
	}))
	defer server.Close()

	fetcher := NewFetcher(server.URL, "", 5*time.Second)
	date := time.Date(2025, time.October, 13, 0, 0, 0, 0, time.UTC)
	body, err := fetcher.FetchSchedule(context.Background(), ScheduleRequest{Target: entities.NewMentorTarget("Иванов"), Date: date})
	if err != nil {
		t.Fatalf(`FetchSchedule() returned error %v`, err)
	}
	if string(body) != "<table></table>" {
		t.Errorf(`FetchSchedule() = %q, want "<table></table>"`, body)
	}
	want := map[string]string{"action": ACTION_SEND_SCHEDULE, "rtype": REQUEST_TYPE_MENTORS, "date": "13.10.2025", "value": "Иванов"}
	for key, value := range want {
		if form[key] != value {
			t.Errorf(`FetchSchedule() posted %s = %q, want %q`, key, form[key], value)
		}
	}
}

func TestFetchScheduleServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := NewFetcher(server.URL, "", 5*time.Second)
	_, err := fetcher.FetchSearchParameters(context.Background(), entities.Student)
	if !IsFetchError(err) {
		t.Fatalf(`FetchSearchParameters() = %v, want FetchError`, err)
	}
	if IsParseError(err) {
		t.Errorf(`FetchSearchParameters() = %v, want no ParseError`, err)
	}
}

func TestFetchCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFetcher("http://127.0.0.1:1", "", time.Second).FetchSearchParameters(ctx, entities.Mentor)
	if !IsFetchError(err) {
		t.Errorf(`FetchSearchParameters(canceled) = %v, want FetchError`, err)
	}
}

func TestFetchStopsOnContextDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := NewFetcher(server.URL, "", 30*time.Second).FetchSearchParameters(ctx, entities.Student)
	if !IsFetchError(err) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf(`FetchSearchParameters(slow server) = %v, want FetchError with deadline exceeded`, err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf(`FetchSearchParameters(slow server) took %v, want it to stop at the context deadline`, elapsed)
	}
}
