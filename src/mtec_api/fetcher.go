package mtec_api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
	"github.com/gocolly/colly/v2"
)

const (
	ACTION_SEARCH_PARAMETERS = "getSearchParameters"
	ACTION_SEND_SCHEDULE     = "sendSchedule"

	REQUEST_TYPE_STUDENTS = "stds"
	REQUEST_TYPE_MENTORS  = "prep"

	DATE_FORMAT = "02.01.2006"

	USER_AGENT = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15"
)

type ScheduleRequest struct {
	Target entities.Target
	Date   time.Time
}

// Fetcher posts forms to the college schedule endpoint and returns the raw markup untouched.
type Fetcher struct {
	url     string
	referer string
	timeout time.Duration
}

func NewFetcher(url, referer string, timeout time.Duration) *Fetcher {
	return &Fetcher{url: url, referer: referer, timeout: timeout}
}

func RequestType(kind entities.TargetKind) string {
	if kind == entities.Mentor {
		return REQUEST_TYPE_MENTORS
	}
	return REQUEST_TYPE_STUDENTS
}

func (fetcher *Fetcher) FetchSchedule(ctx context.Context, req ScheduleRequest) ([]byte, error) {
	form := map[string]string{
		"action": ACTION_SEND_SCHEDULE,
		"date":   req.Date.Format(DATE_FORMAT),
		"value":  req.Target.Name,
		"rtype":  RequestType(req.Target.Kind),
	}
	return fetcher.post(ctx, fmt.Sprintf("schedule of %s for %s", req.Target, form["date"]), form)
}

func (fetcher *Fetcher) FetchSearchParameters(ctx context.Context, kind entities.TargetKind) ([]byte, error) {
	form := map[string]string{
		"action": ACTION_SEARCH_PARAMETERS,
		"rtype":  RequestType(kind),
	}
	return fetcher.post(ctx, "search parameters", form)
}

func (fetcher *Fetcher) newCollector(ctx context.Context) *colly.Collector {
	collector := colly.NewCollector(colly.UserAgent(USER_AGENT), colly.AllowURLRevisit())
	collector.Context = ctx
	collector.SetRequestTimeout(fetcher.timeout)
	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "*/*")
		r.Headers.Set("X-Requested-With", "XMLHttpRequest")
		if fetcher.referer != "" {
			r.Headers.Set("Referer", fetcher.referer)
		}
		slog.Debug("posting schedule request", "url", r.URL.String())
	})
	return collector
}

func (fetcher *Fetcher) post(ctx context.Context, op string, form map[string]string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewFetchError(op, 0, err)
	}

	collector := fetcher.newCollector(ctx)

	var (
		body    []byte
		status  int
		respErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		respErr = err
	})

	err := collector.Post(fetcher.url, form)
	if err == nil {
		err = respErr
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(err, ctxErr)
		}
		return nil, NewFetchError(op, status, err)
	}
	if status < 200 || status >= 300 {
		return nil, NewFetchError(op, status, errors.New("unexpected status"))
	}
	return body, nil
}
