package schedule

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/mtec_api"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/repository/memory"
)

type fakeFetcher struct {
	mu        sync.Mutex
	dates     []string
	pages     map[string]string
	failures  int
	fetchErrs int
}

func (fetcher *fakeFetcher) FetchSearchParameters(ctx context.Context, kind entities.TargetKind) ([]byte, error) {
	var builder strings.Builder
	builder.WriteString(`<option value="ИТ205">ИТ205</option>`)
	for _, date := range fetcher.dates {
		builder.WriteString("<span>" + date + "</span>")
	}
	return []byte(builder.String()), nil
}

func (fetcher *fakeFetcher) FetchSchedule(ctx context.Context, req mtec_api.ScheduleRequest) ([]byte, error) {
	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	if fetcher.failures > 0 {
		fetcher.failures--
		fetcher.fetchErrs++
		return nil, mtec_api.NewFetchError("schedule", 502, errors.New("bad gateway"))
	}
	page, ok := fetcher.pages[req.Date.Format(mtec_api.DATE_FORMAT)]
	if !ok {
		return []byte("<table></table>"), nil
	}
	return []byte(page), nil
}

type fakeNotifier struct {
	diffs []Diff
}

func (notifier *fakeNotifier) NotifyChanges(ctx context.Context, diff *Diff) error {
	notifier.diffs = append(notifier.diffs, *diff)
	return nil
}

func page(rows ...string) string {
	var builder strings.Builder
	builder.WriteString("<table>")
	for _, row := range rows {
		cells := strings.Split(row, "|")
		builder.WriteString("<tr>")
		for _, cell := range cells {
			builder.WriteString(fmt.Sprintf("<td>%s</td>", cell))
		}
		builder.WriteString("</tr>")
	}
	builder.WriteString("</table>")
	return builder.String()
}

type serviceFixture struct {
	service     *Service
	fetcher     *fakeFetcher
	notifier    *fakeNotifier
	subscribers *memory.SubscribersRepository
	snapshots   *memory.SnapshotsRepository
}

// Monday 13.10.2025, 10:00
var fixtureNow = time.Date(2025, time.October, 13, 10, 0, 0, 0, time.UTC)

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	fixture := &serviceFixture{
		fetcher: &fakeFetcher{
			dates: []string{"13.10.2025"},
			pages: map[string]string{"13.10.2025": page("9:00|Математика|301")},
		},
		notifier:    &fakeNotifier{},
		subscribers: memory.NewSubscribersRepository(),
		snapshots:   memory.NewSnapshotsRepository(),
	}
	fixture.service = NewService(fixture.fetcher, mtec_api.NewParser(time.UTC), fixture.snapshots, fixture.subscribers,
		fixture.notifier, time.UTC, WithRetry(3, time.Millisecond), WithClock(func() time.Time { return fixtureNow }),
		WithNightWindow(22, 7, time.Hour))
	if err := fixture.subscribers.Create(context.Background(), entities.NewSubscriber(1, testTarget)); err != nil {
		t.Fatalf(`Create(1) returned error %v`, err)
	}
	return fixture
}

func TestCheckAllBaselineThenChange(t *testing.T) {
	ctx := context.Background()
	fixture := newServiceFixture(t)

	report, err := fixture.service.CheckAll(ctx, false)
	if err != nil || report.Checked != 1 {
		t.Fatalf(`CheckAll() = (%+v, %v), want one checked target`, report, err)
	}
	if len(fixture.notifier.diffs) != 0 {
		t.Errorf(`notifications after baseline = %d, want 0`, len(fixture.notifier.diffs))
	}

	report, _ = fixture.service.CheckAll(ctx, false)
	if report.Changed != 0 || len(fixture.notifier.diffs) != 0 {
		t.Errorf(`CheckAll() on unchanged page = %+v with %d notifications, want none`, report, len(fixture.notifier.diffs))
	}

	fixture.fetcher.pages["13.10.2025"] = page("9:00|Математика|301", "10:00|Физика|205")
	report, _ = fixture.service.CheckAll(ctx, false)
	if report.Changed != 1 || len(fixture.notifier.diffs) != 1 {
		t.Fatalf(`CheckAll() after new lesson = %+v with %d notifications, want one change`, report, len(fixture.notifier.diffs))
	}
	diff := fixture.notifier.diffs[0]
	added := diff.Added()
	if len(added) != 1 || added[0].Subject != "Физика" || added[0].Weekday != time.Monday || added[0].TimeSlot != "10:00" {
		t.Errorf(`notified Added() = %v, want (Mon, 10:00, Физика)`, added)
	}
	if removed := diff.Removed(); len(removed) != 0 {
		t.Errorf(`notified Removed() = %v, want none`, removed)
	}
}

func TestCheckAllParseErrorKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	fixture := newServiceFixture(t)
	fixture.service.CheckAll(ctx, false)
	before, _ := fixture.snapshots.Get(ctx, testTarget)

	fixture.fetcher.pages["13.10.2025"] = `<table><tr><td></td><td>Физика</td><td>1</td></tr></table>`
	report, err := fixture.service.CheckAll(ctx, false)
	if err != nil || report.Failed != 1 {
		t.Errorf(`CheckAll() on broken page = (%+v, %v), want one failure`, report, err)
	}
	after, _ := fixture.snapshots.Get(ctx, testTarget)
	if after.Hash() != before.Hash() {
		t.Errorf(`snapshot hash after parse error = %s, want previous %s`, after.Hash(), before.Hash())
	}
	if len(fixture.notifier.diffs) != 0 {
		t.Errorf(`notifications after parse error = %d, want 0`, len(fixture.notifier.diffs))
	}
}

func TestRefreshRetriesFetchErrors(t *testing.T) {
	ctx := context.Background()
	fixture := newServiceFixture(t)
	fixture.fetcher.failures = 2

	report, _ := fixture.service.CheckAll(ctx, false)
	if report.Failed != 0 || fixture.fetcher.fetchErrs != 2 {
		t.Errorf(`CheckAll() with two transient failures = %+v after %d fetch errors, want success after 2`, report, fixture.fetcher.fetchErrs)
	}

	fixture.fetcher.failures = 5
	report, _ = fixture.service.CheckAll(ctx, true)
	if report.Failed != 1 {
		t.Errorf(`CheckAll() with persistent failures = %+v, want one failure`, report)
	}
}

func TestCheckAllNightWindow(t *testing.T) {
	ctx := context.Background()
	fixture := newServiceFixture(t)
	night := time.Date(2025, time.October, 13, 23, 0, 0, 0, time.UTC)
	fixture.service.now = func() time.Time { return night }
	fixture.fetcher.dates = []string{"14.10.2025"}

	if report, _ := fixture.service.CheckAll(ctx, false); report.Skipped {
		t.Fatalf(`first CheckAll() at night skipped, want it to run`)
	}
	night = night.Add(10 * time.Minute)
	if report, _ := fixture.service.CheckAll(ctx, false); !report.Skipped {
		t.Errorf(`CheckAll() 10m later at night = %+v, want skipped`, report)
	}
	if report, _ := fixture.service.CheckAll(ctx, true); report.Skipped {
		t.Errorf(`forced CheckAll() at night skipped, want it to run`)
	}
	night = night.Add(time.Hour)
	if report, _ := fixture.service.CheckAll(ctx, false); report.Skipped {
		t.Errorf(`CheckAll() an hour later at night skipped, want it to run`)
	}
}

func TestCurrentFetchesWhenMissing(t *testing.T) {
	ctx := context.Background()
	fixture := newServiceFixture(t)

	snapshot, err := fixture.service.Current(ctx, testTarget)
	if err != nil {
		t.Fatalf(`Current(%s) returned error %v`, testTarget, err)
	}
	if len(snapshot.Lessons) != 1 || snapshot.Lessons[0].Subject != "Математика" {
		t.Errorf(`Current(%s).Lessons = %v, want Математика`, testTarget, snapshot.Lessons)
	}
	if _, err := fixture.snapshots.Get(ctx, testTarget); err != nil {
		t.Errorf(`snapshot stored by Current() = %v, want stored`, err)
	}
}

func TestDailyDigest(t *testing.T) {
	ctx := context.Background()
	fixture := newServiceFixture(t)
	fixture.fetcher.dates = []string{"13.10.2025", "14.10.2025"}
	fixture.fetcher.pages["14.10.2025"] = page("1|Физика|205")
	tuesday := time.Date(2025, time.October, 14, 0, 0, 0, 0, time.UTC)

	text, ok, err := fixture.service.DailyDigest(ctx, testTarget, tuesday)
	if err != nil || !ok {
		t.Fatalf(`DailyDigest(14.10) = (%t, %v), want published`, ok, err)
	}
	if !strings.Contains(text, "Физика") || strings.Contains(text, "Математика") {
		t.Errorf(`DailyDigest(14.10) = %q, want only the lessons of Tuesday`, text)
	}

	if _, ok, err := fixture.service.DailyDigest(ctx, testTarget, tuesday.AddDate(0, 0, 1)); ok || err != nil {
		t.Errorf(`DailyDigest(15.10) = (%t, %v), want not published`, ok, err)
	}
}

// slowFetcher hangs on one target until the cycle runs out of time and records the fetch order.
type slowFetcher struct {
	*fakeFetcher
	slow    entities.Target
	fetched []string
}

func (fetcher *slowFetcher) FetchSchedule(ctx context.Context, req mtec_api.ScheduleRequest) ([]byte, error) {
	fetcher.fetched = append(fetcher.fetched, req.Target.Name)
	if req.Target == fetcher.slow {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return fetcher.fakeFetcher.FetchSchedule(ctx, req)
}

func TestCheckAllResumesAfterTimeout(t *testing.T) {
	ctx := context.Background()
	fixture := newServiceFixture(t)
	for i, group := range []string{"ИТ201", "ИТ202", "ИТ203"} {
		if err := fixture.subscribers.Create(ctx, entities.NewSubscriber(int64(10+i), entities.NewGroupTarget(group))); err != nil {
			t.Fatal(err)
		}
	}
	fetcher := &slowFetcher{fakeFetcher: fixture.fetcher, slow: entities.NewGroupTarget("ИТ203")}
	fixture.service.fetcher = fetcher

	timeoutCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	report, err := fixture.service.CheckAll(timeoutCtx, true)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf(`CheckAll(slow target) error = %v, want deadline exceeded`, err)
	}
	if report.Checked != 2 || report.Unchecked != 2 || report.Failed != 0 {
		t.Errorf(`CheckAll(slow target) = %+v, want 2 checked and 2 unchecked`, report)
	}

	fetcher.slow = entities.Target{}
	fetcher.fetched = nil
	report, err = fixture.service.CheckAll(ctx, true)
	if err != nil || report.Checked != 4 || report.Unchecked != 0 {
		t.Fatalf(`CheckAll() after timeout = (%+v, %v), want all 4 checked`, report, err)
	}
	want := []string{"ИТ203", "ИТ205", "ИТ201", "ИТ202"}
	if !slices.Equal(fetcher.fetched, want) {
		t.Errorf(`fetch order after timeout = %v, want %v`, fetcher.fetched, want)
	}

	fetcher.fetched = nil
	fixture.service.CheckAll(ctx, true)
	if want := []string{"ИТ201", "ИТ202", "ИТ203", "ИТ205"}; !slices.Equal(fetcher.fetched, want) {
		t.Errorf(`fetch order of a full cycle = %v, want %v`, fetcher.fetched, want)
	}
}

func TestDailyDigestRefreshesNewlyPublishedDay(t *testing.T) {
	ctx := context.Background()
	fixture := newServiceFixture(t)
	if _, err := fixture.service.CheckAll(ctx, true); err != nil {
		t.Fatal(err)
	}

	fixture.fetcher.dates = []string{"13.10.2025", "14.10.2025"}
	fixture.fetcher.pages["14.10.2025"] = page("1|Физика|205")
	later := fixtureNow.Add(2 * time.Hour)
	fixture.service.now = func() time.Time { return later }
	tuesday := time.Date(2025, time.October, 14, 0, 0, 0, 0, time.UTC)

	text, ok, err := fixture.service.DailyDigest(ctx, testTarget, tuesday)
	if err != nil || !ok {
		t.Fatalf(`DailyDigest(14.10) = (%t, %v), want published`, ok, err)
	}
	if !strings.Contains(text, "Физика") || strings.Contains(text, NO_LESSONS) {
		t.Errorf(`DailyDigest(14.10) = %q, want the lessons published after the last check`, text)
	}
	stored, _ := fixture.snapshots.Get(ctx, testTarget)
	if lessons := stored.ForDate(tuesday); len(lessons) != 1 {
		t.Errorf(`stored lessons for 14.10 = %v, want the refreshed snapshot`, lessons)
	}
}
