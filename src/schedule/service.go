package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/mtec_api"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/repository/interfaces"
	datetime "github.com/aCrYoZPS/mtec_schedule_bot/src/utils/date_time"
	"github.com/google/uuid"
)

const (
	SEARCH_PARAMETERS_TTL = time.Hour
	SNAPSHOT_TOUCH_AFTER  = 24 * time.Hour
)

type Fetcher interface {
	FetchSchedule(ctx context.Context, req mtec_api.ScheduleRequest) ([]byte, error)
	FetchSearchParameters(ctx context.Context, kind entities.TargetKind) ([]byte, error)
}

type Parser interface {
	Parse(raw []byte, opts mtec_api.ParseOptions) ([]entities.LessonRecord, error)
}

type TargetsLister interface {
	Stats(ctx context.Context) ([]entities.TargetStats, error)
}

type Notifier interface {
	NotifyChanges(ctx context.Context, diff *Diff) error
}

type Exporter interface {
	ExportSnapshot(ctx context.Context, snapshot *entities.ScheduleSnapshot) error
}

// CheckReport sums up one polling cycle.
type CheckReport struct {
	Cycle   string
	Skipped bool
	Checked int
	Changed int
	Failed  int

	// Unchecked counts the targets left when the cycle ran out of time.
	Unchecked int
}

type cachedParameters struct {
	params    *mtec_api.SearchParameters
	fetchedAt time.Time
}

// Service runs the fetch, parse, diff, store and notify pipeline for subscribed targets.
type Service struct {
	fetcher   Fetcher
	parser    Parser
	snapshots interfaces.SnapshotsRepository
	hashes    interfaces.HashCache
	targets   TargetsLister
	notifier  Notifier
	exporter  Exporter
	location  *time.Location
	now       func() time.Time

	retries    int
	retryDelay time.Duration

	nightStart    int
	nightEnd      int
	nightInterval time.Duration

	cycleMu   sync.Mutex
	lastCheck time.Time
	// resumeAt is the first target an interrupted cycle did not finish.
	resumeAt  entities.Target

	paramsMu sync.Mutex
	params   map[entities.TargetKind]cachedParameters
}

func WithHashCache(hashes interfaces.HashCache) func(*Service) {
	return func(service *Service) {
		service.hashes = hashes
	}
}

func WithExporter(exporter Exporter) func(*Service) {
	return func(service *Service) {
		service.exporter = exporter
	}
}

func WithRetry(retries int, delay time.Duration) func(*Service) {
	return func(service *Service) {
		service.retries = retries
		service.retryDelay = delay
	}
}

// WithNightWindow makes CheckAll poll at most once per interval between start and end hours.
func WithNightWindow(start, end int, interval time.Duration) func(*Service) {
	return func(service *Service) {
		service.nightStart = start
		service.nightEnd = end
		service.nightInterval = interval
	}
}

func WithClock(now func() time.Time) func(*Service) {
	return func(service *Service) {
		service.now = now
	}
}

func NewService(fetcher Fetcher, parser Parser, snapshots interfaces.SnapshotsRepository, targets TargetsLister,
	notifier Notifier, location *time.Location, opts ...func(*Service)) *Service {
	if location == nil {
		location = time.UTC
	}
	service := &Service{
		fetcher:    fetcher,
		parser:     parser,
		snapshots:  snapshots,
		targets:    targets,
		notifier:   notifier,
		location:   location,
		now:        time.Now,
		retries:    3,
		retryDelay: 500 * time.Millisecond,
		params:     map[entities.TargetKind]cachedParameters{},
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (service *Service) Now() time.Time {
	return service.now().In(service.location)
}

// SearchParameters returns the groups, mentors and dates currently published, cached for an hour.
func (service *Service) SearchParameters(ctx context.Context, kind entities.TargetKind) (*mtec_api.SearchParameters, error) {
	service.paramsMu.Lock()
	cached, ok := service.params[kind]
	service.paramsMu.Unlock()
	if ok && service.Now().Sub(cached.fetchedAt) < SEARCH_PARAMETERS_TTL {
		return cached.params, nil
	}
	return service.refreshSearchParameters(ctx, kind)
}

func (service *Service) refreshSearchParameters(ctx context.Context, kind entities.TargetKind) (*mtec_api.SearchParameters, error) {
	raw, err := withRetry(ctx, service.retries, service.retryDelay, func(ctx context.Context) ([]byte, error) {
		return service.fetcher.FetchSearchParameters(ctx, kind)
	})
	if err != nil {
		return nil, err
	}
	params := mtec_api.ParseSearchParameters(raw, service.location)

	service.paramsMu.Lock()
	service.params[kind] = cachedParameters{params: params, fetchedAt: service.Now()}
	service.paramsMu.Unlock()
	return params, nil
}

// FetchSnapshot downloads and parses every published date of the coming week for target.
func (service *Service) FetchSnapshot(ctx context.Context, target entities.Target, params *mtec_api.SearchParameters) (*entities.ScheduleSnapshot, error) {
	now := service.Now()
	lessons := []entities.LessonRecord{}
	for _, date := range params.UpcomingDates(now) {
		req := mtec_api.ScheduleRequest{Target: target, Date: date}
		raw, err := withRetry(ctx, service.retries, service.retryDelay, func(ctx context.Context) ([]byte, error) {
			return service.fetcher.FetchSchedule(ctx, req)
		})
		if err != nil {
			return nil, err
		}
		parsed, err := service.parser.Parse(raw, mtec_api.ParseOptions{Target: target, Date: date})
		if err != nil {
			return nil, fmt.Errorf("failed to parse schedule of %s for %s: %w", target, date.Format(mtec_api.DATE_FORMAT), err)
		}
		lessons = append(lessons, parsed...)
	}
	return entities.NewScheduleSnapshot(target, now, lessons), nil
}

// RefreshTarget fetches target, stores the snapshot when its hash changed and notifies about the diff.
// The first snapshot of a target is stored silently as the baseline.
func (service *Service) RefreshTarget(ctx context.Context, target entities.Target, params *mtec_api.SearchParameters) (*Diff, error) {
	if len(params.UpcomingDates(service.Now())) == 0 {
		slog.Warn("no dates published for the coming week", "target", target.String())
		return &Diff{Target: target}, nil
	}
	snapshot, err := service.FetchSnapshot(ctx, target, params)
	if err != nil {
		return nil, err
	}
	hash := snapshot.Hash()

	if service.hashes != nil {
		cached, err := service.hashes.GetHash(ctx, target)
		if err != nil {
			slog.Warn("hash cache lookup failed", "target", target.String(), "err", err)
		}
		if cached == hash {
			return &Diff{Target: target}, nil
		}
	}

	prev, err := service.snapshots.Get(ctx, target)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}
	if prev != nil && prev.Hash() == hash {
		if snapshot.FetchedAt.Sub(prev.FetchedAt) > SNAPSHOT_TOUCH_AFTER {
			if err := service.store(ctx, snapshot, hash); err != nil {
				slog.Warn("failed to touch snapshot", "target", target.String(), "err", err)
			}
		} else {
			service.cacheHash(ctx, target, hash)
		}
		return &Diff{Target: target}, nil
	}

	var diff Diff
	if prev != nil {
		diff = Compare(prev.OnOrAfter(datetime.StartOfDay(snapshot.FetchedAt)), snapshot)
	} else {
		diff = Compare(nil, snapshot)
	}
	if err := service.store(ctx, snapshot, hash); err != nil {
		return nil, err
	}
	if service.exporter != nil {
		if err := service.exporter.ExportSnapshot(ctx, snapshot); err != nil {
			slog.Error(fmt.Errorf("failed to export snapshot of %s: %w", target, err).Error())
		}
	}

	if prev == nil || diff.IsEmpty() {
		return &diff, nil
	}
	if err := service.notifier.NotifyChanges(ctx, &diff); err != nil {
		slog.Error(fmt.Errorf("failed to notify about changes of %s: %w", target, err).Error())
	}
	return &diff, nil
}

func (service *Service) store(ctx context.Context, snapshot *entities.ScheduleSnapshot, hash string) error {
	if err := service.snapshots.Save(ctx, snapshot); err != nil {
		return err
	}
	service.cacheHash(ctx, snapshot.Target, hash)
	return nil
}

func (service *Service) cacheHash(ctx context.Context, target entities.Target, hash string) {
	if service.hashes == nil {
		return
	}
	if err := service.hashes.SetHash(ctx, target, hash); err != nil {
		slog.Warn("failed to cache snapshot hash", "target", target.String(), "err", err)
	}
}

// CheckAll refreshes every subscribed target. At night it runs at most once per night interval unless forced.
// A target failing to fetch or parse keeps its previous snapshot and does not stop the cycle.
func (service *Service) CheckAll(ctx context.Context, force bool) (CheckReport, error) {
	service.cycleMu.Lock()
	defer service.cycleMu.Unlock()

	report := CheckReport{Cycle: uuid.NewString()}
	now := service.Now()
	if !force && service.nightInterval > 0 && datetime.IsWithinHours(now, service.nightStart, service.nightEnd) &&
		now.Sub(service.lastCheck) < service.nightInterval {
		report.Skipped = true
		return report, nil
	}
	service.lastCheck = now

	stats, err := service.targets.Stats(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list subscribed targets: %w", err)
	}
	logger := slog.With("cycle", report.Cycle)
	logger.Info("schedule check started", "targets", len(stats))

	order := service.rotate(stats)
	interrupt := func(i int, err error) (CheckReport, error) {
		report.Unchecked = len(order) - i
		service.resumeAt = order[i].Target
		logger.Warn("schedule check interrupted", "unchecked", report.Unchecked, "resume_at", service.resumeAt.String(),
			"checked", report.Checked, "err", err)
		return report, err
	}

	params := map[entities.TargetKind]*mtec_api.SearchParameters{}
	for i, stat := range order {
		if err := ctx.Err(); err != nil {
			return interrupt(i, err)
		}
		target := stat.Target
		kindParams, ok := params[target.Kind]
		if !ok {
			kindParams, err = service.refreshSearchParameters(ctx, target.Kind)
			if err != nil {
				if ctx.Err() != nil {
					return interrupt(i, ctx.Err())
				}
				logger.Error(fmt.Errorf("failed to get search parameters for %s: %w", target.Kind.ToString(), err).Error())
				kindParams = nil
			}
			params[target.Kind] = kindParams
		}
		if kindParams == nil {
			report.Failed++
			continue
		}

		diff, err := service.RefreshTarget(ctx, target, kindParams)
		if err != nil {
			if ctx.Err() != nil {
				return interrupt(i, ctx.Err())
			}
			report.Checked++
			report.Failed++
			if mtec_api.IsParseError(err) {
				logger.Error("schedule layout not understood, keeping previous snapshot", "target", target.String(), "err", err)
			} else {
				logger.Error("failed to refresh schedule", "target", target.String(), "err", err)
			}
			continue
		}
		report.Checked++
		if !diff.IsEmpty() {
			report.Changed++
		}
	}
	service.resumeAt = entities.Target{}
	logger.Info("schedule check finished", "checked", report.Checked, "changed", report.Changed, "failed", report.Failed)
	return report, nil
}

// rotate starts the cycle at the target an interrupted cycle stopped on, so slow cycles do not starve the tail.
func (service *Service) rotate(stats []entities.TargetStats) []entities.TargetStats {
	if service.resumeAt.IsZero() {
		return stats
	}
	start := slices.IndexFunc(stats, func(stat entities.TargetStats) bool { return stat.Target == service.resumeAt })
	if start <= 0 {
		return stats
	}
	return slices.Concat(stats[start:], stats[:start])
}

// Current returns the stored snapshot of target, fetching and storing it first when there is none.
func (service *Service) Current(ctx context.Context, target entities.Target) (*entities.ScheduleSnapshot, error) {
	snapshot, err := service.snapshots.Get(ctx, target)
	if err == nil {
		return snapshot, nil
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	params, err := service.SearchParameters(ctx, target.Kind)
	if err != nil {
		return nil, err
	}
	snapshot, err = service.FetchSnapshot(ctx, target, params)
	if err != nil {
		return nil, err
	}
	if err := service.store(ctx, snapshot, snapshot.Hash()); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// DailyDigest renders the lessons of target on date. It reports false when the college has not published date yet.
func (service *Service) DailyDigest(ctx context.Context, target entities.Target, date time.Time) (string, bool, error) {
	params, err := service.SearchParameters(ctx, target.Kind)
	if err != nil {
		return "", false, err
	}
	day := datetime.StartOfDay(date)
	published := slices.ContainsFunc(params.Dates, func(published time.Time) bool {
		return datetime.StartOfDay(published).Equal(day)
	})
	if !published {
		return "", false, nil
	}
	snapshot, err := service.Current(ctx, target)
	if err != nil {
		return "", false, err
	}
	lessons := snapshot.ForDate(day)
	if len(lessons) == 0 {
		// the date may have been published after the snapshot was taken
		lessons, err = service.refreshedDay(ctx, target, params, day)
		if err != nil {
			slog.Warn("failed to refresh schedule for the daily digest", "target", target.String(), "err", err)
		}
	}
	return FormatDay(target, day, lessons), true, nil
}

// refreshedDay refreshes target under the cycle lock unless a polling cycle already stored the day.
func (service *Service) refreshedDay(ctx context.Context, target entities.Target, params *mtec_api.SearchParameters, day time.Time) ([]entities.LessonRecord, error) {
	service.cycleMu.Lock()
	defer service.cycleMu.Unlock()

	snapshot, err := service.snapshots.Get(ctx, target)
	if err != nil {
		return nil, err
	}
	if lessons := snapshot.ForDate(day); len(lessons) > 0 {
		return lessons, nil
	}
	if _, err := service.RefreshTarget(ctx, target, params); err != nil {
		return nil, err
	}
	snapshot, err = service.snapshots.Get(ctx, target)
	if err != nil {
		return nil, err
	}
	return snapshot.ForDate(day), nil
}

// DeleteOldSnapshots drops snapshots not refreshed since before.
func (service *Service) DeleteOldSnapshots(ctx context.Context, before time.Time) (int64, error) {
	return service.snapshots.DeleteOlderThan(ctx, before)
}
