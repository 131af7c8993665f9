package ioc

import (
	"net/http"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/dispatcher"
	google_docs_auth "github.com/aCrYoZPS/mtec_schedule_bot/src/google_docs/auth"
	driveapi "github.com/aCrYoZPS/mtec_schedule_bot/src/google_docs/drive_api"
	sheetsapi "github.com/aCrYoZPS/mtec_schedule_bot/src/google_docs/sheets_api"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/logging"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/mtec_api"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/schedule"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var useGoogleClient = provider(
	func(c *Container) *http.Client {
		client, err := google_docs_auth.GetClient(c.ctx, c.cfg.GoogleCredentialsFile, c.cfg.GoogleTokenFile, google_docs_auth.TerminalPrompt())
		if err != nil {
			logging.FatalLog(err.Error())
		}
		return client
	},
)

var useSheetsApi = provider(
	func(c *Container) *sheets.Service {
		srv, err := sheets.NewService(c.ctx, option.WithHTTPClient(useGoogleClient(c)))
		if err != nil {
			logging.FatalLog(err.Error())
		}
		return srv
	},
)

var useDriveApi = provider(
	func(c *Container) *drive.Service {
		srv, err := drive.NewService(c.ctx, option.WithHTTPClient(useGoogleClient(c)))
		if err != nil {
			logging.FatalLog(err.Error())
		}
		return srv
	},
)

var useDriveApiService = provider(
	func(c *Container) *driveapi.DriveApiService {
		return driveapi.NewDriveApiService(useDriveApi(c))
	},
)

var useSheetsApiService = provider(
	func(c *Container) *sheetsapi.SheetsApiService {
		return sheetsapi.NewSheetsApiService(useSheetsApi(c), useDriveApiService(c), c.cfg.SpreadsheetTitle)
	},
)

var useFetcher = provider(
	func(c *Container) *mtec_api.Fetcher {
		return mtec_api.NewFetcher(c.cfg.ScheduleURL, c.cfg.ScheduleReferer, c.cfg.RequestTimeout)
	},
)

var useParser = provider(
	func(c *Container) *mtec_api.Parser {
		return mtec_api.NewParser(c.cfg.Location)
	},
)

var useDispatcher = provider(
	func(c *Container) *dispatcher.Dispatcher {
		return dispatcher.NewDispatcher(useTgBot(c), useSubscribersRepository(c),
			dispatcher.WithConcurrency(c.cfg.SendConcurrency), dispatcher.WithRetries(c.cfg.SendRetries))
	},
)

var useScheduleService = provider(
	func(c *Container) *schedule.Service {
		opts := []func(*schedule.Service){
			schedule.WithRetry(c.cfg.FetchRetries, c.cfg.FetchRetryDelay),
			schedule.WithNightWindow(c.cfg.NightStart, c.cfg.NightEnd, c.cfg.NightInterval),
		}
		if hashes := useHashCache(c); hashes != nil {
			opts = append(opts, schedule.WithHashCache(hashes))
		}
		if c.cfg.SheetsEnabled {
			opts = append(opts, schedule.WithExporter(useSheetsApiService(c)))
		}
		return schedule.NewService(useFetcher(c), useParser(c), useSnapshotsRepository(c), useSubscribersRepository(c),
			useDispatcher(c), c.cfg.Location, opts...)
	},
)
