package sheetsapi

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/entities"
	driveapi "github.com/aCrYoZPS/mtec_schedule_bot/src/google_docs/drive_api"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/mtec_api"
	"github.com/aCrYoZPS/mtec_schedule_bot/src/schedule"
	"google.golang.org/api/sheets/v4"
)

var _ schedule.Exporter = (*SheetsApiService)(nil)

const (
	VALUE_INPUT_OPTION = "RAW"
	MAX_SHEET_TITLE    = 100
)

var headerRow = []any{"День", "Дата", "Пара", "Предмет", "Тип", "Аудитория", "Преподаватель", "Группа"}

// SheetsApiService writes every stored snapshot to its own sheet of one spreadsheet.
type SheetsApiService struct {
	api   *sheets.Service
	drive driveapi.DriveApi
	title string

	mu            sync.Mutex
	spreadsheetId string
	sheetTitles   map[string]bool
}

func NewSheetsApiService(api *sheets.Service, drive driveapi.DriveApi, title string) *SheetsApiService {
	return &SheetsApiService{api: api, drive: drive, title: title}
}

func (serv *SheetsApiService) ExportSnapshot(ctx context.Context, snapshot *entities.ScheduleSnapshot) error {
	serv.mu.Lock()
	defer serv.mu.Unlock()

	spreadsheetId, err := serv.ensureSpreadsheet(ctx)
	if err != nil {
		return err
	}
	title := SheetTitle(snapshot.Target)
	if err := serv.ensureSheet(ctx, spreadsheetId, title); err != nil {
		return err
	}

	sheetRange := quoteSheetTitle(title)
	_, err = serv.api.Spreadsheets.Values.Clear(spreadsheetId, sheetRange, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear sheet %s: %w", title, err)
	}
	values := &sheets.ValueRange{Values: SnapshotRows(snapshot)}
	_, err = serv.api.Spreadsheets.Values.Update(spreadsheetId, sheetRange+"!A1", values).
		ValueInputOption(VALUE_INPUT_OPTION).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write sheet %s: %w", title, err)
	}
	return nil
}

func (serv *SheetsApiService) ensureSpreadsheet(ctx context.Context) (string, error) {
	if serv.spreadsheetId != "" {
		return serv.spreadsheetId, nil
	}
	res, err := serv.drive.FindSpreadsheet(ctx, serv.title)
	if err != nil {
		return "", err
	}
	if res.DoesExist() {
		serv.spreadsheetId = res.SpreadsheetId()
		return serv.spreadsheetId, nil
	}

	newSheet := sheets.Spreadsheet{Properties: &sheets.SpreadsheetProperties{Title: serv.title}}
	created, err := serv.api.Spreadsheets.Create(&newSheet).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create spreadsheet %s: %w", serv.title, err)
	}
	if err := serv.drive.SetSpreadsheetPermissions(ctx, created.SpreadsheetId); err != nil {
		return "", err
	}
	serv.spreadsheetId = created.SpreadsheetId
	return serv.spreadsheetId, nil
}

func (serv *SheetsApiService) ensureSheet(ctx context.Context, spreadsheetId, title string) error {
	if serv.sheetTitles == nil {
		spreadsheet, err := serv.api.Spreadsheets.Get(spreadsheetId).Fields("sheets.properties.title").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to get spreadsheet %s: %w", spreadsheetId, err)
		}
		serv.sheetTitles = map[string]bool{}
		for _, sheet := range spreadsheet.Sheets {
			serv.sheetTitles[sheet.Properties.Title] = true
		}
	}
	if serv.sheetTitles[title] {
		return nil
	}

	update := sheets.BatchUpdateSpreadsheetRequest{Requests: []*sheets.Request{{
		AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: title}},
	}}}
	_, err := serv.api.Spreadsheets.BatchUpdate(spreadsheetId, &update).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to add sheet %s: %w", title, err)
	}
	serv.sheetTitles[title] = true
	return nil
}

// SheetTitle names the sheet of a target. Mentor sheets are marked so that they never clash with groups.
func SheetTitle(target entities.Target) string {
	title := target.Name
	if target.Kind == entities.Mentor {
		title = "👨‍🏫 " + title
	}
	runes := []rune(title)
	if len(runes) > MAX_SHEET_TITLE {
		title = string(runes[:MAX_SHEET_TITLE])
	}
	return title
}

func quoteSheetTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// SnapshotRows lays the snapshot out as a header row followed by one row per lesson.
func SnapshotRows(snapshot *entities.ScheduleSnapshot) [][]any {
	lessons := slices.Clone(snapshot.Lessons)
	slices.SortFunc(lessons, func(a, b entities.LessonRecord) int { return entities.CompareLessons(&a, &b) })

	rows := make([][]any, 0, len(lessons)+1)
	rows = append(rows, headerRow)
	for _, lesson := range lessons {
		date := ""
		if !lesson.Date.IsZero() {
			date = lesson.Date.Format(mtec_api.DATE_FORMAT)
		}
		rows = append(rows, []any{
			entities.DayToName[lesson.Weekday], date, lesson.TimeSlot, lesson.Subject,
			lesson.LessonType, lesson.Room, lesson.Teacher, lesson.GroupId,
		})
	}
	return rows
}
