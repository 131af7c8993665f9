package driveapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
)

var _ DriveApi = (*DriveApiService)(nil)

type DriveApiService struct {
	api *drive.Service
}

func NewDriveApiService(api *drive.Service) *DriveApiService {
	return &DriveApiService{api: api}
}

const SHEETS_MIME_TYPE = "application/vnd.google-apps.spreadsheet"

// SpreadsheetQuery is the Drive search expression for a spreadsheet with the given title.
func SpreadsheetQuery(title string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(title)
	return fmt.Sprintf("mimeType='%s' and name='%s' and trashed=false", SHEETS_MIME_TYPE, escaped)
}

var errFound = errors.New("spreadsheet found")

// FindSpreadsheet walks the matching files page by page and stops at the first exact title match.
func (serv *DriveApiService) FindSpreadsheet(ctx context.Context, title string) (SpreadsheetResult, error) {
	var result SpreadsheetResult
	call := serv.api.Files.List().Q(SpreadsheetQuery(title)).Fields("nextPageToken, files(id, name, mimeType)")
	err := call.Pages(ctx, func(page *drive.FileList) error {
		for _, file := range page.Files {
			if file.MimeType == SHEETS_MIME_TYPE && file.Name == title {
				result = SpreadsheetResult{doesExist: true, spreadsheetId: file.Id}
				return errFound
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errFound) {
		return SpreadsheetResult{}, fmt.Errorf("failed to list spreadsheets: %w", err)
	}
	return result, nil
}

func (serv *DriveApiService) SetSpreadsheetPermissions(ctx context.Context, spreadsheetId string) error {
	_, err := serv.api.Permissions.Create(spreadsheetId, &drive.Permission{Type: "anyone", Role: "reader"}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to set spreadsheet permissions: %w", err)
	}
	return nil
}
