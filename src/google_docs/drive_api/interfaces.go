package driveapi

import "context"

type SpreadsheetResult struct {
	doesExist     bool
	spreadsheetId string
}

func (res *SpreadsheetResult) DoesExist() bool {
	return res.doesExist
}

func (res *SpreadsheetResult) SpreadsheetId() string {
	return res.spreadsheetId
}

type DriveApi interface {
	FindSpreadsheet(ctx context.Context, title string) (SpreadsheetResult, error)
	SetSpreadsheetPermissions(ctx context.Context, spreadsheetId string) error
}
