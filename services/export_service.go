package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ExportResponse describes a generated confirmation export.
type ExportResponse struct {
	ExportID       string    `json:"export_id"`
	ConfirmationID string    `json:"confirmation_id"`
	Format         string    `json:"format"`
	Filename       string    `json:"filename"`
	SizeBytes      int       `json:"size_bytes"`
	GeneratedAt    time.Time `json:"generated_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	DownloadURL    string    `json:"download_url"`
}

// ExportGenerator renders a completed confirmation into a downloadable
// document.
type ExportGenerator interface {
	Generate(detail *ConfirmationDetail, format string) (*ExportResponse, error)
}

func exportExtension(format string) string {
	if format == "EXCEL" {
		return "xlsx"
	}
	return "pdf"
}

func newExportResponse(confirmationID, format string, size int) *ExportResponse {
	exportID := uuid.NewString()
	now := time.Now().UTC()
	return &ExportResponse{
		ExportID:       exportID,
		ConfirmationID: confirmationID,
		Format:         format,
		Filename: fmt.Sprintf("confirmation_%s_%s.%s",
			confirmationID, now.Format("20060102_150405"), exportExtension(format)),
		SizeBytes:   size,
		GeneratedAt: now,
		ExpiresAt:   now.Add(30 * 24 * time.Hour),
		DownloadURL: fmt.Sprintf("/api/v1/exports/%s/download", exportID),
	}
}

// SimulatedExportGenerator returns export metadata without rendering a
// document. PDF rendering is handled by a downstream reporting service.
type SimulatedExportGenerator struct{}

func (SimulatedExportGenerator) Generate(detail *ConfirmationDetail, format string) (*ExportResponse, error) {
	return newExportResponse(detail.ConfirmationID, format, 512000), nil
}

// ExcelExportGenerator renders EXCEL exports as a real workbook and falls
// back to simulated metadata for other formats.
type ExcelExportGenerator struct{}

func (g ExcelExportGenerator) Generate(detail *ConfirmationDetail, format string) (*ExportResponse, error) {
	if format != "EXCEL" {
		return SimulatedExportGenerator{}.Generate(detail, format)
	}

	data, err := g.render(detail)
	if err != nil {
		return nil, err
	}
	return newExportResponse(detail.ConfirmationID, format, len(data)), nil
}

func (g ExcelExportGenerator) render(detail *ConfirmationDetail) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Confirmation"
	f.SetSheetName(f.GetSheetName(0), sheet)

	confirmedDate := ""
	if detail.ConfirmedDate != nil {
		confirmedDate = detail.ConfirmedDate.String()
	}
	confirmedBy := ""
	if detail.ConfirmedBy != nil {
		confirmedBy = *detail.ConfirmedBy
	}

	header := [][]interface{}{
		{"Protocol", detail.TrialProtocolNumber},
		{"Type", detail.ConfirmationType},
		{"Status", detail.ConfirmationStatus},
		{"Confirmed Date", confirmedDate},
		{"Confirmed By", confirmedBy},
	}
	for i, row := range header {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	columns := []interface{}{"Instance Code", "Platform", "Version", "Validation Status"}
	startRow := len(header) + 2
	cell, _ := excelize.CoordinatesToCellName(1, startRow)
	if err := f.SetSheetRow(sheet, cell, &columns); err != nil {
		return nil, err
	}

	for i, snap := range detail.Snapshots {
		version := ""
		if snap.PlatformVersionAt != nil {
			version = *snap.PlatformVersionAt
		}
		status := ""
		if snap.ValidationStatusAt != nil {
			status = *snap.ValidationStatusAt
		}
		row := []interface{}{snap.InstanceCode, snap.PlatformName, version, status}
		cell, _ := excelize.CoordinatesToCellName(1, startRow+1+i)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
