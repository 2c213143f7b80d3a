package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"fleetconsole/backend/libs/telemetry/models"
)

// SheetName is the worksheet holding exported alerts.
const SheetName = "Alerts"

// ContentType of generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AlertHeader lists exported columns in order.
var AlertHeader = []string{
	"Timestamp",
	"Plate Number",
	"Vehicle ID",
	"Device ID",
	"Type",
	"Description",
	"Speed (km/h)",
	"Accel X",
	"Accel Y",
	"Accel Z",
	"Pitch",
	"Roll",
	"Latitude",
	"Longitude",
}

var columnWidths = []float64{20, 16, 38, 20, 10, 70, 12, 10, 10, 10, 10, 10, 12, 12}

// AlertsWorkbook renders alerts as an xlsx workbook.
func AlertsWorkbook(alerts []models.Alert) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	headerRow := make([]interface{}, len(AlertHeader))
	for i, h := range AlertHeader {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &headerRow); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(AlertHeader))
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", headerStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("style header: %w", err)
	}
	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			f.Close()
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	for i, a := range alerts {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		row := alertRow(a)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func alertRow(a models.Alert) []interface{} {
	timestamp := ""
	if a.Timestamp != nil {
		timestamp = a.Timestamp.UTC().Format(time.DateTime)
	}
	return []interface{}{
		timestamp,
		a.PlateNumber,
		a.VehicleID,
		a.DeviceID,
		string(a.Type),
		a.Description,
		optional(a.Speed),
		optional(a.AccelX),
		optional(a.AccelY),
		optional(a.AccelZ),
		optional(a.Pitch),
		optional(a.Roll),
		a.Latitude,
		a.Longitude,
	}
}

func optional(v *float64) interface{} {
	if f, ok := models.Reading(v); ok {
		return f
	}
	return ""
}
