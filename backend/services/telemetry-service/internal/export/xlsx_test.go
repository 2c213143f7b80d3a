package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"fleetconsole/backend/libs/telemetry/models"
)

func TestAlertsWorkbook(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC)
	data, err := AlertsWorkbook([]models.Alert{
		{
			ID:          "s-1",
			VehicleID:   "veh-1",
			DeviceID:    "dev-a",
			PlateNumber: "123 TU 4567",
			Type:        models.SeverityCritical,
			Description: "Overspeeding: 150 km/h",
			Timestamp:   &ts,
			Speed:       models.Float(150),
			Latitude:    36.8,
			Longitude:   10.18,
		},
		{ID: "s-2", VehicleID: "veh-2", PlateNumber: models.UnknownPlate, Type: models.SeverityInfo, Description: "Speed: unknown"},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, AlertHeader, rows[0])
	assert.Equal(t, "2024-05-01 10:15:00", rows[1][0])
	assert.Equal(t, "123 TU 4567", rows[1][1])
	assert.Equal(t, "critical", rows[1][4])
	assert.Equal(t, "150", rows[1][6])
	assert.Equal(t, "", rows[2][0])
	assert.Equal(t, "Speed: unknown", rows[2][5])
}

func TestAlertsWorkbook_Empty(t *testing.T) {
	data, err := AlertsWorkbook(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
