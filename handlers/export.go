package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"agrisense.in/backend/config"
	"agrisense.in/backend/middleware"
	"agrisense.in/backend/models"
)

// ExportSensorPointsToExcel streams the farm's readings as an XLSX
// download, honoring the same ?since bound as the list endpoint.
func ExportSensorPointsToExcel(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetFarmSession(r)
	if session == nil {
		http.Error(w, "no farm session", http.StatusUnauthorized)
		return
	}

	query := config.DB.Where("farm_id = ?", session.FarmID)
	if raw := r.URL.Query().Get("since"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			http.Error(w, "since must be a positive duration like 24h", http.StatusBadRequest)
			return
		}
		query = query.Where("recorded_at >= ?", time.Now().Add(-d))
	}

	var points []models.SensorPoint
	if err := query.Order("recorded_at asc").Find(&points).Error; err != nil {
		http.Error(w, "failed to load readings", http.StatusInternalServerError)
		return
	}

	file, err := buildSensorWorkbook(session.FarmSlug, points)
	if err != nil {
		http.Error(w, "failed to generate Excel file", http.StatusInternalServerError)
		return
	}

	buffer, err := file.WriteToBuffer()
	if err != nil {
		http.Error(w, "failed to write Excel file", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("%s_sensor_points_%s.xlsx", session.FarmSlug, time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buffer.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buffer.Bytes())
}

func buildSensorWorkbook(sheet string, points []models.SensorPoint) (*excelize.File, error) {
	file := excelize.NewFile()
	if err := file.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headers := []string{"Recorded At", "Latitude", "Longitude", "Moisture %", "Temperature C", "pH", "EC dS/m"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := file.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for row, p := range points {
		values := []interface{}{
			p.RecordedAt.Time().Format(time.RFC3339),
			p.Latitude,
			p.Longitude,
			optCell(p.Moisture),
			optCell(p.Temperature),
			optCell(p.PH),
			optCell(p.Conductivity),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := file.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	return file, nil
}

// optCell renders a missing reading as an empty cell, not 0.
func optCell(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
