package handlers

import (
	"context"
	"fmt"
	"time"

	"agrisense.in/backend/config"
	"agrisense.in/backend/models"
	"agrisense.in/backend/pkg/relay"
)

// BrokerSampleStore persists sensor samples that arrive over the MQTT
// relay into the same table the HTTP ingestion path writes.
type BrokerSampleStore struct{}

func (BrokerSampleStore) SaveSample(ctx context.Context, sample *relay.SensorSample) error {
	var farm models.Farm
	if err := config.DB.WithContext(ctx).Where("slug = ?", sample.Farm).First(&farm).Error; err != nil {
		return fmt.Errorf("relay sample for unknown farm %q: %w", sample.Farm, err)
	}

	recordedAt := time.Now()
	if sample.RecordedAt != "" {
		if t, err := time.Parse(time.RFC3339, sample.RecordedAt); err == nil {
			recordedAt = t
		}
	}

	point := models.SensorPoint{
		FarmID:       farm.ID,
		Latitude:     sample.Latitude,
		Longitude:    sample.Longitude,
		Moisture:     sample.Moisture,
		Temperature:  sample.Temperature,
		PH:           sample.PH,
		Conductivity: sample.Conductivity,
		RecordedAt:   models.JSONTime(recordedAt),
	}
	return config.DB.WithContext(ctx).Create(&point).Error
}
