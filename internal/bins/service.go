package bins

import (
	"context"
	"errors"
	"fmt"

	"bin-status-backend/internal/clock"
	"bin-status-backend/internal/liveness"
	"bin-status-backend/internal/model"
	"bin-status-backend/internal/store"
)

// ErrBinNotFound is returned when a telemetry or heartbeat update names
// a device that was never registered. Telemetry implies a device only
// exists after explicit registration; these updates never create a
// record.
var ErrBinNotFound = errors.New("bin not registered")

// RegisterRequest carries the metadata fields of a registration. On
// re-registration, nil pointer fields leave the existing value alone.
type RegisterRequest struct {
	BinType         *string  `json:"binType"`
	BinColor        *string  `json:"binColor"`
	GeoLocation     *string  `json:"geoLocation"`
	MaxBinCapacity  *float64 `json:"maxBinCapacity"`
	LastMaintenance *string  `json:"lastMaintenance"`
}

// TelemetryUpdate carries a partial telemetry report. Nil fields are
// absent from the update and must not disturb the persisted value.
type TelemetryUpdate struct {
	Distance             *float64 `json:"distance"`
	FilledBinPercentage  *float64 `json:"filledBinPercentage"`
	MaxBinCapacity       *float64 `json:"maxBinCapacity"`
	MicroProcessorStatus *string  `json:"microProcessorStatus"`
	SensorStatus         *string  `json:"sensorStatus"`
	BinLidStatus         *string  `json:"binLidStatus"`
	BinStatus            *string  `json:"binStatus"`
}

// Service merges incoming partial updates into persisted bin records and
// feeds sightings to the liveness tracker.
type Service struct {
	store   store.Store
	clock   clock.Clock
	tracker *liveness.Tracker
}

// NewService creates a bin service.
func NewService(s store.Store, clk clock.Clock, tracker *liveness.Tracker) *Service {
	return &Service{store: s, clock: clk, tracker: tracker}
}

// Register creates the record for a new device, or merges metadata into
// an existing one. First registration defaults every telemetry field:
// the device is inactive with everything OFF until it reports.
func (s *Service) Register(ctx context.Context, key model.BinKey, req RegisterRequest) (*model.Bin, error) {
	existing, err := s.store.Get(ctx, key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	var bin *model.Bin
	if existing == nil {
		bin = newRecord(key, req, s.clock.Stamp())
	} else {
		bin = mergeMetadata(existing, req, s.clock.Stamp())
	}

	if err := s.store.Set(ctx, bin); err != nil {
		return nil, err
	}
	return bin, nil
}

// ApplyTelemetry merges a telemetry report into the device's record and
// records a telemetry sighting. Unregistered devices are a not-found
// failure with no store write.
func (s *Service) ApplyTelemetry(ctx context.Context, key model.BinKey, update TelemetryUpdate) (*model.Bin, error) {
	existing, err := s.store.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("telemetry for %s: %w", key.Path(), ErrBinNotFound)
	}
	if err != nil {
		return nil, err
	}

	bin := mergeTelemetry(existing, update, s.clock.Stamp())
	if err := s.store.Set(ctx, bin); err != nil {
		return nil, err
	}

	s.tracker.Sighting(key, liveness.ChannelTelemetry)
	return bin, nil
}

// ApplyHeartbeat patches the device's processor status and records a
// heartbeat sighting. The write is a merge-patch touching only the
// status and lastUpdated columns.
func (s *Service) ApplyHeartbeat(ctx context.Context, key model.BinKey, microProcessorStatus string) error {
	err := s.store.Update(ctx, key, map[string]any{
		"micro_processor_status": microProcessorStatus,
		"last_updated":           s.clock.Stamp(),
	})
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("heartbeat for %s: %w", key.Path(), ErrBinNotFound)
	}
	if err != nil {
		return err
	}

	s.tracker.Sighting(key, liveness.ChannelHeartbeat)
	return nil
}

// MarkOffline patches a silent device's record: processor and sensor
// both OFF, lastUpdated refreshed. Called by the offline sweep, once
// per transition.
func (s *Service) MarkOffline(ctx context.Context, key model.BinKey) error {
	return s.store.Update(ctx, key, map[string]any{
		"micro_processor_status": model.StatusOff,
		"sensor_status":          model.StatusOff,
		"last_updated":           s.clock.Stamp(),
	})
}

// Get returns the persisted record for a device.
func (s *Service) Get(ctx context.Context, key model.BinKey) (*model.Bin, error) {
	bin, err := s.store.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrBinNotFound
	}
	return bin, err
}

// List returns the persisted records for one location, or all records
// when location is empty.
func (s *Service) List(ctx context.Context, location string) ([]model.Bin, error) {
	if location == "" {
		return s.store.ListAll(ctx)
	}
	return s.store.List(ctx, location)
}

// Online reports the tracker's current view of the device.
func (s *Service) Online(key model.BinKey) (bool, bool) {
	return s.tracker.Online(key)
}
