package bins

import "bin-status-backend/internal/model"

// newRecord builds the initial record for a first-time registration.
// Telemetry fields are defaulted; the device only reports real values
// once it comes online.
func newRecord(key model.BinKey, req RegisterRequest, stamp string) *model.Bin {
	bin := &model.Bin{
		Path:                 key.Path(),
		BinID:                key.ID,
		Location:             key.Location,
		Distance:             0,
		FilledBinPercentage:  0,
		MaxBinCapacity:       0,
		MicroProcessorStatus: model.StatusOff,
		SensorStatus:         model.StatusOff,
		BinLidStatus:         model.LidClose,
		BinStatus:            model.BinInactive,
		LastUpdated:          stamp,
		CreatedStamp:         stamp,
		LastMaintenance:      "",
	}
	applyMetadata(bin, req)
	return bin
}

// mergeMetadata applies a re-registration to an existing record. Only
// the metadata fields present in the request change; telemetry fields
// and createdAt survive untouched.
func mergeMetadata(existing *model.Bin, req RegisterRequest, stamp string) *model.Bin {
	merged := *existing
	applyMetadata(&merged, req)
	merged.LastUpdated = stamp
	return &merged
}

func applyMetadata(bin *model.Bin, req RegisterRequest) {
	if req.BinType != nil {
		bin.BinType = *req.BinType
	}
	if req.BinColor != nil {
		bin.BinColor = *req.BinColor
	}
	if req.GeoLocation != nil {
		bin.GeoLocation = *req.GeoLocation
	}
	if req.MaxBinCapacity != nil {
		bin.MaxBinCapacity = *req.MaxBinCapacity
	}
	if req.LastMaintenance != nil {
		bin.LastMaintenance = *req.LastMaintenance
	}
}

// mergeTelemetry produces the record to persist after a telemetry
// report: every field present in the update overwrites, every absent
// field keeps its previous value, and lastUpdated is refreshed.
func mergeTelemetry(existing *model.Bin, update TelemetryUpdate, stamp string) *model.Bin {
	merged := *existing
	if update.Distance != nil {
		merged.Distance = *update.Distance
	}
	if update.FilledBinPercentage != nil {
		merged.FilledBinPercentage = *update.FilledBinPercentage
	}
	if update.MaxBinCapacity != nil {
		merged.MaxBinCapacity = *update.MaxBinCapacity
	}
	if update.MicroProcessorStatus != nil {
		merged.MicroProcessorStatus = *update.MicroProcessorStatus
	}
	if update.SensorStatus != nil {
		merged.SensorStatus = *update.SensorStatus
	}
	if update.BinLidStatus != nil {
		merged.BinLidStatus = *update.BinLidStatus
	}
	if update.BinStatus != nil {
		merged.BinStatus = *update.BinStatus
	}
	merged.LastUpdated = stamp
	return &merged
}
