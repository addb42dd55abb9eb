package model

import "fmt"

// Status values used by the embedded devices.
const (
	StatusOn  = "ON"
	StatusOff = "OFF"

	LidOpen  = "OPEN"
	LidClose = "CLOSE"

	BinActive   = "active"
	BinInactive = "inactive"
)

// BinKey is the composite identity of a bin device: the location it is
// installed at plus its numeric ID within that location.
type BinKey struct {
	Location string
	ID       int
}

// Path returns the hierarchical document path the record is stored under.
func (k BinKey) Path() string {
	return fmt.Sprintf("%s/Bin-%d", k.Location, k.ID)
}

// TrackerKey returns the flat string used to key the liveness table.
func (k BinKey) TrackerKey() string {
	return fmt.Sprintf("%s-%d", k.Location, k.ID)
}

// Bin is the persisted record for a single bin device. It accumulates
// fields across registration, telemetry and heartbeat updates. The
// timestamp fields hold display strings produced by the formatted clock,
// not machine-ordered instants.
type Bin struct {
	Path                 string  `gorm:"primaryKey;size:160" json:"-"`
	BinID                int     `gorm:"column:bin_id;not null" json:"id"`
	Location             string  `gorm:"size:128;not null;index" json:"location"`
	BinType              string  `gorm:"size:64" json:"binType"`
	BinColor             string  `gorm:"size:64" json:"binColor"`
	GeoLocation          string  `gorm:"size:128" json:"geoLocation"`
	Distance             float64 `gorm:"not null" json:"distance"`
	FilledBinPercentage  float64 `gorm:"not null" json:"filledBinPercentage"`
	MaxBinCapacity       float64 `gorm:"not null" json:"maxBinCapacity"`
	MicroProcessorStatus string  `gorm:"size:8;not null" json:"microProcessorStatus"`
	SensorStatus         string  `gorm:"size:8;not null" json:"sensorStatus"`
	BinLidStatus         string  `gorm:"size:8;not null" json:"binLidStatus"`
	BinStatus            string  `gorm:"size:16;not null" json:"binStatus"`
	LastUpdated          string  `gorm:"size:64;not null" json:"lastUpdated"`
	CreatedStamp         string  `gorm:"column:created_stamp;size:64;not null" json:"createdAt"`
	LastMaintenance      string  `gorm:"size:64" json:"lastMaintenance"`
}

// Key reconstructs the bin's identity from the persisted columns.
func (b *Bin) Key() BinKey {
	return BinKey{Location: b.Location, ID: b.BinID}
}
