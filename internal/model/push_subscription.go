package model

import "time"

// PushSubscription holds a browser push subscription for offline alerts.
// A subscription is scoped to a location: its owner is alerted whenever
// any bin at that location goes offline.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey" json:"endpoint"`
	P256DH    string    `gorm:"column:p256dh;not null" json:"p256dh"`
	Auth      string    `gorm:"not null" json:"auth"`
	Location  string    `gorm:"size:128;not null;index" json:"location"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
}
