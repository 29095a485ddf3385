package domain

import (
	"strings"
	"time"
	"unicode"
)

// DriverStatus represents the queue status of a driver.
type DriverStatus string

const (
	DriverStatusInactive DriverStatus = "inactive"
	DriverStatusActive   DriverStatus = "active"
	DriverStatusBusy     DriverStatus = "busy"
)

// Valid reports whether s is one of the known statuses.
func (s DriverStatus) Valid() bool {
	switch s {
	case DriverStatusInactive, DriverStatusActive, DriverStatusBusy:
		return true
	}
	return false
}

// Driver represents a delivery driver registered with the restaurant.
//
// Position is meaningful only while Status is active; position 1 is next up.
type Driver struct {
	ID              int64        `json:"id"`
	Name            string       `json:"name"`
	Phone           string       `json:"phone"`
	Status          DriverStatus `json:"status"`
	Position        int          `json:"position"`
	ActiveTime      *time.Time   `json:"activeTime"`
	DeliveriesCount int          `json:"deliveriesCount"`
}

// InQueue reports whether the driver currently holds a queue position.
func (d *Driver) InQueue() bool {
	return d.Status == DriverStatusActive
}

// QueueStats is an aggregate view over all drivers.
type QueueStats struct {
	TotalDrivers  int `json:"totalDrivers"`
	ActiveDrivers int `json:"activeDrivers"`
	BusyDrivers   int `json:"busyDrivers"`
	// DeliveriesToday is the sum of every driver's lifetime delivery count.
	// Counters are never reset on a day boundary.
	DeliveriesToday int `json:"deliveriesToday"`
}

// MinPhoneDigits is the minimum number of digits a phone number must carry.
const MinPhoneDigits = 10

// PhoneDigits strips every non-digit character from phone.
func PhoneDigits(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}

// ValidPhone reports whether phone has at least MinPhoneDigits digits.
func ValidPhone(phone string) bool {
	return len(PhoneDigits(phone)) >= MinPhoneDigits
}

// ValidName reports whether name has at least one non-space character.
func ValidName(name string) bool {
	return strings.IndexFunc(name, func(r rune) bool { return !unicode.IsSpace(r) }) >= 0
}
