package view

import (
	"time"

	"electoral-app/internal/models"
)

// Location is the time zone dates are displayed in
var Location = time.Local

// FormatDate formats ts as dd/mm/yyyy, "" for a zero time
func FormatDate(ts models.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.In(Location).Format("02/01/2006")
}

// FormatDateTime formats ts as dd/mm/yyyy hh:mm
func FormatDateTime(ts models.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.In(Location).Format("02/01/2006 15:04")
}
