package models

import "time"

// Referral records one enrollment made with somebody's referral code.
type Referral struct {
	ID           uint      `json:"-" gorm:"primaryKey"`
	ReferredUser string    `json:"referred_user" gorm:"size:36;not null;uniqueIndex"`
	ReferredBy   string    `json:"referred_by" gorm:"size:36;not null;index"`
	Timestamp    time.Time `json:"timestamp" gorm:"not null"`
	Award        int       `json:"award" gorm:"not null"`
}

// HistoryEntry is one referral as seen by the referrer.
type HistoryEntry struct {
	MaskedEmail string
	Timestamp   time.Time
	Award       int
}

// HistoryEntryResponse keys are alphabetical to match the legacy JSON layout.
// @Description Referral made by the user
type HistoryEntryResponse struct {
	Award     int    `json:"award" example:"100"`
	Email     string `json:"email" example:"j*****e@example.com"`
	Timestamp string `json:"timestamp" example:"Mon, 02 Jan 2006 15:04:05 GMT"`
}
