package models

// Milestone is an admin-defined award for reaching a number of successful referrals.
type Milestone struct {
	ID            uint `json:"-" gorm:"primaryKey"`
	ReferralCount int  `json:"referral_count" gorm:"not null;uniqueIndex"`
	Award         int  `json:"award" gorm:"not null"`
}

type MilestoneStatus struct {
	ReferralCount int
	Award         int
	Achieved      bool
}

// MilestoneResponse keys are alphabetical to match the legacy JSON layout.
// @Description Milestone with the caller's achievement flag
type MilestoneResponse struct {
	Achieved      string `json:"achieved" example:"Yes" enums:"Yes,No"`
	Award         int    `json:"award" example:"100"`
	ReferralCount int    `json:"referral_count" example:"5"`
}
