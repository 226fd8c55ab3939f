package models

import "time"

// User is an enrolled participant of the referral program.
// @Description Enrolled user
type User struct {
	ID                  uint      `json:"-" gorm:"primaryKey"`
	FirstName           string    `json:"first_name" gorm:"size:50;not null" validate:"required,max=50"`
	LastName            string    `json:"last_name" gorm:"size:50" validate:"max=50"`
	Email               string    `json:"email" gorm:"size:320;not null;index" validate:"required,max=320"`
	Password            string    `json:"-" gorm:"size:50;not null" validate:"required,max=50"`
	PhoneNumber         string    `json:"phone_number" gorm:"size:10;not null" validate:"required,len=10,numeric"`
	ReferralCode        string    `json:"referral_code" gorm:"size:36;not null;uniqueIndex"`
	HasWithdrawn        bool      `json:"has_withdrawn" gorm:"not null;default:false"`
	SuccessfulReferrals int       `json:"successful_referrals" gorm:"not null;default:0"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// EnrollRequest carries the enrollment parameters; nil means the parameter was not sent.
type EnrollRequest struct {
	FirstName   *string
	LastName    *string
	Email       *string
	Password    *string
	PhoneNumber *string
	ReferredBy  *string
}
