package domain

import "time"

type User struct {
	ID               string    `json:"id" gorm:"primaryKey"`
	Name             string    `json:"name" gorm:"type:text;not null"`
	Email            string    `json:"email" gorm:"type:text;not null"`
	StripeCustomerID *string   `json:"-" gorm:"type:text"`
	CreatedAt        time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string { return "users" }

// CustomerRef returns the stored payment customer reference, if any.
func (u *User) CustomerRef() string {
	if u == nil || u.StripeCustomerID == nil {
		return ""
	}
	return *u.StripeCustomerID
}
