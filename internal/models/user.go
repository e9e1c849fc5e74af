package models

import "time"

type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Phone         *string   `json:"phone,omitempty"`
	AccountNumber string    `json:"account_number"`
	IsBlacklisted bool      `json:"karma_is_blacklisted"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type UserDraft struct {
	Email     string
	FirstName string
	LastName  string
	Phone     *string
}
