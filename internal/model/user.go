package model

import "time"

type User struct {
	ID              string    `json:"id"`
	Subject         string    `json:"subject"` // identity provider subject claim
	Email           string    `json:"email"`
	Nickname        string    `json:"nickname"`
	ProfileImageURL string    `json:"profile_image_url"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
