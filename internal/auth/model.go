package auth

import "time"

type User struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Session struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	TokenHash string    `json:"tokenHash"`
	Bearer    string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}
