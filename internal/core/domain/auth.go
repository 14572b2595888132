package domain

import "time"

type APIKey struct {
	TokenHash string
	Client    string
	Name      string
	Active    bool
	CreatedAt time.Time
}
