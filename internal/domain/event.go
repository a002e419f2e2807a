package domain

import "time"

// AchievementEvent asks the achievement worker to re-evaluate a user after
// their collection changed.
type AchievementEvent struct {
	UserID     int64     `json:"userId"`
	Username   string    `json:"username"`
	RecordType string    `json:"recordType"`
	Action     string    `json:"action"`
	Count      int       `json:"count"`
	At         time.Time `json:"at"`
}

const (
	ActionAdd    = "add"
	ActionUpdate = "update"
	ActionDelete = "delete"
)
