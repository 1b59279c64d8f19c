// Package model provides the project entity that owns webhook API keys.
package model

import "time"

// Project is a registered repository whose webhooks are ingested.
type Project struct {
	ID            uint      `gorm:"primaryKey;column:id"                                           json:"id"`
	UserID        string    `gorm:"column:user_id;type:varchar(255);not null;index:idx_projects_user_id" json:"user_id"`
	Name          string    `gorm:"column:name;type:varchar(255);not null"                         json:"name"`
	APIKey        string    `gorm:"column:api_key;type:varchar(255);not null;uniqueIndex"          json:"-"`
	WebhookSecret string    `gorm:"column:webhook_secret;type:varchar(255)"                        json:"-"`
	TimeZone      string    `gorm:"column:time_zone;type:varchar(64);not null;default:UTC"         json:"time_zone"`
	CreatedAt     time.Time `gorm:"column:created_at;not null"                                     json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Project) TableName() string {
	return "projects"
}

// Location returns the project's time zone, UTC when unset or unknown.
func (p Project) Location() *time.Location {
	if p.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
