// Package model provides label entities and the label webhook payload.
package model

import (
	"time"

	pullrequestModel "github.com/festy23/prmetrics/internal/pullrequest/model"
)

// Action is the kind of change recorded in label history.
type Action string

const (
	// ActionAdded records a label being applied.
	ActionAdded Action = "ADDED"
	// ActionRemoved records a label being removed.
	ActionRemoved Action = "REMOVED"
)

// Label is a label currently applied to a pull request.
type Label struct {
	ID            uint      `gorm:"primaryKey;column:id"`
	PullRequestID uint      `gorm:"column:pull_request_id;not null;uniqueIndex:idx_labels_pr_name"`
	Name          string    `gorm:"column:name;type:varchar(255);not null;uniqueIndex:idx_labels_pr_name"`
	AddedAt       time.Time `gorm:"column:added_at;not null"`
}

// TableName specifies the table name for GORM.
func (Label) TableName() string {
	return "labels"
}

// History is one append-only row per applied label change.
type History struct {
	ID            uint      `gorm:"primaryKey;column:id"`
	PullRequestID uint      `gorm:"column:pull_request_id;not null;index:idx_label_histories_pr"`
	Name          string    `gorm:"column:name;type:varchar(255);not null"`
	Action        Action    `gorm:"column:action;type:varchar(16);not null"`
	ChangedAt     time.Time `gorm:"column:changed_at;not null"`
}

// TableName specifies the table name for GORM.
func (History) TableName() string {
	return "label_histories"
}

// Payload is the labeled and unlabeled webhook.
type Payload struct {
	pullrequestModel.Header
	Name string `json:"name" validate:"required,max=255"`
}
