package model

import "time"

// StateHistory is one append-only row per applied state change.
// The creation row has an empty FromState.
type StateHistory struct {
	ID            uint      `gorm:"primaryKey;column:id"`
	PullRequestID uint      `gorm:"column:pull_request_id;not null;index:idx_pr_state_histories_pr"`
	FromState     State     `gorm:"column:from_state;type:varchar(16)"`
	ToState       State     `gorm:"column:to_state;type:varchar(16);not null"`
	ChangedAt     time.Time `gorm:"column:changed_at;not null"`
}

// TableName specifies the table name for GORM.
func (StateHistory) TableName() string {
	return "pull_request_state_histories"
}

// Commit is one commit seen in an opened or synchronize webhook.
type Commit struct {
	ID            uint      `gorm:"primaryKey;column:id"`
	PullRequestID uint      `gorm:"column:pull_request_id;not null;uniqueIndex:idx_pr_commits_pr_sha"`
	SHA           string    `gorm:"column:sha;type:varchar(64);not null;uniqueIndex:idx_pr_commits_pr_sha"`
	CommittedAt   time.Time `gorm:"column:committed_at;not null"`
}

// TableName specifies the table name for GORM.
func (Commit) TableName() string {
	return "pull_request_commits"
}

// FileStatus is the GitHub change type of a file.
type FileStatus string

const (
	// FileAdded is a new file.
	FileAdded FileStatus = "added"
	// FileModified is a changed file.
	FileModified FileStatus = "modified"
	// FileRemoved is a deleted file.
	FileRemoved FileStatus = "removed"
	// FileRenamed is a moved file.
	FileRenamed FileStatus = "renamed"
)

// File is one changed file of the current head.
type File struct {
	ID            uint       `gorm:"primaryKey;column:id"`
	PullRequestID uint       `gorm:"column:pull_request_id;not null;index:idx_pr_files_pr"`
	Path          string     `gorm:"column:path;type:text;not null"`
	Status        FileStatus `gorm:"column:status;type:varchar(16);not null"`
	Additions     int        `gorm:"column:additions;not null;default:0"`
	Deletions     int        `gorm:"column:deletions;not null;default:0"`
}

// TableName specifies the table name for GORM.
func (File) TableName() string {
	return "pull_request_files"
}
