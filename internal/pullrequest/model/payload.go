package model

import "time"

// Actor is the GitHub user behind a webhook.
type Actor struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// Header is shared by every pull request webhook payload.
type Header struct {
	Number        int       `json:"number"          validate:"gt=0"`
	HeadCommitSHA string    `json:"head_commit_sha" validate:"required"`
	Actor         Actor     `json:"actor"`
	OccurredAt    time.Time `json:"occurred_at"     validate:"required"`
}

// CommitPayload is one commit node of a webhook.
type CommitPayload struct {
	SHA         string    `json:"sha"          validate:"required"`
	CommittedAt time.Time `json:"committed_at" validate:"required"`
}

// FilePayload is one changed file of a webhook.
type FilePayload struct {
	Path      string `json:"path"      validate:"required"`
	Status    string `json:"status"    validate:"required"`
	Additions int    `json:"additions" validate:"gte=0"`
	Deletions int    `json:"deletions" validate:"gte=0"`
}

// OpenedPayload is the opened webhook.
type OpenedPayload struct {
	Header
	GithubPullRequestID int64           `json:"github_pull_request_id"`
	Title               string          `json:"title"         validate:"required"`
	Link                string          `json:"link"          validate:"required"`
	Author              string          `json:"author"        validate:"required"`
	Draft               bool            `json:"draft"`
	ChangedFiles        int             `json:"changed_files" validate:"gte=0"`
	Additions           int             `json:"additions"     validate:"gte=0"`
	Deletions           int             `json:"deletions"     validate:"gte=0"`
	CommitCount         int             `json:"commit_count"  validate:"gte=0"`
	Commits             []CommitPayload `json:"commits"       validate:"dive"`
	Files               []FilePayload   `json:"files"         validate:"dive"`
	CreatedAt           time.Time       `json:"created_at"    validate:"required"`
}

// SynchronizePayload is the synchronize webhook. Commits is the full commit list of the pull request.
type SynchronizePayload struct {
	Header
	ChangedFiles int             `json:"changed_files" validate:"gte=0"`
	Additions    int             `json:"additions"     validate:"gte=0"`
	Deletions    int             `json:"deletions"     validate:"gte=0"`
	Commits      []CommitPayload `json:"commits"       validate:"min=1,dive"`
	Files        []FilePayload   `json:"files"         validate:"dive"`
}

// ClosedPayload is the closed webhook.
type ClosedPayload struct {
	Header
	Merged   bool      `json:"merged"`
	ClosedAt time.Time `json:"closed_at" validate:"required"`
}

// StateChangePayload is the converted_to_draft and ready_for_review webhook.
type StateChangePayload struct {
	Header
}
