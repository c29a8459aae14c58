package models

import (
	"time"

	"github.com/google/uuid"
)

type ListingStatus string

const (
	ListingActive  ListingStatus = "active"
	ListingExpired ListingStatus = "expired"
	ListingDraft   ListingStatus = "draft"
)

type ListingKind string

const (
	KindJob     ListingKind = "job"
	KindProfile ListingKind = "profile"
)

type JobPosting struct {
	ID            uuid.UUID     `gorm:"type:uuid;primary_key" json:"id"`
	EmployerID    string        `gorm:"type:text;not null;index" json:"employer_id"`
	Title         string        `gorm:"type:text" json:"title"`
	Company       string        `gorm:"type:text" json:"company"`
	Description   string        `gorm:"type:text" json:"description"`
	Skills        string        `gorm:"type:text" json:"skills"`
	WorkMode      string        `gorm:"type:text" json:"work_mode"`
	Status        ListingStatus `gorm:"type:text;not null;index" json:"status"`
	ExpiresAt     time.Time     `gorm:"index" json:"expires_at"`
	WarningSentAt *time.Time    `json:"warning_sent_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (JobPosting) TableName() string {
	return "job_postings"
}

// EmbeddingText is the text a job's search vector is generated from.
func (j *JobPosting) EmbeddingText() string {
	return joinNonEmpty(j.Title, j.Company, j.Skills, j.WorkMode, j.Description)
}

type SeekerProfile struct {
	ID            uuid.UUID     `gorm:"type:uuid;primary_key" json:"id"`
	UserID        string        `gorm:"type:text;not null;uniqueIndex" json:"user_id"`
	Headline      string        `gorm:"type:text" json:"headline"`
	Skills        string        `gorm:"type:text" json:"skills"`
	Summary       string        `gorm:"type:text" json:"summary"`
	Status        ListingStatus `gorm:"type:text;not null;index" json:"status"`
	ExpiresAt     time.Time     `gorm:"index" json:"expires_at"`
	WarningSentAt *time.Time    `json:"warning_sent_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (SeekerProfile) TableName() string {
	return "seeker_profiles"
}

func (p *SeekerProfile) EmbeddingText() string {
	return joinNonEmpty(p.Headline, p.Skills, p.Summary)
}

type ApplicationStatus string

const (
	ApplicationSubmitted   ApplicationStatus = "submitted"
	ApplicationReviewed    ApplicationStatus = "reviewed"
	ApplicationShortlisted ApplicationStatus = "shortlisted"
	ApplicationRejected    ApplicationStatus = "rejected"
)

type Application struct {
	ID        uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	JobID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"job_id"`
	SeekerID  string            `gorm:"type:text;not null;index" json:"seeker_id"`
	Status    ApplicationStatus `gorm:"type:text;not null" json:"status"`
	Stale     bool              `gorm:"not null" json:"stale"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (Application) TableName() string {
	return "applications"
}

// ExpiringListing is a job or profile close to expiry joined with its
// owner's email, used for warning notifications.
type ExpiringListing struct {
	Kind       ListingKind
	ID         uuid.UUID
	Title      string
	OwnerEmail string
	ExpiresAt  time.Time
}

func joinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += p
	}
	return out
}
