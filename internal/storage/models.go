package storage

import (
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Account roles as stored in users.role.
const (
	RoleApplicant = "applicant"
	RoleEmployer  = "employer"
	RoleAdmin     = "admin"
)

// Application statuses.
const (
	StatusPending     = "pending"
	StatusShortlisted = "shortlisted"
	StatusRejected    = "rejected"
	StatusHired       = "hired"
	StatusWithdrawn   = "withdrawn"
)

// JobStatusActive marks a posting that is open for applications.
const JobStatusActive = "active"

type User struct {
	ID        string
	Name      string
	Email     string
	Role      string
	Skills    []string
	Location  string
	CreatedAt time.Time
}

type Job struct {
	ID              string
	Title           string
	Company         string
	Description     string
	Requirements    string
	Location        string
	JobType         string
	ExperienceLevel string
	SalaryMin       float64
	SalaryMax       float64
	Currency        string
	Category        string
	Skills          []string
	Status          string
	CreatedAt       time.Time
	Embedding       []float32 // nil until precomputed
}

// EmbeddingText is the text a posting is embedded from.
func (j Job) EmbeddingText() string {
	if d := strings.TrimSpace(j.Description); d != "" {
		return d
	}
	return j.Title
}

// ParsedResume is the structured content extracted from a resume file.
type ParsedResume struct {
	Summary        string   `json:"summary,omitempty" yaml:"summary"`
	Skills         []string `json:"skills,omitempty" yaml:"skills"`
	Experience     []string `json:"experience,omitempty" yaml:"experience"`
	Education      []string `json:"education,omitempty" yaml:"education"`
	Certifications []string `json:"certifications,omitempty" yaml:"certifications"`
}

func (p *ParsedResume) empty() bool {
	return p == nil || (p.Summary == "" && len(p.Skills) == 0 && len(p.Experience) == 0 &&
		len(p.Education) == 0 && len(p.Certifications) == 0)
}

type Resume struct {
	ID        string
	UserID    string
	FileName  string
	FileURL   string
	IsDefault bool
	Parsed    *ParsedResume // nil when the file has not been parsed
	CreatedAt time.Time
	Embedding []float32
}

// HasParsedData reports whether structured content was extracted.
func (r Resume) HasParsedData() bool {
	return !r.Parsed.empty()
}

// Content renders the parsed resume as a condensed text block. Falls back to
// "File: <name>" when nothing was parsed.
func (r Resume) Content() string {
	if !r.HasParsedData() {
		return "File: " + r.FileName
	}
	p := r.Parsed
	var parts []string
	if p.Summary != "" {
		parts = append(parts, "Summary: "+p.Summary)
	}
	if len(p.Skills) > 0 {
		parts = append(parts, "Skills: "+strings.Join(p.Skills, ", "))
	}
	if len(p.Experience) > 0 {
		parts = append(parts, "Experience: "+strings.Join(p.Experience, "; "))
	}
	if len(p.Education) > 0 {
		parts = append(parts, "Education: "+strings.Join(p.Education, "; "))
	}
	if len(p.Certifications) > 0 {
		parts = append(parts, "Certifications: "+strings.Join(p.Certifications, "; "))
	}
	return strings.Join(parts, "\n")
}

type Application struct {
	ID          string
	JobID       string
	ApplicantID string
	Status      string
	AppliedAt   time.Time
	MatchScore  float64
}

// ApplicationView is an application joined with its posting's title.
type ApplicationView struct {
	Application
	JobTitle string
}

type EmbeddingRecord struct {
	ContentHash string
	Vector      []float32
	SourceID    string
	CreatedAt   time.Time
}

type ChatTurn struct {
	ID           string
	UserID       string
	Role         string
	Input        string
	Output       string
	Intent       string
	MetadataJSON string
	LatencyMs    int64
	Success      bool
	Error        string
	CreatedAt    time.Time
}

type Task struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string // "pending", "running", "completed", "failed"
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}
