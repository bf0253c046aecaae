package assistant

import (
	"strings"
	"time"

	"github.com/kalambet/jobassist/internal/analytics"
	"github.com/kalambet/jobassist/internal/intent"
	"github.com/kalambet/jobassist/internal/storage"
)

// AnonymousPrefix marks subject ids derived from a network address rather
// than a signed-in user.
const AnonymousPrefix = "anon:"

// Subject is the authenticated caller.
type Subject struct {
	ID   string
	Role string
}

// Anonymous reports whether the subject is keyed by address only. Such an
// id may be shared by many people behind one host.
func (s Subject) Anonymous() bool {
	return strings.HasPrefix(s.ID, AnonymousPrefix)
}

// HasRole reports whether the subject holds one of roles, ignoring case.
func (s Subject) HasRole(roles ...string) bool {
	for _, r := range roles {
		if strings.EqualFold(s.Role, r) {
			return true
		}
	}
	return false
}

// Reply is the answer to one chat message. Data holds the intent's payload:
// []JobView, []MatchScore, []CandidateView, TrendReport,
// analytics.SalaryStats, analytics.ApplicationStats or []string.
type Reply struct {
	Intent   intent.Intent   `json:"intent"`
	Message  string          `json:"message"`
	Data     any             `json:"data,omitempty"`
	Metadata intent.Metadata `json:"metadata,omitempty"`
}

// JobView is the public shape of a posting.
type JobView struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Company         string    `json:"company,omitempty"`
	Description     string    `json:"description,omitempty"`
	Location        string    `json:"location,omitempty"`
	JobType         string    `json:"jobType,omitempty"`
	ExperienceLevel string    `json:"experienceLevel,omitempty"`
	SalaryMin       float64   `json:"salaryMin,omitempty"`
	SalaryMax       float64   `json:"salaryMax,omitempty"`
	Currency        string    `json:"currency,omitempty"`
	Skills          []string  `json:"skills,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// JobViews converts postings to their public shape.
func JobViews(jobs []storage.Job) []JobView {
	out := make([]JobView, len(jobs))
	for i, j := range jobs {
		out[i] = JobView{
			ID:              j.ID,
			Title:           j.Title,
			Company:         j.Company,
			Description:     j.Description,
			Location:        j.Location,
			JobType:         j.JobType,
			ExperienceLevel: j.ExperienceLevel,
			SalaryMin:       j.SalaryMin,
			SalaryMax:       j.SalaryMax,
			Currency:        j.Currency,
			Skills:          j.Skills,
			CreatedAt:       j.CreatedAt,
		}
	}
	return out
}

// MatchScore is the similarity of the subject's default resume to one posting.
type MatchScore struct {
	JobID      string `json:"jobId"`
	JobTitle   string `json:"jobTitle"`
	MatchScore int    `json:"matchScore"`
}

// CandidateView is the public shape of an applicant account.
type CandidateView struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Location string   `json:"location,omitempty"`
	Skills   []string `json:"skills,omitempty"`
}

// TrendReport lists the most requested skills, most frequent first.
type TrendReport struct {
	Trends []string               `json:"trends"`
	Counts []analytics.SkillCount `json:"counts"`
}
