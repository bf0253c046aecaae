package ingest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kalambet/jobassist/internal/storage"
)

// Fixture is a YAML seed file for a demo portal.
type Fixture struct {
	Users        []FixtureUser        `yaml:"users"`
	Jobs         []FixtureJob         `yaml:"jobs"`
	Resumes      []FixtureResume      `yaml:"resumes"`
	Applications []FixtureApplication `yaml:"applications"`
}

type FixtureUser struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Email    string   `yaml:"email"`
	Role     string   `yaml:"role"`
	Skills   []string `yaml:"skills"`
	Location string   `yaml:"location"`
}

type FixtureJob struct {
	ID              string    `yaml:"id"`
	Title           string    `yaml:"title"`
	Company         string    `yaml:"company"`
	Description     string    `yaml:"description"`
	Requirements    string    `yaml:"requirements"`
	Location        string    `yaml:"location"`
	JobType         string    `yaml:"job_type"`
	ExperienceLevel string    `yaml:"experience_level"`
	SalaryMin       float64   `yaml:"salary_min"`
	SalaryMax       float64   `yaml:"salary_max"`
	Currency        string    `yaml:"currency"`
	Category        string    `yaml:"category"`
	Skills          []string  `yaml:"skills"`
	Status          string    `yaml:"status"`
	PostedAt        time.Time `yaml:"posted_at"`
}

type FixtureResume struct {
	ID        string                `yaml:"id"`
	UserID    string                `yaml:"user_id"`
	FileName  string                `yaml:"file_name"`
	IsDefault bool                  `yaml:"default"`
	Parsed    *storage.ParsedResume `yaml:"parsed"`
}

type FixtureApplication struct {
	ID          string    `yaml:"id"`
	JobID       string    `yaml:"job_id"`
	ApplicantID string    `yaml:"applicant_id"`
	Status      string    `yaml:"status"`
	AppliedAt   time.Time `yaml:"applied_at"`
}

// LoadFixture reads a YAML fixture from path.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes a YAML fixture. Unknown keys are rejected.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return &f, nil
}

// SeedStats counts the records written by Seed.
type SeedStats struct {
	Users        int
	Jobs         int
	Resumes      int
	Applications int
}

// Seed writes every record of f. Jobs and resumes go through AddJob and
// AddResume so their embeddings are scheduled.
func (c *Catalog) Seed(ctx context.Context, f *Fixture) (SeedStats, error) {
	var st SeedStats
	now := c.now().UTC()

	for _, u := range f.Users {
		err := c.store.SaveUser(ctx, storage.User{
			ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role,
			Skills: u.Skills, Location: u.Location, CreatedAt: now,
		})
		if err != nil {
			return st, fmt.Errorf("seeding user %s: %w", u.ID, err)
		}
		st.Users++
	}

	for _, j := range f.Jobs {
		_, err := c.AddJob(ctx, storage.Job{
			ID: j.ID, Title: j.Title, Company: j.Company, Description: j.Description,
			Requirements: j.Requirements, Location: j.Location, JobType: j.JobType,
			ExperienceLevel: j.ExperienceLevel, SalaryMin: j.SalaryMin, SalaryMax: j.SalaryMax,
			Currency: j.Currency, Category: j.Category, Skills: j.Skills, Status: j.Status,
			CreatedAt: j.PostedAt,
		})
		if err != nil {
			return st, fmt.Errorf("seeding job %s: %w", j.ID, err)
		}
		st.Jobs++
	}

	for _, r := range f.Resumes {
		_, err := c.AddResume(ctx, storage.Resume{
			ID: r.ID, UserID: r.UserID, FileName: r.FileName, IsDefault: r.IsDefault, Parsed: r.Parsed,
		})
		if err != nil {
			return st, fmt.Errorf("seeding resume %s: %w", r.ID, err)
		}
		st.Resumes++
	}

	for _, a := range f.Applications {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		applied := a.AppliedAt
		if applied.IsZero() {
			applied = now
		}
		err := c.store.SaveApplication(ctx, storage.Application{
			ID: a.ID, JobID: a.JobID, ApplicantID: a.ApplicantID, Status: a.Status, AppliedAt: applied,
		})
		if err != nil {
			return st, fmt.Errorf("seeding application %s: %w", a.ID, err)
		}
		st.Applications++
	}

	c.log.Info("fixture seeded",
		zap.Int("users", st.Users),
		zap.Int("jobs", st.Jobs),
		zap.Int("resumes", st.Resumes),
		zap.Int("applications", st.Applications),
	)
	return st, nil
}
