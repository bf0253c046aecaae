package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// --- Users ---

func (s *Store) SaveUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, role, skills, location, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, email = excluded.email,
			role = excluded.role, skills = excluded.skills, location = excluded.location`,
		u.ID, u.Name, u.Email, u.Role, encodeStrings(u.Skills), u.Location, formatTime(u.CreatedAt),
	)
	return err
}

const userColumns = `id, name, email, role, skills, location, created_at`

func scanUser(sc scanner) (User, error) {
	var u User
	var skills, createdAt string
	if err := sc.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &skills, &u.Location, &createdAt); err != nil {
		return User{}, err
	}
	var err error
	if u.Skills, err = decodeStrings(skills); err != nil {
		return User{}, err
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return User{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// UsersByRole returns accounts with the given role, oldest first.
func (s *Store) UsersByRole(ctx context.Context, role string) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE role = ? ORDER BY created_at ASC`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// --- Postings ---

func (s *Store) SaveJob(ctx context.Context, j Job) error {
	status := j.Status
	if status == "" {
		status = JobStatusActive
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO postings (id, title, company, description, requirements, location, job_type, experience_level,
			salary_min, salary_max, currency, category, skills, status, created_at, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.Title, j.Company, j.Description, j.Requirements, j.Location, j.JobType, j.ExperienceLevel,
		j.SalaryMin, j.SalaryMax, j.Currency, j.Category, encodeStrings(j.Skills), status,
		formatTime(j.CreatedAt), vectorArg(j.Embedding),
	)
	return err
}

const jobColumns = `id, title, company, description, requirements, location, job_type, experience_level,
	salary_min, salary_max, currency, category, skills, status, created_at, embedding`

func scanJob(sc scanner) (Job, error) {
	var j Job
	var skills, createdAt string
	var blob []byte
	if err := sc.Scan(&j.ID, &j.Title, &j.Company, &j.Description, &j.Requirements, &j.Location, &j.JobType,
		&j.ExperienceLevel, &j.SalaryMin, &j.SalaryMax, &j.Currency, &j.Category, &skills, &j.Status,
		&createdAt, &blob); err != nil {
		return Job{}, err
	}
	var err error
	if j.Skills, err = decodeStrings(skills); err != nil {
		return Job{}, err
	}
	if j.CreatedAt, err = parseTime(createdAt); err != nil {
		return Job{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if j.Embedding, err = decodeFloat32s(blob); err != nil {
		return Job{}, fmt.Errorf("decoding embedding for %s: %w", j.ID, err)
	}
	return j, nil
}

func (s *Store) queryJobs(ctx context.Context, query string, args ...any) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (s *Store) GetJob(ctx context.Context, id string) (Job, error) {
	j, err := scanJob(s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM postings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	return j, err
}

// ActiveJobs returns active postings newest first. limit <= 0 means no limit.
func (s *Store) ActiveJobs(ctx context.Context, limit int) ([]Job, error) {
	return s.queryJobs(ctx, `SELECT `+jobColumns+` FROM postings
		WHERE status = ? ORDER BY created_at DESC LIMIT ?`, JobStatusActive, sqlLimit(limit))
}

// JobsByLocation returns active postings whose location contains location
// (case-insensitive), newest first.
func (s *Store) JobsByLocation(ctx context.Context, location string, limit int) ([]Job, error) {
	return s.queryJobs(ctx, `SELECT `+jobColumns+` FROM postings
		WHERE status = ? AND location LIKE ? ESCAPE '\' ORDER BY created_at DESC LIMIT ?`,
		JobStatusActive, likePattern(location), sqlLimit(limit))
}

// JobsByType returns active postings of the given job type (case-insensitive), newest first.
func (s *Store) JobsByType(ctx context.Context, jobType string, limit int) ([]Job, error) {
	return s.queryJobs(ctx, `SELECT `+jobColumns+` FROM postings
		WHERE status = ? AND job_type = ? COLLATE NOCASE ORDER BY created_at DESC LIMIT ?`,
		JobStatusActive, jobType, sqlLimit(limit))
}

// JobsByFilters applies both the location and job type constraints.
func (s *Store) JobsByFilters(ctx context.Context, location, jobType string, limit int) ([]Job, error) {
	return s.queryJobs(ctx, `SELECT `+jobColumns+` FROM postings
		WHERE status = ? AND location LIKE ? ESCAPE '\' AND job_type = ? COLLATE NOCASE
		ORDER BY created_at DESC LIMIT ?`,
		JobStatusActive, likePattern(location), jobType, sqlLimit(limit))
}

// AllJobs returns every posting regardless of status, oldest first.
func (s *Store) AllJobs(ctx context.Context) ([]Job, error) {
	return s.queryJobs(ctx, `SELECT `+jobColumns+` FROM postings ORDER BY created_at ASC`)
}

// ActiveJobsWithEmbedding returns active postings that have a precomputed
// embedding, oldest first so iteration order is stable.
func (s *Store) ActiveJobsWithEmbedding(ctx context.Context) ([]Job, error) {
	return s.queryJobs(ctx, `SELECT `+jobColumns+` FROM postings
		WHERE status = ? AND embedding IS NOT NULL ORDER BY created_at ASC, id ASC`, JobStatusActive)
}

func (s *Store) SetJobEmbedding(ctx context.Context, id string, vec []float32) error {
	return s.setEmbedding(ctx, "postings", id, vec)
}

// --- Resumes ---

// SaveResume stores a resume. A default resume clears the default flag on the
// user's other resumes.
func (s *Store) SaveResume(ctx context.Context, r Resume) error {
	var parsed sql.NullString
	if r.Parsed != nil {
		b, err := json.Marshal(r.Parsed)
		if err != nil {
			return fmt.Errorf("marshaling parsed data: %w", err)
		}
		parsed = sql.NullString{String: string(b), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning resume transaction: %w", err)
	}
	defer tx.Rollback()

	if r.IsDefault {
		if _, err := tx.ExecContext(ctx, `UPDATE resumes SET is_default = 0 WHERE user_id = ?`, r.UserID); err != nil {
			return fmt.Errorf("clearing default resume: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO resumes (id, user_id, file_name, file_url, is_default, parsed_data, created_at, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.FileName, r.FileURL, boolToInt(r.IsDefault), parsed,
		formatTime(r.CreatedAt), vectorArg(r.Embedding),
	); err != nil {
		return err
	}
	return tx.Commit()
}

const resumeColumns = `id, user_id, file_name, file_url, is_default, parsed_data, created_at, embedding`

func scanResume(sc scanner) (Resume, error) {
	var r Resume
	var isDefault int
	var parsed sql.NullString
	var createdAt string
	var blob []byte
	if err := sc.Scan(&r.ID, &r.UserID, &r.FileName, &r.FileURL, &isDefault, &parsed, &createdAt, &blob); err != nil {
		return Resume{}, err
	}
	r.IsDefault = isDefault == 1
	if parsed.Valid && parsed.String != "" {
		var p ParsedResume
		if err := json.Unmarshal([]byte(parsed.String), &p); err != nil {
			return Resume{}, fmt.Errorf("decoding parsed data for %s: %w", r.ID, err)
		}
		r.Parsed = &p
	}
	var err error
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return Resume{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if r.Embedding, err = decodeFloat32s(blob); err != nil {
		return Resume{}, fmt.Errorf("decoding embedding for %s: %w", r.ID, err)
	}
	return r, nil
}

func (s *Store) GetResume(ctx context.Context, id string) (Resume, error) {
	r, err := scanResume(s.db.QueryRowContext(ctx, `SELECT `+resumeColumns+` FROM resumes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Resume{}, ErrNotFound
	}
	return r, err
}

// DefaultResume returns the user's default resume, or ErrNotFound.
func (s *Store) DefaultResume(ctx context.Context, userID string) (Resume, error) {
	r, err := scanResume(s.db.QueryRowContext(ctx, `SELECT `+resumeColumns+` FROM resumes
		WHERE user_id = ? AND is_default = 1 ORDER BY created_at DESC LIMIT 1`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return Resume{}, ErrNotFound
	}
	return r, err
}

func (s *Store) SetResumeEmbedding(ctx context.Context, id string, vec []float32) error {
	return s.setEmbedding(ctx, "resumes", id, vec)
}

// setEmbedding writes a vector onto a row of a fixed, internal table name.
func (s *Store) setEmbedding(ctx context.Context, table, id string, vec []float32) error {
	res, err := s.db.ExecContext(ctx, `UPDATE `+table+` SET embedding = ? WHERE id = ?`, vectorArg(vec), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Applications ---

func (s *Store) SaveApplication(ctx context.Context, a Application) error {
	status := a.Status
	if status == "" {
		status = StatusPending
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO applications (id, job_id, applicant_id, status, applied_at, match_score)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.JobID, a.ApplicantID, status, formatTime(a.AppliedAt), a.MatchScore,
	)
	return err
}

// ApplicationsByApplicant returns the user's applications with posting titles,
// newest first. Applications whose posting was removed keep an empty title.
func (s *Store) ApplicationsByApplicant(ctx context.Context, applicantID string) ([]ApplicationView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.job_id, a.applicant_id, a.status, a.applied_at, a.match_score, COALESCE(p.title, '')
		FROM applications a LEFT JOIN postings p ON p.id = a.job_id
		WHERE a.applicant_id = ? ORDER BY a.applied_at DESC`, applicantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []ApplicationView
	for rows.Next() {
		var v ApplicationView
		var appliedAt string
		if err := rows.Scan(&v.ID, &v.JobID, &v.ApplicantID, &v.Status, &appliedAt, &v.MatchScore, &v.JobTitle); err != nil {
			return nil, err
		}
		t, err := parseTime(appliedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing applied_at: %w", err)
		}
		v.AppliedAt = t
		views = append(views, v)
	}
	return views, rows.Err()
}

func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
