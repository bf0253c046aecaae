package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/jobassist/internal/apperr"
	"github.com/kalambet/jobassist/internal/assistant"
	"github.com/kalambet/jobassist/internal/ingest"
	"github.com/kalambet/jobassist/internal/matching"
	"github.com/kalambet/jobassist/internal/storage"
)

// A base64 encoded 10MB PDF plus the JSON envelope.
const maxResumeBodySize = 15 << 20

type JobRequest struct {
	Title           string   `json:"title"`
	Company         string   `json:"company"`
	Description     string   `json:"description"`
	Requirements    string   `json:"requirements"`
	Location        string   `json:"location"`
	JobType         string   `json:"jobType"`
	ExperienceLevel string   `json:"experienceLevel"`
	SalaryMin       float64  `json:"salaryMin"`
	SalaryMax       float64  `json:"salaryMax"`
	Currency        string   `json:"currency"`
	Category        string   `json:"category"`
	Skills          []string `json:"skills"`
}

// ResumeRequest stores a resume for the caller. When File is set it holds a
// base64 encoded PDF that is parsed server side and Parsed is ignored.
type ResumeRequest struct {
	FileName string                `json:"fileName"`
	FileURL  string                `json:"fileUrl"`
	Default  bool                  `json:"default"`
	Parsed   *storage.ParsedResume `json:"parsed"`
	File     string                `json:"file"`
}

type ResumeView struct {
	ID        string                `json:"id"`
	FileName  string                `json:"fileName"`
	IsDefault bool                  `json:"isDefault"`
	Parsed    *storage.ParsedResume `json:"parsed,omitempty"`
}

func handleMatches(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		results, err := deps.Matcher.MatchJobs(r.Context(), id, subject(r).ID)
		if err != nil {
			writeAppError(w, deps.Logger, err)
			return
		}
		if results == nil {
			results = []matching.MatchResult{}
		}
		writeJSON(w, http.StatusOK, results)
	}
}

func handleAddJob(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subj := subject(r)
		if !subj.HasRole(storage.RoleEmployer, storage.RoleAdmin) {
			writeAppError(w, deps.Logger, apperr.New(apperr.PermissionDenied, "add job", "only employer and admin accounts can post jobs"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req JobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "title is required")
			return
		}
		if req.SalaryMin < 0 || req.SalaryMax < 0 || (req.SalaryMax > 0 && req.SalaryMin > req.SalaryMax) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid salary range")
			return
		}

		job, err := deps.Catalog.AddJob(r.Context(), storage.Job{
			Title:           strings.TrimSpace(req.Title),
			Company:         req.Company,
			Description:     req.Description,
			Requirements:    req.Requirements,
			Location:        req.Location,
			JobType:         req.JobType,
			ExperienceLevel: req.ExperienceLevel,
			SalaryMin:       req.SalaryMin,
			SalaryMax:       req.SalaryMax,
			Currency:        req.Currency,
			Category:        req.Category,
			Skills:          req.Skills,
		})
		if err != nil {
			writeAppError(w, deps.Logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, assistant.JobViews([]storage.Job{job})[0])
	}
}

func handleAddResume(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subj := subject(r)
		if subj.Anonymous() {
			writeAppError(w, deps.Logger, apperr.New(apperr.PermissionDenied, "add resume", "sign in to upload a resume"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxResumeBodySize)
		defer r.Body.Close()

		var req ResumeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if strings.TrimSpace(req.FileName) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "fileName is required")
			return
		}

		var (
			resume storage.Resume
			err    error
		)
		if req.File != "" {
			data, decErr := base64.StdEncoding.DecodeString(req.File)
			if decErr != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "file must be base64 encoded: %v", decErr)
				return
			}
			resume, err = deps.Catalog.ImportResume(r.Context(), subj.ID, req.FileName, data, req.Default)
		} else {
			resume, err = deps.Catalog.AddResume(r.Context(), storage.Resume{
				UserID:    subj.ID,
				FileName:  req.FileName,
				FileURL:   req.FileURL,
				IsDefault: req.Default,
				Parsed:    req.Parsed,
			})
		}
		if errors.Is(err, ingest.ErrInvalidDocument) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err != nil {
			writeAppError(w, deps.Logger, err)
			return
		}

		writeJSON(w, http.StatusCreated, ResumeView{
			ID:        resume.ID,
			FileName:  resume.FileName,
			IsDefault: resume.IsDefault,
			Parsed:    resume.Parsed,
		})
	}
}
