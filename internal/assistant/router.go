package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kalambet/jobassist/internal/analytics"
	"github.com/kalambet/jobassist/internal/apperr"
	"github.com/kalambet/jobassist/internal/intent"
	"github.com/kalambet/jobassist/internal/logger"
	"github.com/kalambet/jobassist/internal/matching"
	"github.com/kalambet/jobassist/internal/storage"
)

// allowedRoles lists the roles that may use a restricted intent.
var allowedRoles = map[intent.Intent][]string{
	intent.ResumeJobMatch:  {storage.RoleApplicant},
	intent.CandidateSearch: {storage.RoleEmployer, storage.RoleAdmin},
}

// route attaches the data for a validated reply. A subject without the role
// an intent requires gets a denial reply together with a PermissionDenied
// error.
func (s *Service) route(ctx context.Context, subj Subject, resp intent.Response) (Reply, error) {
	reply := Reply{Intent: resp.Intent, Message: resp.Message}
	if _, ok := resp.Metadata.(intent.NoMetadata); !ok {
		reply.Metadata = resp.Metadata
	}

	if roles, ok := allowedRoles[resp.Intent]; ok && !subj.HasRole(roles...) {
		return denial(resp.Intent, roles), apperr.New(apperr.PermissionDenied, "route",
			"role %q may not use %s", subj.Role, resp.Intent)
	}

	s.log.Debug("routing intent",
		zap.String(logger.FieldSubject, subj.ID),
		zap.String(logger.FieldIntent, resp.Intent.String()),
	)

	var err error
	switch md := resp.Metadata.(type) {
	case intent.SearchFilters:
		err = s.jobSearch(ctx, md, &reply)
	case intent.MatchTarget:
		err = s.resumeMatch(ctx, subj, md, &reply)
	case intent.CandidateFilters:
		err = s.candidateSearch(ctx, md, &reply)
	case intent.SalaryQuery:
		err = s.salaryInsight(ctx, md, &reply)
	case intent.ItemList:
		if len(md.Items) > 0 {
			reply.Data = md.Items
		}
	default:
		switch resp.Intent {
		case intent.JobTrendAnalysis:
			err = s.jobTrends(ctx, &reply)
		case intent.ApplicationHelp:
			err = s.applicationHelp(ctx, subj, &reply)
		}
	}
	if err != nil {
		return Reply{}, fmt.Errorf("routing %s: %w", resp.Intent, err)
	}
	return reply, nil
}

func denial(in intent.Intent, roles []string) Reply {
	return Reply{
		Intent:  in,
		Message: fmt.Sprintf("Sorry, this feature is only available to %s accounts.", strings.Join(roles, " and ")),
	}
}

// jobSearch applies both filters when both are set, else the one that is
// set, else lists the newest active postings. Skills and remote narrow that
// list in memory, so the query is unbounded when either is present.
func (s *Service) jobSearch(ctx context.Context, f intent.SearchFilters, reply *Reply) error {
	limit := s.cfg.MaxResults
	narrowed := len(f.Skills) > 0 || f.Remote != nil
	if narrowed {
		limit = 0
	}

	var (
		jobs []storage.Job
		err  error
	)
	switch {
	case f.Location != "" && f.JobType != "":
		jobs, err = s.store.JobsByFilters(ctx, f.Location, f.JobType, limit)
	case f.Location != "":
		jobs, err = s.store.JobsByLocation(ctx, f.Location, limit)
	case f.JobType != "":
		jobs, err = s.store.JobsByType(ctx, f.JobType, limit)
	default:
		jobs, err = s.store.ActiveJobs(ctx, limit)
	}
	if err != nil {
		return err
	}

	if narrowed {
		kept := jobs[:0]
		for _, j := range jobs {
			if hasAllSkills(j.Skills, f.Skills) && (f.Remote == nil || isRemote(j) == *f.Remote) {
				kept = append(kept, j)
			}
		}
		jobs = kept[:min(len(kept), s.cfg.MaxResults)]
	}
	reply.Data = JobViews(jobs)
	return nil
}

// hasAllSkills reports whether skills contains every wanted skill, ignoring
// case. Blank wanted entries are skipped.
func hasAllSkills(skills, wanted []string) bool {
	for _, w := range wanted {
		if w = strings.TrimSpace(w); w != "" && !hasSkill(skills, w) {
			return false
		}
	}
	return true
}

// isRemote reports whether a posting is advertised as remote in its location
// or job type.
func isRemote(j storage.Job) bool {
	return strings.Contains(strings.ToLower(j.Location), "remote") ||
		strings.EqualFold(strings.TrimSpace(j.JobType), "remote")
}

// resumeMatch scores the subject's default resume against one posting. A
// missing posting, resume or embeddable text leaves the reply without data.
func (s *Service) resumeMatch(ctx context.Context, subj Subject, t intent.MatchTarget, reply *Reply) error {
	if t.JobID == "" {
		return nil
	}
	job, err := s.store.GetJob(ctx, t.JobID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	resume, err := s.store.DefaultResume(ctx, subj.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	jobVec, err := s.embeddings.GetOrCreate(ctx, job.Description, job.ID)
	if errors.Is(err, apperr.ErrDataMissing) {
		return nil
	}
	if err != nil {
		return err
	}
	resumeVec, err := s.embeddings.GetOrCreate(ctx, resume.Content(), resume.ID)
	if errors.Is(err, apperr.ErrDataMissing) {
		return nil
	}
	if err != nil {
		return err
	}

	score := int(matching.Cosine(jobVec, resumeVec) * 100)
	if score < 0 {
		score = 0
	}
	reply.Data = []MatchScore{{JobID: job.ID, JobTitle: job.Title, MatchScore: score}}
	return nil
}

// candidateSearch lists applicant accounts, optionally narrowed by a skill
// (exact, ignoring case) and a location (substring, ignoring case).
func (s *Service) candidateSearch(ctx context.Context, f intent.CandidateFilters, reply *Reply) error {
	users, err := s.store.UsersByRole(ctx, storage.RoleApplicant)
	if err != nil {
		return err
	}
	loc := strings.ToLower(f.Location)

	out := []CandidateView{}
	for _, u := range users {
		if f.Skill != "" && !hasSkill(u.Skills, f.Skill) {
			continue
		}
		if loc != "" && !strings.Contains(strings.ToLower(u.Location), loc) {
			continue
		}
		out = append(out, CandidateView{ID: u.ID, Name: u.Name, Location: u.Location, Skills: u.Skills})
		if len(out) == s.cfg.MaxResults {
			break
		}
	}
	reply.Data = out
	return nil
}

func hasSkill(skills []string, want string) bool {
	for _, s := range skills {
		if strings.EqualFold(strings.TrimSpace(s), want) {
			return true
		}
	}
	return false
}

func (s *Service) jobTrends(ctx context.Context, reply *Reply) error {
	jobs, err := s.store.AllJobs(ctx)
	if err != nil {
		return err
	}
	counts := analytics.TopSkills(jobs, analytics.DefaultTopSkills)
	names := analytics.SkillNames(counts)

	reply.Data = TrendReport{Trends: names, Counts: counts}
	reply.Message += "\nReal-time Data: " + strings.Join(names, ", ")
	return nil
}

func (s *Service) salaryInsight(ctx context.Context, q intent.SalaryQuery, reply *Reply) error {
	jobs, err := s.store.AllJobs(ctx)
	if err != nil {
		return err
	}
	stats := analytics.Salary(jobs, analytics.SalaryFilter{Skill: q.Skill, Location: q.Location})

	reply.Data = stats
	reply.Message += fmt.Sprintf("\nAnalysis: Average range based on %d samples.", stats.SampleSize)
	return nil
}

func (s *Service) applicationHelp(ctx context.Context, subj Subject, reply *Reply) error {
	apps, err := s.store.ApplicationsByApplicant(ctx, subj.ID)
	if err != nil {
		return err
	}
	resume, err := s.store.DefaultResume(ctx, subj.ID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	reply.Data = analytics.Applications(apps, err == nil && resume.HasParsedData())
	return nil
}
