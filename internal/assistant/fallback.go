package assistant

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/kalambet/jobassist/internal/intent"
	"github.com/kalambet/jobassist/internal/storage"
)

// FallbackMessage is the reply text whenever the model path fails.
const FallbackMessage = "I'm having a bit of trouble with my advanced logic, but I found these jobs that might interest you:"

// The place stops at the end of the line.
var locationPattern = regexp.MustCompile(`(?i)\bin[\t ]+([a-z\t ]+)`)

// ExtractLocation returns the words following the first "in", or "" when
// the message has no such phrase.
func ExtractLocation(message string) string {
	m := locationPattern.FindStringSubmatch(message)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// Fallback answers without the model: postings in the location named by an
// "in <place>" phrase, or all active postings newest first. A failed lookup
// still returns the fallback message with no postings.
func (s *Service) Fallback(ctx context.Context, message string) Reply {
	var (
		jobs []storage.Job
		err  error
	)
	if loc := ExtractLocation(message); loc != "" {
		jobs, err = s.store.JobsByLocation(ctx, loc, s.cfg.MaxResults)
	} else {
		jobs, err = s.store.ActiveJobs(ctx, s.cfg.MaxResults)
	}
	if err != nil {
		s.log.Error("fallback job lookup failed", zap.Error(err))
		jobs = nil
	}

	return Reply{
		Intent:  intent.JobSearch,
		Message: FallbackMessage,
		Data:    JobViews(jobs),
	}
}
