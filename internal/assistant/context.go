package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kalambet/jobassist/internal/logger"
	"github.com/kalambet/jobassist/internal/storage"
)

var (
	resumeTriggers      = []string{"RESUME", "MATCH"}
	applicationTriggers = []string{"APPLICATION", "STATUS"}
)

// userContext returns the context block sent ahead of the user message. User
// data is only included when the message mentions it: the default resume for
// resume or match questions, application titles and statuses for application
// or status questions. Lookup failures leave the corresponding part out.
func (s *Service) userContext(ctx context.Context, subj Subject, message string) string {
	upper := strings.ToUpper(message)
	var sb strings.Builder

	if containsAny(upper, resumeTriggers) {
		r, err := s.store.DefaultResume(ctx, subj.ID)
		switch {
		case err == nil:
			fmt.Fprintf(&sb, "User Resume: %s\n", r.Content())
		case !errors.Is(err, storage.ErrNotFound):
			s.log.Warn("loading resume context", zap.String(logger.FieldSubject, subj.ID), zap.Error(err))
		}
	}

	if containsAny(upper, applicationTriggers) {
		apps, err := s.store.ApplicationsByApplicant(ctx, subj.ID)
		if err != nil {
			s.log.Warn("loading application context", zap.String(logger.FieldSubject, subj.ID), zap.Error(err))
		} else {
			items := make([]string, len(apps))
			for i, a := range apps {
				items[i] = fmt.Sprintf("%s (%s)", a.JobTitle, a.Status)
			}
			fmt.Fprintf(&sb, "Job Applications: [%s]\n", strings.Join(items, ", "))
		}
	}

	return sb.String()
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
