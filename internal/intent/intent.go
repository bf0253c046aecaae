// Package intent defines the assistant's intent vocabulary, builds the model
// prompt and validates the model's structured reply.
package intent

import "strings"

// Intent is the closed set of request kinds the model may return.
type Intent string

const (
	JobSearch           Intent = "JOB_SEARCH"
	ResumeJobMatch      Intent = "RESUME_JOB_MATCH"
	CandidateSearch     Intent = "CANDIDATE_SEARCH"
	JobTrendAnalysis    Intent = "JOB_TREND_ANALYSIS"
	SalaryInsight       Intent = "SALARY_INSIGHT"
	ApplicationHelp     Intent = "APPLICATION_HELP"
	InterviewQuestions  Intent = "INTERVIEW_QUESTIONS"
	SkillRecommendation Intent = "SKILL_RECOMMENDATION"
	CareerGuidance      Intent = "CAREER_GUIDANCE"
	GeneralChat         Intent = "GENERAL_CHAT"
)

var all = []Intent{
	JobSearch, ResumeJobMatch, CandidateSearch, JobTrendAnalysis, SalaryInsight,
	ApplicationHelp, InterviewQuestions, SkillRecommendation, CareerGuidance, GeneralChat,
}

// All returns every intent in declaration order.
func All() []Intent {
	out := make([]Intent, len(all))
	copy(out, all)
	return out
}

// Parse maps a tag to an Intent, ignoring case and surrounding space.
// Unknown tags parse to GeneralChat.
func Parse(tag string) Intent {
	t := Intent(strings.ToUpper(strings.TrimSpace(tag)))
	for _, in := range all {
		if in == t {
			return in
		}
	}
	return GeneralChat
}

func (i Intent) String() string { return string(i) }

// Temperature is the sampling temperature used for an intent.
func Temperature(i Intent) float64 {
	switch i {
	case JobSearch, ResumeJobMatch, CandidateSearch:
		return 0.1
	case InterviewQuestions, SkillRecommendation:
		return 0.3
	case CareerGuidance, ApplicationHelp:
		return 0.4
	default:
		return 0.2
	}
}

// guessRules are checked in order; the first rule with a matching keyword wins.
var guessRules = []struct {
	intent   Intent
	keywords []string
}{
	{ResumeJobMatch, []string{"MATCH"}},
	{CandidateSearch, []string{"CANDIDATE", "APPLICANTS", "TALENT"}},
	{InterviewQuestions, []string{"INTERVIEW"}},
	{SalaryInsight, []string{"SALARY", "PAY", "COMPENSATION"}},
	{JobTrendAnalysis, []string{"TREND", "IN DEMAND", "POPULAR"}},
	{SkillRecommendation, []string{"SKILL", "LEARN"}},
	{ApplicationHelp, []string{"APPLICATION", "STATUS", "APPLIED"}},
	{CareerGuidance, []string{"CAREER", "ADVICE", "GROW"}},
	{JobSearch, []string{"JOB", "POSITION", "OPENING", "HIRING", "ROLE"}},
}

// Guess pre-classifies a message by keyword. The result only selects the
// request temperature; the model's reply decides the routed intent.
func Guess(message string) Intent {
	upper := strings.ToUpper(message)
	for _, r := range guessRules {
		for _, kw := range r.keywords {
			if strings.Contains(upper, kw) {
				return r.intent
			}
		}
	}
	return GeneralChat
}
