package intent

import (
	"fmt"
	"strings"
)

// HistoryTurns is how many past exchanges are included in the prompt.
const HistoryTurns = 5

const systemPromptTemplate = `You are the career assistant of a job portal.
Role: %s
History:
%s

Supported intents:
- JOB_SEARCH: extract "filters" with any of location, jobType, skills, remote.
- RESUME_JOB_MATCH: extract the posting id as "jobId". Applicants only.
- CANDIDATE_SEARCH: extract optional "skill" and "location". Employers and admins only.
- JOB_TREND_ANALYSIS: explain trends; the backend supplies the data.
- SALARY_INSIGHT: extract optional "skill" and "location"; the backend supplies the figures.
- APPLICATION_HELP: review the user's applications and resume from the context.
- INTERVIEW_QUESTIONS: list questions in "questions".
- SKILL_RECOMMENDATION: list skills in "skills".
- CAREER_GUIDANCE: give strategy and next steps.
- GENERAL_CHAT: anything else; be friendly and brief.

Rules:
1. Reply with exactly one JSON object and nothing else. No markdown.
2. Always include "intent" (one of the tags above) and a non-empty "message".
3. Never invent jobs, people, companies or salaries.
4. If the role is not allowed an intent, answer with GENERAL_CHAT and explain.

Shape: {"intent": "...", "message": "...", "filters": {...}, "jobId": "...", "skill": "...", "location": "...", "questions": [...], "skills": [...]}`

// Turn is one past exchange, oldest first in a history.
type Turn struct {
	Input  string
	Output string
}

// PromptInput is everything the prompt is assembled from.
type PromptInput struct {
	Role    string
	History []Turn
	Context string
	Message string
}

// Prompt is a ready-to-send model request.
type Prompt struct {
	System      string
	User        string
	Temperature float64
}

// BuildPrompt assembles the system and user text. Only the last
// HistoryTurns entries of History are used.
func BuildPrompt(in PromptInput) Prompt {
	history := in.History
	if len(history) > HistoryTurns {
		history = history[len(history)-HistoryTurns:]
	}

	return Prompt{
		System:      fmt.Sprintf(systemPromptTemplate, in.Role, renderHistory(history)),
		User:        in.Context + "\nUser Message: " + in.Message,
		Temperature: Temperature(Guess(in.Message)),
	}
}

func renderHistory(turns []Turn) string {
	if len(turns) == 0 {
		return "None"
	}
	var sb strings.Builder
	for i, t := range turns {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "USER: %s\nASSISTANT: %s", t.Input, t.Output)
	}
	return sb.String()
}
