package intent

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		tag  string
		want Intent
	}{
		{"JOB_SEARCH", JobSearch},
		{" salary_insight ", SalaryInsight},
		{"RESUME_ADVICE", GeneralChat},
		{"", GeneralChat},
		{"CAREER_GUIDANCE", CareerGuidance},
	}
	for _, tt := range tests {
		if got := Parse(tt.tag); got != tt.want {
			t.Errorf("Parse(%q) = %s, want %s", tt.tag, got, tt.want)
		}
	}
}

func TestTemperature(t *testing.T) {
	tests := map[Intent]float64{
		JobSearch:           0.1,
		ResumeJobMatch:      0.1,
		CandidateSearch:     0.1,
		InterviewQuestions:  0.3,
		SkillRecommendation: 0.3,
		CareerGuidance:      0.4,
		ApplicationHelp:     0.4,
		JobTrendAnalysis:    0.2,
		SalaryInsight:       0.2,
		GeneralChat:         0.2,
	}
	for in, want := range tests {
		if got := Temperature(in); got != want {
			t.Errorf("Temperature(%s) = %v, want %v", in, got, want)
		}
	}
}

func TestGuess(t *testing.T) {
	tests := []struct {
		message string
		want    Intent
	}{
		{"show me backend jobs", JobSearch},
		{"match my resume to job 7", ResumeJobMatch},
		{"find candidates who know Kotlin", CandidateSearch},
		{"which skills are trending", JobTrendAnalysis},
		{"salary for data engineers", SalaryInsight},
		{"good morning", GeneralChat},
	}
	for _, tt := range tests {
		if got := Guess(tt.message); got != tt.want {
			t.Errorf("Guess(%q) = %s, want %s", tt.message, got, tt.want)
		}
	}
}
