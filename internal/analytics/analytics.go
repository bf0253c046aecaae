// Package analytics computes the aggregate figures the assistant attaches to
// trend, salary and application replies.
package analytics

import (
	"math"
	"sort"
	"strings"

	"github.com/kalambet/jobassist/internal/storage"
)

// DefaultTopSkills is the number of skills reported by trend replies.
const DefaultTopSkills = 10

// SkillCount is how many postings list a skill.
type SkillCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

// TopSkills counts skills across jobs and returns the n most frequent,
// descending by count with ties broken alphabetically. n <= 0 returns all.
func TopSkills(jobs []storage.Job, n int) []SkillCount {
	counts := make(map[string]int)
	for _, j := range jobs {
		for _, s := range j.Skills {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			counts[s]++
		}
	}

	out := make([]SkillCount, 0, len(counts))
	for s, c := range counts {
		out = append(out, SkillCount{Skill: s, Count: c})
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].Count != out[k].Count {
			return out[i].Count > out[k].Count
		}
		return out[i].Skill < out[k].Skill
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// SkillNames returns the skill names of counts, in order.
func SkillNames(counts []SkillCount) []string {
	names := make([]string, len(counts))
	for i, c := range counts {
		names[i] = c.Skill
	}
	return names
}

// SalaryFilter narrows a salary aggregation. Empty fields match everything.
type SalaryFilter struct {
	Skill    string
	Location string
}

// SalaryStats is the mean advertised range over SampleSize postings.
type SalaryStats struct {
	AvgMin     float64 `json:"avgMin"`
	AvgMax     float64 `json:"avgMax"`
	SampleSize int     `json:"sampleSize"`
}

// Salary averages the advertised range of postings that carry salary data
// and pass the filter. Skill matches a listed skill exactly, ignoring case;
// Location is a case-insensitive substring.
func Salary(jobs []storage.Job, f SalaryFilter) SalaryStats {
	skill := strings.TrimSpace(f.Skill)
	loc := strings.ToLower(strings.TrimSpace(f.Location))

	var sumMin, sumMax float64
	var n int
	for _, j := range jobs {
		if j.SalaryMin <= 0 && j.SalaryMax <= 0 {
			continue
		}
		if skill != "" && !hasSkill(j.Skills, skill) {
			continue
		}
		if loc != "" && !strings.Contains(strings.ToLower(j.Location), loc) {
			continue
		}
		sumMin += j.SalaryMin
		sumMax += j.SalaryMax
		n++
	}
	if n == 0 {
		return SalaryStats{}
	}
	return SalaryStats{
		AvgMin:     round2(sumMin / float64(n)),
		AvgMax:     round2(sumMax / float64(n)),
		SampleSize: n,
	}
}

func hasSkill(skills []string, want string) bool {
	for _, s := range skills {
		if strings.EqualFold(strings.TrimSpace(s), want) {
			return true
		}
	}
	return false
}

// Resume quality heuristic: parsed resumes score higher than bare uploads.
const (
	ResumeQualityParsed   = 85
	ResumeQualityUnparsed = 40
)

// ApplicationStats summarizes an applicant's pipeline.
type ApplicationStats struct {
	TotalApplications  int     `json:"totalApplications"`
	RejectionRate      float64 `json:"rejectionRate"`
	ConversionRate     float64 `json:"conversionRate"`
	PendingReview      int     `json:"pendingReview"`
	ResumeQualityScore int     `json:"resumeQualityScore"`
}

// Applications computes the applicant's rates. Conversion counts shortlisted
// and hired applications. Rates are 0 when there are no applications.
func Applications(apps []storage.ApplicationView, parsedResume bool) ApplicationStats {
	var rejected, converted, pending int
	for _, a := range apps {
		switch a.Status {
		case storage.StatusRejected:
			rejected++
		case storage.StatusShortlisted, storage.StatusHired:
			converted++
		case storage.StatusPending, "":
			pending++
		}
	}

	quality := ResumeQualityUnparsed
	if parsedResume {
		quality = ResumeQualityParsed
	}
	return ApplicationStats{
		TotalApplications:  len(apps),
		RejectionRate:      Percent(rejected, len(apps)),
		ConversionRate:     Percent(converted, len(apps)),
		PendingReview:      pending,
		ResumeQualityScore: quality,
	}
}

// Percent returns part/total as a percentage rounded to two decimals, or 0
// when total is not positive.
func Percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round2(float64(part) * 100 / float64(total))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
