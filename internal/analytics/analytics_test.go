package analytics

import (
	"reflect"
	"testing"

	"github.com/kalambet/jobassist/internal/storage"
)

func TestTopSkills(t *testing.T) {
	jobs := []storage.Job{
		{Skills: []string{"Go", "SQL", "Docker"}},
		{Skills: []string{"Go", "Kubernetes"}},
		{Skills: []string{"Python", "SQL", " "}},
		{Skills: []string{"Go", "Docker"}},
		{},
	}

	got := TopSkills(jobs, 3)
	want := []SkillCount{{"Go", 3}, {"Docker", 2}, {"SQL", 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopSkills = %v, want %v", got, want)
	}

	if all := TopSkills(jobs, 0); len(all) != 5 {
		t.Errorf("TopSkills(n=0) returned %d skills, want 5", len(all))
	}
	if names := SkillNames(got); !reflect.DeepEqual(names, []string{"Go", "Docker", "SQL"}) {
		t.Errorf("SkillNames = %v", names)
	}
	if got := TopSkills(nil, DefaultTopSkills); len(got) != 0 {
		t.Errorf("TopSkills(nil) = %v, want empty", got)
	}
}

func TestSalary(t *testing.T) {
	jobs := []storage.Job{
		{Location: "Austin, TX", Skills: []string{"Go"}, SalaryMin: 100000, SalaryMax: 140000},
		{Location: "austin", Skills: []string{"go", "SQL"}, SalaryMin: 120000, SalaryMax: 160000},
		{Location: "Berlin", Skills: []string{"Go"}, SalaryMin: 70000, SalaryMax: 90000},
		{Location: "Austin, TX", Skills: []string{"Go"}},
		{Location: "Austin, TX", Skills: []string{"Golang"}, SalaryMin: 1, SalaryMax: 2},
	}

	tests := []struct {
		name string
		f    SalaryFilter
		want SalaryStats
	}{
		{"unfiltered", SalaryFilter{}, SalaryStats{AvgMin: 72500.25, AvgMax: 97500.5, SampleSize: 4}},
		{"skill exact ignoring case", SalaryFilter{Skill: "GO"}, SalaryStats{AvgMin: 96666.67, AvgMax: 130000, SampleSize: 3}},
		{"skill and location", SalaryFilter{Skill: "Go", Location: "AUSTIN"}, SalaryStats{AvgMin: 110000, AvgMax: 150000, SampleSize: 2}},
		{"no match", SalaryFilter{Location: "Tokyo"}, SalaryStats{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Salary(jobs, tt.f); got != tt.want {
				t.Errorf("Salary = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestApplications(t *testing.T) {
	app := func(status string) storage.ApplicationView {
		return storage.ApplicationView{Application: storage.Application{Status: status}}
	}
	apps := []storage.ApplicationView{
		app(storage.StatusRejected),
		app(storage.StatusShortlisted),
		app(storage.StatusHired),
		app(storage.StatusPending),
		app(storage.StatusPending),
		app(storage.StatusWithdrawn),
	}

	got := Applications(apps, true)
	want := ApplicationStats{
		TotalApplications:  6,
		RejectionRate:      16.67,
		ConversionRate:     33.33,
		PendingReview:      2,
		ResumeQualityScore: ResumeQualityParsed,
	}
	if got != want {
		t.Errorf("Applications = %+v, want %+v", got, want)
	}
}

func TestApplications_NoneIsZeroPercent(t *testing.T) {
	got := Applications(nil, false)
	want := ApplicationStats{ResumeQualityScore: ResumeQualityUnparsed}
	if got != want {
		t.Errorf("Applications(nil) = %+v, want %+v", got, want)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		part, total int
		want        float64
	}{
		{0, 0, 0},
		{3, 0, 0},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{5, 5, 100},
		{1, -1, 0},
	}
	for _, tt := range tests {
		if got := Percent(tt.part, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %v, want %v", tt.part, tt.total, got, tt.want)
		}
	}
}
