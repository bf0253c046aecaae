package storage

import (
	"context"
	"reflect"
	"testing"
	"time"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func seedJobs(t *testing.T, s *Store, jobs ...Job) {
	t.Helper()
	for _, j := range jobs {
		if err := s.SaveJob(context.Background(), j); err != nil {
			t.Fatalf("SaveJob(%s): %v", j.ID, err)
		}
	}
}

func jobIDs(jobs []Job) []string {
	ids := make([]string, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}
	return ids
}

func TestSaveAndGetJob(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := Job{
		ID:          "job-1",
		Title:       "Backend Engineer",
		Company:     "Acme",
		Description: "Build Go services",
		Location:    "Austin, TX",
		JobType:     "full-time",
		SalaryMin:   100000,
		SalaryMax:   150000,
		Skills:      []string{"Go", "SQL"},
		CreatedAt:   base,
		Embedding:   []float32{0.1, 0.2, 0.3},
	}
	seedJobs(t, s, want)

	got, err := s.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != JobStatusActive {
		t.Errorf("Status = %q, want default %q", got.Status, JobStatusActive)
	}
	if !reflect.DeepEqual(got.Skills, want.Skills) {
		t.Errorf("Skills = %v, want %v", got.Skills, want.Skills)
	}
	if !reflect.DeepEqual(got.Embedding, want.Embedding) {
		t.Errorf("Embedding = %v, want %v", got.Embedding, want.Embedding)
	}
	if !got.CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, base)
	}

	if _, err := s.GetJob(ctx, "missing"); err != ErrNotFound {
		t.Errorf("GetJob(missing) = %v, want ErrNotFound", err)
	}
}

func TestJobLookups(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedJobs(t, s,
		Job{ID: "austin-ft", Title: "A", Location: "Austin, TX", JobType: "full-time", CreatedAt: base},
		Job{ID: "austin-pt", Title: "B", Location: "Austin, TX", JobType: "part-time", CreatedAt: base.Add(time.Hour)},
		Job{ID: "remote-ft", Title: "C", Location: "Remote", JobType: "Full-Time", CreatedAt: base.Add(2 * time.Hour)},
		Job{ID: "closed", Title: "D", Location: "Austin, TX", JobType: "full-time", Status: "closed", CreatedAt: base.Add(3 * time.Hour)},
	)

	tests := []struct {
		name string
		run  func() ([]Job, error)
		want []string
	}{
		{"active newest first", func() ([]Job, error) { return s.ActiveJobs(ctx, 0) }, []string{"remote-ft", "austin-pt", "austin-ft"}},
		{"active limited", func() ([]Job, error) { return s.ActiveJobs(ctx, 1) }, []string{"remote-ft"}},
		{"by location", func() ([]Job, error) { return s.JobsByLocation(ctx, "austin", 0) }, []string{"austin-pt", "austin-ft"}},
		{"by type ignores case", func() ([]Job, error) { return s.JobsByType(ctx, "full-time", 0) }, []string{"remote-ft", "austin-ft"}},
		{"combined", func() ([]Job, error) { return s.JobsByFilters(ctx, "Austin", "full-time", 0) }, []string{"austin-ft"}},
		{"like is escaped", func() ([]Job, error) { return s.JobsByLocation(ctx, "%", 0) }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.run()
			if err != nil {
				t.Fatalf("lookup: %v", err)
			}
			if ids := jobIDs(got); !reflect.DeepEqual(ids, tt.want) && !(len(ids) == 0 && len(tt.want) == 0) {
				t.Errorf("ids = %v, want %v", ids, tt.want)
			}
		})
	}

	all, err := s.AllJobs(ctx)
	if err != nil {
		t.Fatalf("AllJobs: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("AllJobs returned %d postings, want 4", len(all))
	}
}

func TestActiveJobsWithEmbedding(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedJobs(t, s,
		Job{ID: "no-vec", Title: "A", CreatedAt: base},
		Job{ID: "vec", Title: "B", CreatedAt: base.Add(time.Minute)},
	)
	if err := s.SetJobEmbedding(ctx, "vec", []float32{1, 0}); err != nil {
		t.Fatalf("SetJobEmbedding: %v", err)
	}
	if err := s.SetJobEmbedding(ctx, "missing", []float32{1}); err != ErrNotFound {
		t.Errorf("SetJobEmbedding(missing) = %v, want ErrNotFound", err)
	}

	got, err := s.ActiveJobsWithEmbedding(ctx)
	if err != nil {
		t.Fatalf("ActiveJobsWithEmbedding: %v", err)
	}
	if ids := jobIDs(got); !reflect.DeepEqual(ids, []string{"vec"}) {
		t.Errorf("ids = %v, want [vec]", ids)
	}
}

func TestResumes_DefaultSwitches(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := Resume{ID: "r1", UserID: "u1", FileName: "old.pdf", IsDefault: true, CreatedAt: base}
	second := Resume{
		ID: "r2", UserID: "u1", FileName: "new.pdf", IsDefault: true, CreatedAt: base.Add(time.Hour),
		Parsed: &ParsedResume{Skills: []string{"Go"}, Experience: []string{"5 years backend"}},
	}
	for _, r := range []Resume{first, second} {
		if err := s.SaveResume(ctx, r); err != nil {
			t.Fatalf("SaveResume(%s): %v", r.ID, err)
		}
	}

	def, err := s.DefaultResume(ctx, "u1")
	if err != nil {
		t.Fatalf("DefaultResume: %v", err)
	}
	if def.ID != "r2" {
		t.Errorf("default = %q, want r2", def.ID)
	}
	if !def.HasParsedData() {
		t.Error("expected parsed data on r2")
	}

	old, err := s.GetResume(ctx, "r1")
	if err != nil {
		t.Fatalf("GetResume: %v", err)
	}
	if old.IsDefault {
		t.Error("r1 should no longer be default")
	}
	if old.Embedding != nil {
		t.Errorf("Embedding = %v, want nil", old.Embedding)
	}

	if _, err := s.DefaultResume(ctx, "nobody"); err != ErrNotFound {
		t.Errorf("DefaultResume(nobody) = %v, want ErrNotFound", err)
	}
}

func TestResumeContent(t *testing.T) {
	unparsed := Resume{FileName: "cv.pdf"}
	if got := unparsed.Content(); got != "File: cv.pdf" {
		t.Errorf("Content() = %q, want %q", got, "File: cv.pdf")
	}

	parsed := Resume{Parsed: &ParsedResume{Skills: []string{"Go", "SQL"}, Education: []string{"BSc CS"}}}
	want := "Skills: Go, SQL\nEducation: BSc CS"
	if got := parsed.Content(); got != want {
		t.Errorf("Content() = %q, want %q", got, want)
	}
}

func TestApplicationsByApplicant(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedJobs(t, s, Job{ID: "job-1", Title: "Go Developer", CreatedAt: base})
	apps := []Application{
		{ID: "a1", JobID: "job-1", ApplicantID: "u1", Status: StatusRejected, AppliedAt: base},
		{ID: "a2", JobID: "gone", ApplicantID: "u1", AppliedAt: base.Add(time.Hour)},
		{ID: "a3", JobID: "job-1", ApplicantID: "u2", AppliedAt: base},
	}
	for _, a := range apps {
		if err := s.SaveApplication(ctx, a); err != nil {
			t.Fatalf("SaveApplication: %v", err)
		}
	}

	got, err := s.ApplicationsByApplicant(ctx, "u1")
	if err != nil {
		t.Fatalf("ApplicationsByApplicant: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d applications, want 2", len(got))
	}
	if got[0].ID != "a2" || got[0].Status != StatusPending || got[0].JobTitle != "" {
		t.Errorf("got[0] = %+v, want a2 pending with empty title", got[0])
	}
	if got[1].JobTitle != "Go Developer" {
		t.Errorf("got[1].JobTitle = %q, want %q", got[1].JobTitle, "Go Developer")
	}
}

func TestUsersByRole(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	users := []User{
		{ID: "u1", Name: "Ann", Role: RoleApplicant, Skills: []string{"Go"}, CreatedAt: base},
		{ID: "u2", Name: "Bob", Role: RoleEmployer, CreatedAt: base},
		{ID: "u3", Name: "Cid", Role: RoleApplicant, CreatedAt: base.Add(time.Minute)},
	}
	for _, u := range users {
		if err := s.SaveUser(ctx, u); err != nil {
			t.Fatalf("SaveUser: %v", err)
		}
	}

	got, err := s.UsersByRole(ctx, RoleApplicant)
	if err != nil {
		t.Fatalf("UsersByRole: %v", err)
	}
	if len(got) != 2 || got[0].ID != "u1" || got[1].ID != "u3" {
		t.Errorf("UsersByRole = %+v, want u1, u3", got)
	}
	if !reflect.DeepEqual(got[0].Skills, []string{"Go"}) {
		t.Errorf("Skills = %v", got[0].Skills)
	}

	u, err := s.GetUser(ctx, "u2")
	if err != nil || u.Name != "Bob" {
		t.Errorf("GetUser = %+v, %v", u, err)
	}
}
