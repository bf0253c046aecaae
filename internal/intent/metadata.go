package intent

// Metadata is the closed set of per-intent payloads extracted from a model
// reply. Only types in this package implement it.
type Metadata interface {
	isMetadata()
}

// SearchFilters narrows a JOB_SEARCH. Empty fields are unset.
type SearchFilters struct {
	Location string   `json:"location,omitempty"`
	JobType  string   `json:"jobType,omitempty"`
	Skills   []string `json:"skills,omitempty"`
	Remote   *bool    `json:"remote,omitempty"`
}

// MatchTarget names the posting a RESUME_JOB_MATCH compares against.
type MatchTarget struct {
	JobID string `json:"jobId,omitempty"`
}

// CandidateFilters narrows a CANDIDATE_SEARCH.
type CandidateFilters struct {
	Skill    string `json:"skill,omitempty"`
	Location string `json:"location,omitempty"`
}

// SalaryQuery narrows a SALARY_INSIGHT aggregation.
type SalaryQuery struct {
	Skill    string `json:"skill,omitempty"`
	Location string `json:"location,omitempty"`
}

// ItemList carries interview questions or recommended skills.
type ItemList struct {
	Items []string `json:"items,omitempty"`
}

// NoMetadata is used by intents that carry nothing beyond the message.
type NoMetadata struct{}

func (SearchFilters) isMetadata()    {}
func (MatchTarget) isMetadata()      {}
func (CandidateFilters) isMetadata() {}
func (SalaryQuery) isMetadata()      {}
func (ItemList) isMetadata()         {}
func (NoMetadata) isMetadata()       {}
