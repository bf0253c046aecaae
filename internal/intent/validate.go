package intent

import (
	"encoding/json"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/kalambet/jobassist/internal/apperr"
)

// Response is a validated model reply.
type Response struct {
	Intent   Intent
	Message  string
	Metadata Metadata
}

// envelope is the loose top-level shape of a model reply.
type envelope struct {
	Intent    string         `json:"intent"`
	Message   string         `json:"message"`
	Filters   map[string]any `json:"filters"`
	JobID     string         `json:"jobId"`
	Skill     string         `json:"skill"`
	Location  string         `json:"location"`
	Questions []string       `json:"questions"`
	Skills    []string       `json:"skills"`
}

// Validate parses raw model output. It accepts a JSON object, optionally
// wrapped in a markdown fence, with non-empty string "intent" and "message"
// fields. Anything else, including optional fields of the wrong shape, is
// an UpstreamInvalid error.
func Validate(raw string) (Response, error) {
	const op = "validate model reply"

	var obj map[string]any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &obj); err != nil {
		return Response{}, apperr.Wrap(apperr.UpstreamInvalid, op, err)
	}
	for _, key := range []string{"intent", "message"} {
		s, ok := obj[key].(string)
		if !ok || strings.TrimSpace(s) == "" {
			return Response{}, apperr.New(apperr.UpstreamInvalid, op, "missing %q", key)
		}
	}

	var env envelope
	if err := decode(obj, &env); err != nil {
		return Response{}, apperr.Wrap(apperr.UpstreamInvalid, op, err)
	}

	resp := Response{
		Intent:  Parse(env.Intent),
		Message: env.Message,
	}
	md, err := metadataFor(resp.Intent, env)
	if err != nil {
		return Response{}, apperr.Wrap(apperr.UpstreamInvalid, op, err)
	}
	resp.Metadata = md
	return resp, nil
}

func metadataFor(in Intent, env envelope) (Metadata, error) {
	switch in {
	case JobSearch:
		var f SearchFilters
		if env.Filters != nil {
			if err := decode(env.Filters, &f); err != nil {
				return nil, err
			}
		}
		if f.Location == "" {
			f.Location = env.Location
		}
		f.Location = strings.TrimSpace(f.Location)
		f.JobType = strings.TrimSpace(f.JobType)
		return f, nil
	case ResumeJobMatch:
		return MatchTarget{JobID: strings.TrimSpace(env.JobID)}, nil
	case CandidateSearch:
		return CandidateFilters{Skill: strings.TrimSpace(env.Skill), Location: strings.TrimSpace(env.Location)}, nil
	case SalaryInsight:
		return SalaryQuery{Skill: strings.TrimSpace(env.Skill), Location: strings.TrimSpace(env.Location)}, nil
	case InterviewQuestions:
		return ItemList{Items: env.Questions}, nil
	case SkillRecommendation:
		return ItemList{Items: env.Skills}, nil
	default:
		return NoMetadata{}, nil
	}
}

// decode converts a generic JSON value into out. Numbers and booleans are
// accepted where strings are expected; other shape mismatches fail.
func decode(in any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

// extractJSON strips a surrounding markdown code fence.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
