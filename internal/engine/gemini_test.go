package engine

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"
)

type fakeGemini struct {
	model    string
	config   *genai.GenerateContentConfig
	contents []*genai.Content
	resp     *genai.GenerateContentResponse
	embed    *genai.EmbedContentResponse
	err      error
}

func (f *fakeGemini) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, config
	return f.resp, f.err
}

func (f *fakeGemini) EmbedContent(_ context.Context, model string, contents []*genai.Content, _ *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.model, f.contents = model, contents
	return f.embed, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: genai.RoleModel}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func TestGeminiEngine_Complete(t *testing.T) {
	fake := &fakeGemini{resp: textResponse(`{"intent":"JOB_SEARCH",`, ` "message":"ok"}`)}
	g := newGeminiEngine(fake, "", "")

	got, err := g.Complete(context.Background(), Request{
		System:      "system rules",
		Prompt:      "User Message: jobs",
		Temperature: 0.1,
		JSON:        true,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "{\"intent\":\"JOB_SEARCH\",\n\"message\":\"ok\"}" {
		t.Errorf("got %q", got)
	}
	if fake.model != defaultGeminiModel {
		t.Errorf("model = %q, want %q", fake.model, defaultGeminiModel)
	}
	if fake.config.ResponseMIMEType != "application/json" {
		t.Errorf("ResponseMIMEType = %q", fake.config.ResponseMIMEType)
	}
	if fake.config.Temperature == nil || *fake.config.Temperature != float32(0.1) {
		t.Errorf("Temperature = %v, want 0.1", fake.config.Temperature)
	}
	if fake.config.SystemInstruction == nil || fake.config.SystemInstruction.Parts[0].Text != "system rules" {
		t.Error("SystemInstruction not set")
	}
	if len(fake.contents) != 1 || fake.contents[0].Parts[0].Text != "User Message: jobs" {
		t.Errorf("contents = %+v", fake.contents)
	}
}

func TestGeminiEngine_CompleteEmpty(t *testing.T) {
	g := newGeminiEngine(&fakeGemini{resp: textResponse("  ")}, "gemini-pro", "")
	if _, err := g.Complete(context.Background(), Request{Prompt: "x"}); err == nil {
		t.Fatal("expected error on empty response")
	}
}

func TestGeminiEngine_CompleteError(t *testing.T) {
	apiErr := genai.APIError{Code: 503, Status: "UNAVAILABLE"}
	g := newGeminiEngine(&fakeGemini{err: apiErr}, "gemini-pro", "")
	_, err := g.Complete(context.Background(), Request{Prompt: "x"})
	var target genai.APIError
	if !errors.As(err, &target) || target.Code != 503 {
		t.Errorf("err = %v, want wrapped APIError 503", err)
	}
}

func TestGeminiEngine_Embed(t *testing.T) {
	fake := &fakeGemini{embed: &genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{{Values: []float32{0.5, 0.25}}},
	}}
	g := newGeminiEngine(fake, "", "text-embedding-004")

	vec, err := g.Embed(context.Background(), "Go developer")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.5 {
		t.Errorf("vec = %v", vec)
	}
	if fake.model != "text-embedding-004" {
		t.Errorf("model = %q", fake.model)
	}

	empty := newGeminiEngine(&fakeGemini{embed: &genai.EmbedContentResponse{}}, "", "")
	if _, err := empty.Embed(context.Background(), "x"); err == nil {
		t.Error("expected error for missing embedding")
	}
}
