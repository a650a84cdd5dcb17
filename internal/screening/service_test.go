package screening

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"talentsift/internal/ai"
	"talentsift/internal/errors"
	"talentsift/internal/types"
)

// fakeProvider returns canned replies keyed by resume content
type fakeProvider struct {
	replies map[string]string
	failOn  map[string]error
	calls   int
}

func (f *fakeProvider) Complete(ctx context.Context, prompt string) (types.CompletionResult, error) {
	f.calls++
	for marker, err := range f.failOn {
		if strings.Contains(prompt, marker) {
			return types.CompletionResult{}, err
		}
	}
	for marker, reply := range f.replies {
		if strings.Contains(prompt, marker) {
			return types.CompletionResult{
				Text:  reply,
				Usage: &types.TokenUsage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150},
			}, nil
		}
	}
	return types.CompletionResult{Text: ""}, nil
}

func (f *fakeProvider) Name() string                                   { return "fake" }
func (f *fakeProvider) GetModelInfo(ctx context.Context) *ai.ModelInfo { return &ai.ModelInfo{} }
func (f *fakeProvider) Close() error                                   { return nil }

func scoredReply(score int) string {
	return fmt.Sprintf("OVERALL SCORE: %d\nINTERVIEW RECOMMENDATION: Maybe\nSUMMARY:\nCandidate summary.", score)
}

func newTestService(provider ai.Provider) *Service {
	aiService := &ai.Service{Provider: provider}
	return NewService(aiService, nil, errors.NewLogger(slog.LevelError))
}

func txtItem(name, content string) types.BatchItem {
	return types.BatchItem{
		Filename: name,
		Data:     []byte(content),
	}
}

func TestScreenBatchOrdering(t *testing.T) {
	// Scores 40, 90, 40 plus one failing resume: the ranking must put 90
	// first, keep the tied 40s in submission order, and append the error.
	provider := &fakeProvider{
		replies: map[string]string{
			"alice resume":   scoredReply(40),
			"bob resume":     scoredReply(90),
			"charlie resume": scoredReply(40),
		},
		failOn: map[string]error{
			"dave resume": fmt.Errorf("model unavailable"),
		},
	}
	service := newTestService(provider)

	items := []types.BatchItem{
		txtItem("alice.txt", "alice resume"),
		txtItem("bob.txt", "bob resume"),
		txtItem("charlie.txt", "charlie resume"),
		txtItem("dave.txt", "dave resume"),
	}

	batch := service.ScreenBatch(context.Background(), items, types.ScreeningCriteria{JobTitle: "Engineer"})

	if batch.Analyzed != 3 {
		t.Errorf("Analyzed = %d, want 3", batch.Analyzed)
	}
	if batch.Errors != 1 {
		t.Errorf("Errors = %d, want 1", batch.Errors)
	}
	if len(batch.Results) != 4 {
		t.Fatalf("len(Results) = %d, want 4", len(batch.Results))
	}

	wantOrder := []string{"bob.txt", "alice.txt", "charlie.txt", "dave.txt"}
	for i, want := range wantOrder {
		if batch.Results[i].Filename != want {
			t.Errorf("Results[%d].Filename = %q, want %q", i, batch.Results[i].Filename, want)
		}
	}

	if !batch.Results[3].IsError() {
		t.Error("Last result should be an error entry")
	}
	if batch.Results[3].Error == "" || !strings.Contains(batch.Results[3].Error, "model unavailable") {
		t.Errorf("Error entry should carry the failure message, got %q", batch.Results[3].Error)
	}
}

func TestScreenBatchEmptyExtraction(t *testing.T) {
	service := newTestService(&fakeProvider{})

	items := []types.BatchItem{
		txtItem("blank.txt", "   \n\t  "),
	}

	batch := service.ScreenBatch(context.Background(), items, types.ScreeningCriteria{JobTitle: "Engineer"})

	if batch.Errors != 1 || batch.Analyzed != 0 {
		t.Fatalf("Analyzed = %d, Errors = %d, want 0 and 1", batch.Analyzed, batch.Errors)
	}
	if batch.Results[0].Error != "Failed to parse resume" {
		t.Errorf("Error = %q, want \"Failed to parse resume\"", batch.Results[0].Error)
	}
}

func TestScreenBatchUnsupportedFormat(t *testing.T) {
	service := newTestService(&fakeProvider{})

	items := []types.BatchItem{
		txtItem("photo.png", "binary junk"),
	}

	batch := service.ScreenBatch(context.Background(), items, types.ScreeningCriteria{JobTitle: "Engineer"})

	if batch.Errors != 1 {
		t.Fatalf("Errors = %d, want 1", batch.Errors)
	}
	if batch.Results[0].Error != "Failed to parse resume" {
		t.Errorf("Error = %q, want \"Failed to parse resume\"", batch.Results[0].Error)
	}
}

func TestScreenBatchFailuresDoNotAbort(t *testing.T) {
	// A failure mid-batch must not stop later resumes from being screened
	provider := &fakeProvider{
		replies: map[string]string{
			"good resume": scoredReply(70),
		},
		failOn: map[string]error{
			"bad resume": fmt.Errorf("timeout"),
		},
	}
	service := newTestService(provider)

	items := []types.BatchItem{
		txtItem("bad.txt", "bad resume"),
		txtItem("good.txt", "good resume"),
	}

	batch := service.ScreenBatch(context.Background(), items, types.ScreeningCriteria{JobTitle: "Engineer"})

	if batch.Analyzed != 1 || batch.Errors != 1 {
		t.Fatalf("Analyzed = %d, Errors = %d, want 1 and 1", batch.Analyzed, batch.Errors)
	}
	if batch.Results[0].Filename != "good.txt" {
		t.Errorf("First result should be the successful resume, got %q", batch.Results[0].Filename)
	}
}

func TestScreenResumeParsesReply(t *testing.T) {
	provider := &fakeProvider{
		replies: map[string]string{
			"jane resume": "OVERALL SCORE: 82%\nINTERVIEW RECOMMENDATION: Yes\nSUMMARY:\nStrong candidate.",
		},
	}
	service := newTestService(provider)

	result, err := service.ScreenResume(context.Background(), "jane resume", types.ScreeningCriteria{JobDescription: "Go engineer"})
	if err != nil {
		t.Fatalf("ScreenResume failed: %v", err)
	}
	if result.OverallScore != 82 {
		t.Errorf("OverallScore = %d, want 82", result.OverallScore)
	}
	if result.Recommendation != "Yes" {
		t.Errorf("Recommendation = %q, want \"Yes\"", result.Recommendation)
	}
	if result.Summary != "Strong candidate." {
		t.Errorf("Summary = %q", result.Summary)
	}
}

func TestScreenBatchOneRequestPerResume(t *testing.T) {
	provider := &fakeProvider{
		replies: map[string]string{"resume": scoredReply(50)},
	}
	service := newTestService(provider)

	items := []types.BatchItem{
		txtItem("a.txt", "resume one"),
		txtItem("b.txt", "resume two"),
		txtItem("c.txt", "resume three"),
	}

	service.ScreenBatch(context.Background(), items, types.ScreeningCriteria{JobTitle: "Engineer"})

	if provider.calls != 3 {
		t.Errorf("Provider calls = %d, want exactly one per resume", provider.calls)
	}
}
