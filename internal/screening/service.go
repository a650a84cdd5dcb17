// Package screening orchestrates resume screening batches end to end:
// extraction, prompt assembly, one model call per resume, parsing and ranking.
package screening

import (
	"context"
	"sort"

	"talentsift/internal/ai"
	"talentsift/internal/analysis"
	"talentsift/internal/errors"
	"talentsift/internal/extract"
	"talentsift/internal/observability"
	"talentsift/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

// Service runs screening batches against the configured AI provider
type Service struct {
	ai     *ai.Service
	obs    *observability.ObservabilityManager
	logger *errors.Logger
}

// NewService creates a screening service. The observability manager may be
// nil, in which case operations run untracked.
func NewService(aiService *ai.Service, obs *observability.ObservabilityManager, logger *errors.Logger) *Service {
	return &Service{
		ai:     aiService,
		obs:    obs,
		logger: logger,
	}
}

// ScreenResume screens one resume text against the criteria. One model call
// per resume, no retries; the parsed result always carries the raw reply.
func (s *Service) ScreenResume(ctx context.Context, resumeText string, criteria types.ScreeningCriteria) (*types.AnalysisResult, error) {
	prompt := ai.BuildScreeningPrompt(resumeText, criteria)

	var completion types.CompletionResult
	err := s.trackOperation(ctx, "screen_resume", func(ctx context.Context) *observability.AIOperationResult {
		var opErr error
		completion, opErr = s.ai.Complete(ctx, prompt)
		return &observability.AIOperationResult{
			Error:      opErr,
			TokenUsage: completion.Usage,
		}
	})
	if err != nil {
		return nil, err
	}

	return analysis.Parse(completion.Text), nil
}

// ScreenBatch screens every resume in the batch sequentially. Failures are
// captured per resume, never aborting the batch: successful results come
// first sorted by overall score descending (ties keep submission order),
// error entries follow in submission order.
func (s *Service) ScreenBatch(ctx context.Context, items []types.BatchItem, criteria types.ScreeningCriteria) *types.BatchResult {
	var successes []*types.AnalysisResult
	var failures []*types.AnalysisResult

	for _, item := range items {
		result := s.screenItem(ctx, item, criteria)
		if result.IsError() {
			failures = append(failures, result)
		} else {
			successes = append(successes, result)
		}
	}

	sort.SliceStable(successes, func(i, j int) bool {
		return successes[i].OverallScore > successes[j].OverallScore
	})

	results := make([]*types.AnalysisResult, 0, len(items))
	results = append(results, successes...)
	results = append(results, failures...)

	s.recordBatchMetrics(ctx, results, len(successes))

	return &types.BatchResult{
		Results:  results,
		Analyzed: len(successes),
		Errors:   len(failures),
	}
}

// screenItem processes one batch entry, mapping any failure to an error
// result carrying the filename.
func (s *Service) screenItem(ctx context.Context, item types.BatchItem, criteria types.ScreeningCriteria) *types.AnalysisResult {
	text, err := s.extractItem(item)
	if err != nil {
		s.logger.Warn("Resume extraction failed",
			"filename", item.Filename,
			"error", err.Error())
		return &types.AnalysisResult{
			Filename: item.Filename,
			Error:    "Failed to parse resume",
		}
	}

	result, err := s.ScreenResume(ctx, text, criteria)
	if err != nil {
		s.logger.LogError(err, "Resume screening failed",
			"filename", item.Filename)
		return &types.AnalysisResult{
			Filename: item.Filename,
			Error:    err.Error(),
		}
	}

	result.Filename = item.Filename
	return result
}

// extractItem extracts text from in-memory data when present, falling back
// to the file path for CLI batches.
func (s *Service) extractItem(item types.BatchItem) (string, error) {
	if item.Data != nil {
		return extract.ExtractBytes(item.Data, item.Filename)
	}
	return extract.ExtractFile(item.Path)
}

// trackOperation wraps an AI call with observability when available
func (s *Service) trackOperation(ctx context.Context, operation string, fn func(context.Context) *observability.AIOperationResult) error {
	if s.obs == nil {
		result := fn(ctx)
		if result != nil {
			return result.Error
		}
		return nil
	}
	return s.obs.GetMetrics().TrackAIOperationWithTokens(ctx, operation, fn, s.obs)
}

// recordBatchMetrics records per-resume and per-batch screening metrics
func (s *Service) recordBatchMetrics(ctx context.Context, results []*types.AnalysisResult, analyzed int) {
	if s.obs == nil {
		return
	}

	metrics := s.obs.GetMetrics()
	for _, result := range results {
		success := !result.IsError()
		metrics.RecordBusinessMetric(ctx, "resume_screened", success, s.obs,
			attribute.String("provider", s.ai.Provider.Name()))
		if success {
			metrics.RecordScreeningScore(ctx, result.OverallScore, s.obs)
		}
	}

	metrics.RecordBusinessMetric(ctx, "batch_processed", analyzed > 0, s.obs,
		attribute.Int("batch_size", len(results)))
	metrics.RecordBatchSize(ctx, len(results), s.obs)
}
