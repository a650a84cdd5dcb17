package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"talentsift/internal/ai"
	"talentsift/internal/observability"
	"talentsift/internal/screening"
	"talentsift/internal/types"
	"talentsift/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// ScreenResponse is the JSON body returned by the screen endpoint
type ScreenResponse struct {
	Success  bool                    `json:"success"`
	Results  []*types.AnalysisResult `json:"results"`
	Analyzed int                     `json:"analyzed"`
	Errors   int                     `json:"errors"`
}

// createScreenHandler wraps the batch screening handler with observability.
// The endpoint accepts a multipart form: one or more files under "resumes"
// plus the criteria fields.
func (s *Server) createScreenHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("talentsift.api")
		ctx, span := tracer.Start(ctx, "api.screen")
		defer span.End()

		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := r.ParseMultipartForm(s.MaxRequestSize); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid multipart form", err.Error(), http.StatusBadRequest)
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		criteria, err := parseCriteriaForm(r)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid screening criteria", err.Error(), http.StatusBadRequest)
			return
		}

		fileHeaders := r.MultipartForm.File["resumes"]
		if len(fileHeaders) == 0 {
			err := fmt.Errorf("no files to analyze")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "No files to analyze", "at least one file is required under the 'resumes' field", http.StatusBadRequest)
			return
		}

		items, err := readBatchItems(fileHeaders)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "io"))
			writeErrorResponse(w, "Failed to read uploaded files", err.Error(), http.StatusBadRequest)
			return
		}

		var totalSize int64
		for _, item := range items {
			totalSize += int64(len(item.Data))
		}
		s.Logger.Info("Received screening request",
			"files", len(items),
			"total_size", utils.FormatFileSize(totalSize),
			"mode", string(criteria.Mode()))

		span.SetAttributes(
			attribute.Int("request.batch_size", len(items)),
			attribute.String("request.mode", string(criteria.Mode())),
			attribute.String("operation", "screen"),
		)

		// Resolve screening configuration; a missing API key surfaces here
		screeningConfig, err := s.AppConfig.GetScreeningConfig()
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "configuration"))
			writeErrorResponse(w, "Screening is not configured", err.Error(), http.StatusInternalServerError)
			return
		}

		aiService, err := ai.NewService(screeningConfig, s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}

		defer func() {
			if err := aiService.Close(); err != nil {
				s.Logger.Warn("Failed to close AI service", "error", err)
			}
		}()

		service := screening.NewService(aiService, om, s.Logger)
		batch := service.ScreenBatch(ctx, items, criteria)

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("response.analyzed", batch.Analyzed),
			attribute.Int("response.errors", batch.Errors),
		)

		writeJSONResponse(w, s.Logger, ScreenResponse{
			Success:  true,
			Results:  batch.Results,
			Analyzed: batch.Analyzed,
			Errors:   batch.Errors,
		})
	}
}

// parseCriteriaForm builds screening criteria from the multipart form
// fields, enforcing the per-mode required fields.
func parseCriteriaForm(r *http.Request) (types.ScreeningCriteria, error) {
	mode := r.FormValue("mode")
	if mode == "" {
		mode = "criteria"
	}

	switch mode {
	case "description":
		jobDescription := strings.TrimSpace(r.FormValue("job_description"))
		if jobDescription == "" {
			return types.ScreeningCriteria{}, fmt.Errorf("job description is required")
		}
		return types.ScreeningCriteria{JobDescription: jobDescription}, nil

	case "criteria":
		jobTitle := strings.TrimSpace(r.FormValue("job_title"))
		if jobTitle == "" {
			return types.ScreeningCriteria{}, fmt.Errorf("job title is required")
		}
		return types.ScreeningCriteria{
			JobTitle:        jobTitle,
			Skills:          r.FormValue("skills"),
			Experience:      r.FormValue("experience"),
			Education:       r.FormValue("education"),
			AdditionalNotes: r.FormValue("additional_notes"),
		}, nil

	default:
		return types.ScreeningCriteria{}, fmt.Errorf("unknown screening mode: %s", mode)
	}
}

// readBatchItems loads every uploaded resume into memory as a batch item
func readBatchItems(fileHeaders []*multipart.FileHeader) ([]types.BatchItem, error) {
	items := make([]types.BatchItem, 0, len(fileHeaders))

	for _, header := range fileHeaders {
		file, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", header.Filename, err)
		}

		data, err := io.ReadAll(file)
		closeErr := file.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", header.Filename, err)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("failed to close %s: %w", header.Filename, closeErr)
		}

		items = append(items, types.BatchItem{
			Filename: header.Filename,
			Data:     data,
		})
	}

	return items, nil
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Check if this request was rate limited by examining the response
			// We'll wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			// If rate limited, record metric
			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := om.GetMetrics()
				metrics.RecordBusinessMetric(r.Context(), "rate_limit_hit", true, om,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
