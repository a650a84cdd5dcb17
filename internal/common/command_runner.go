package common

import (
	"context"
	"path/filepath"

	"talentsift/internal/errors"
	"talentsift/internal/screening"
	"talentsift/internal/types"
)

// RunScreeningCommand encapsulates the common logic for the file-based
// screening CLI: validate the resume paths, run the batch, emit the output.
func RunScreeningCommand(
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	resumeFiles []string,
	criteria types.ScreeningCriteria,
	service *screening.Service,
) error {
	fileProcessor := NewFileProcessor(logger)
	outputHandler := NewOutputHandler(logger)

	if err := fileProcessor.ValidateResumeFiles(resumeFiles...); err != nil {
		return err
	}

	items := make([]types.BatchItem, len(resumeFiles))
	for i, path := range resumeFiles {
		items[i] = types.BatchItem{
			Filename: filepath.Base(path),
			Path:     path,
		}
	}

	logger.Info("Starting resume screening",
		"resumes", len(items),
		"mode", string(criteria.Mode()))

	batch := service.ScreenBatch(ctx, items, criteria)

	logger.Info("Screening complete",
		"analyzed", batch.Analyzed,
		"errors", batch.Errors)

	return outputHandler.HandleOutput(batch, cmdConfig)
}
