package cli

import (
	"fmt"
	"strings"

	"talentsift/internal/ai"
	"talentsift/internal/common"
	"talentsift/internal/errors"
	"talentsift/internal/screening"
	"talentsift/internal/types"

	"github.com/spf13/cobra"
)

var screenCmd = &cobra.Command{
	Use:   "screen [resume-files...]",
	Short: "Screen one or more resumes against a job",
	Long: `Screen candidate resumes against a job description or structured
criteria using AI. Each resume is scored independently and the batch is
ranked by overall score, highest first.

Two screening modes are available:
- Description mode: provide the full job posting with --job-description or
  --job-description-file. The AI derives the requirements from the posting.
- Criteria mode: provide structured requirements with --job-title plus the
  optional --skills, --experience, --education and --notes flags.

Supported resume formats: PDF, DOCX and plain text.`,
	Args: cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := configFrom(cmd.Context())
		// Apply default format if not specified
		if screenConfig.OutputFormat == "" {
			screenConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(screenConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runScreen,
}

var screenConfig common.CommandConfig

var (
	screenJobDescription     string
	screenJobDescriptionFile string
	screenJobTitle           string
	screenSkills             string
	screenExperience         string
	screenEducation          string
	screenNotes              string
)

func init() {
	screenCmd.Flags().StringVarP(&screenConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	screenCmd.Flags().StringVar(&screenConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	screenCmd.Flags().StringVar(&screenJobDescription, "job-description", "", "Full job description text (description mode)")
	screenCmd.Flags().StringVar(&screenJobDescriptionFile, "job-description-file", "", "Path to a file containing the job description (description mode)")
	screenCmd.Flags().StringVar(&screenJobTitle, "job-title", "", "Job title (criteria mode)")
	screenCmd.Flags().StringVar(&screenSkills, "skills", "", "Required skills (criteria mode)")
	screenCmd.Flags().StringVar(&screenExperience, "experience", "", "Required experience (criteria mode)")
	screenCmd.Flags().StringVar(&screenEducation, "education", "", "Required education (criteria mode)")
	screenCmd.Flags().StringVar(&screenNotes, "notes", "", "Additional screening notes (criteria mode)")

	screenCmd.MarkFlagsMutuallyExclusive("job-description", "job-description-file")

	// Add completion for format flag
	_ = screenCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := configFrom(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runScreen(cmd *cobra.Command, args []string) error {
	cfg := configFrom(cmd.Context())
	logger := loggerFrom(cmd.Context())

	criteria, err := buildScreeningCriteria(logger)
	if err != nil {
		return err
	}

	screeningConfig, err := cfg.GetScreeningConfig()
	if err != nil {
		return fmt.Errorf("invalid screening configuration: %w", err)
	}

	aiService, err := ai.NewService(screeningConfig, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	defer func() {
		if err := aiService.Close(); err != nil {
			logger.Warn("Failed to close AI service", "error", err)
		}
	}()

	service := screening.NewService(aiService, nil, logger)

	err = common.RunScreeningCommand(
		cmd.Context(),
		logger,
		screenConfig,
		args,
		criteria,
		service,
	)
	if err != nil {
		return fmt.Errorf("failed to screen resumes: %w", err)
	}

	logger.Info("Resume screening completed successfully")
	return nil
}

// buildScreeningCriteria resolves the flags into screening criteria.
// A job description selects description mode; otherwise a job title is
// required for criteria mode.
func buildScreeningCriteria(logger *errors.Logger) (types.ScreeningCriteria, error) {
	jobDescription := screenJobDescription
	if screenJobDescriptionFile != "" {
		fileProcessor := common.NewFileProcessor(logger)
		contents, err := fileProcessor.ValidateAndReadFiles(screenJobDescriptionFile)
		if err != nil {
			return types.ScreeningCriteria{}, err
		}
		jobDescription = contents[0]
	}

	if strings.TrimSpace(jobDescription) != "" {
		if screenJobTitle != "" || screenSkills != "" || screenExperience != "" || screenEducation != "" || screenNotes != "" {
			logger.Warn("Job description provided, ignoring criteria flags")
		}
		return types.ScreeningCriteria{JobDescription: jobDescription}, nil
	}

	if strings.TrimSpace(screenJobTitle) == "" {
		return types.ScreeningCriteria{}, fmt.Errorf("either a job description or a job title is required")
	}

	return types.ScreeningCriteria{
		JobTitle:        screenJobTitle,
		Skills:          screenSkills,
		Experience:      screenExperience,
		Education:       screenEducation,
		AdditionalNotes: screenNotes,
	}, nil
}
