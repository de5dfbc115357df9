package cli

import (
	"fmt"

	"resumeflow/internal/ai"
	"resumeflow/internal/common"
	"resumeflow/internal/types"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score [resume-file] [job-description-file]",
	Short: "Score a resume against ATS criteria",
	Long: `Score a resume on ATS compliance, keyword match and content quality.
The command takes the path to a plain-text resume file and, optionally,
the path to a job description file. With a job description the keyword
analysis reports matched and missing terms for that role.`,
	Args: cobra.RangeArgs(1, 2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if scoreConfig.OutputFormat == "" {
			scoreConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(scoreConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runScore,
}

var scoreConfig common.CommandConfig

func init() {
	scoreCmd.Flags().StringVarP(&scoreConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	scoreCmd.Flags().StringVar(&scoreConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	// Add completion for format flag
	_ = scoreCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return cfg.App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	})
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	scoreAIConfig := cfg.GetScoreConfig()
	aiService, err := ai.NewService(&scoreAIConfig, "score", logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	defer func() {
		if err := aiService.Close(); err != nil {
			logger.Warn("Failed to close AI service", "error", err)
		}
	}()

	createInput := func(contents []string) (types.ScoreInput, error) {
		in := types.ScoreInput{ResumeText: contents[0]}
		if len(contents) > 1 {
			in.JobDescription = contents[1]
		}
		return in, nil
	}

	logDetails := func(input types.ScoreInput, cfg common.CommandConfig) {
		logger.Info("Starting resume scoring",
			"resume_chars", len(input.ResumeText),
			"job_description_chars", len(input.JobDescription),
			"output_format", cfg.OutputFormat)
	}

	err = common.RunAICommand(
		cmd.Context(),
		logger,
		scoreConfig,
		args,
		createInput,
		aiService.Score,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to score resume: %w", err)
	}
	logger.Info("Resume scoring completed successfully")
	return nil
}
