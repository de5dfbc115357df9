package cli

import (
	"context"
	"fmt"

	"resumeflow/internal/ai"
	"resumeflow/internal/common"
	"resumeflow/internal/formatters"
	"resumeflow/internal/types"

	"github.com/spf13/cobra"
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance [resume-file] [job-description-file]",
	Short: "Enhance resume text with AI",
	Long: `Run one AI enhancement pass over a plain-text resume file. The --kind
flag selects the style of rewrite: grammar, keywords, general, summary,
or bullet_points. Keyword enhancement needs a job description file as
the second argument so the rewrite has terms to target.`,
	Args: cobra.RangeArgs(1, 2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if enhanceConfig.OutputFormat == "" {
			enhanceConfig.OutputFormat = cfg.App.DefaultFormat
		}
		if err := common.ValidateOutputFormat(enhanceConfig.OutputFormat, cfg.App.SupportedFormats); err != nil {
			return err
		}

		kind := types.EnhancementKind(enhanceKind)
		if !kind.Valid() {
			return fmt.Errorf("invalid enhancement kind %q (must be grammar, keywords, general, summary, or bullet_points)", enhanceKind)
		}
		if kind == types.EnhanceKeywords && len(args) < 2 {
			return fmt.Errorf("keyword enhancement requires a job description file")
		}
		return nil
	},
	RunE: runEnhance,
}

var (
	enhanceConfig common.CommandConfig
	enhanceKind   string
)

func init() {
	enhanceCmd.Flags().StringVarP(&enhanceConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	enhanceCmd.Flags().StringVar(&enhanceConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	enhanceCmd.Flags().StringVarP(&enhanceKind, "kind", "k", string(types.EnhanceGeneral), "Enhancement kind: grammar, keywords, general, summary, bullet_points")

	_ = enhanceCmd.RegisterFlagCompletionFunc("kind", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{
			string(types.EnhanceGrammar),
			string(types.EnhanceKeywords),
			string(types.EnhanceGeneral),
			string(types.EnhanceSummary),
			string(types.EnhanceBulletPoints),
		}, cobra.ShellCompDirectiveNoFileComp
	})
}

func runEnhance(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	enhanceAIConfig := cfg.GetEnhanceConfig()
	aiService, err := ai.NewService(&enhanceAIConfig, "enhance", logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	defer func() {
		if err := aiService.Close(); err != nil {
			logger.Warn("Failed to close AI service", "error", err)
		}
	}()

	kind := types.EnhancementKind(enhanceKind)

	createInput := func(contents []string) (types.EnhanceInput, error) {
		in := types.EnhanceInput{Text: contents[0], Kind: kind}
		if len(contents) > 1 {
			in.JobDescription = contents[1]
		}
		return in, nil
	}

	logDetails := func(input types.EnhanceInput, cfg common.CommandConfig) {
		logger.Info("Starting resume enhancement",
			"kind", string(input.Kind),
			"resume_chars", len(input.Text),
			"output_format", cfg.OutputFormat)
	}

	enhanceOperation := func(ctx context.Context, input types.EnhanceInput) (formatters.EnhancedText, error) {
		enhanced, err := aiService.Enhance(ctx, input)
		if err != nil {
			return formatters.EnhancedText{}, err
		}
		return formatters.EnhancedText{Kind: string(kind), Text: enhanced}, nil
	}

	err = common.RunAICommand(
		cmd.Context(),
		logger,
		enhanceConfig,
		args,
		createInput,
		enhanceOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to enhance resume: %w", err)
	}
	logger.Info("Resume enhancement completed successfully")
	return nil
}
