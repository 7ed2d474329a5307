package cli

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pageza/recipeforge/backend/internal/service"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		text   string
		prompt string
		author string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Ask the LLM for a recipe and print the recovered document",
		Long: `Calls the configured LLM with the same prompts and retry budget as the
API and prints the validated document. Nothing is saved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := a.setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			llm, err := a.newLLM(cfg)
			if err != nil {
				return err
			}
			producer := service.NewRecipeProducer(llm, log, service.WithAttempts(cfg.PipelineMaxAttempts))

			doc, err := producer.Produce(cmd.Context(), service.ProduceInput{Text: text, Prompt: prompt}, author)
			if err != nil {
				return describe(err)
			}
			return printJSON(cmd.OutOrStdout(), doc)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "free recipe text to structure")
	cmd.Flags().StringVar(&prompt, "prompt", "", "request for a new recipe")
	cmd.Flags().StringVar(&author, "author", uuid.Nil.String(), "author id written into the document")
	cmd.MarkFlagsMutuallyExclusive("text", "prompt")
	cmd.MarkFlagsOneRequired("text", "prompt")
	return cmd
}
