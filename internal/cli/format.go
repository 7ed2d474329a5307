package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pageza/recipeforge/backend/internal/pipeline"
)

func newFormatCmd(a *app) *cobra.Command {
	var (
		author         string
		zeroDegenerate bool
	)

	cmd := &cobra.Command{
		Use:   "format [file]",
		Short: "Recover a recipe document from raw model output",
		Long: `Runs extraction, normalization, fraction rewriting, repair and validation
over the text in file (or stdin) and prints the resulting document.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			opts := pipeline.Options{}
			if zeroDegenerate {
				opts.ZeroDenominator = pipeline.ZeroOnDegenerate
			}

			doc, err := pipeline.Process(string(raw), author, opts)
			if err != nil {
				return describe(err)
			}
			return printJSON(cmd.OutOrStdout(), doc)
		},
	}

	cmd.Flags().StringVar(&author, "author", uuid.Nil.String(), "author id written into the document")
	cmd.Flags().BoolVar(&zeroDegenerate, "zero-degenerate", false, "rewrite a/0 quantities to 0 instead of failing")
	return cmd
}

func readInput(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return data, nil
}

// describe flattens a pipeline error into one line with its kind.
func describe(err error) error {
	perr, ok := pipeline.AsError(err)
	if !ok {
		return err
	}
	if perr.Attempt > 0 {
		return fmt.Errorf("%s (attempt %d): %w", perr.KindName(), perr.Attempt, err)
	}
	return fmt.Errorf("%s: %w", perr.KindName(), err)
}
