package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pageza/recipeforge/backend/internal/slug"
)

func newSlugCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slug <title>",
		Short: "Print the slug base for a title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), slug.Slugify(strings.Join(args, " ")))
			return err
		},
	}
}
