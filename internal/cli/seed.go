package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/pageza/recipeforge/backend/internal/database"
	"github.com/pageza/recipeforge/backend/internal/models"
	"github.com/pageza/recipeforge/backend/internal/service"
)

type seedOptions struct {
	dir      string
	email    string
	name     string
	password string
}

func newSeedCmd(a *app) *cobra.Command {
	opts := seedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import recipe documents from a directory",
		Long: `Finds or registers the user given by --email and saves every *.json
document in --dir as one of their recipes. Documents go through the same
validation and slug resolution as POST /recipes/from-json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := a.setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			db, err := database.Open(cfg, log)
			if err != nil {
				return err
			}
			if err := database.RunMigrations(db, cfg.MigrationsDir, log); err != nil {
				return err
			}

			auth := service.NewAuthService(db, cfg.JWTSecret, cfg.JWTTTL)
			recipes := service.NewRecipeService(db, nil, service.NewEmbeddingService(), log)
			return runSeed(cmd.Context(), db, auth, recipes, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", "", "directory of recipe JSON documents")
	cmd.Flags().StringVar(&opts.email, "email", "seed@example.com", "owner of the imported recipes")
	cmd.Flags().StringVar(&opts.name, "name", "Seed User", "name used when the owner is registered")
	cmd.Flags().StringVar(&opts.password, "password", "seedpassword123", "password used when the owner is registered")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

func runSeed(ctx context.Context, db *gorm.DB, auth service.IAuthService, recipes service.IRecipeService, opts seedOptions, out io.Writer) error {
	owner, err := seedOwner(ctx, db, auth, opts)
	if err != nil {
		return err
	}

	files, err := filepath.Glob(filepath.Join(opts.dir, "*.json"))
	if err != nil {
		return err
	}
	sort.Strings(files)
	if len(files) == 0 {
		return fmt.Errorf("no *.json documents in %s", opts.dir)
	}

	var failed int
	for _, path := range files {
		name := filepath.Base(path)
		recipe, err := seedFile(ctx, recipes, path, owner)
		if err != nil {
			failed++
			fmt.Fprintf(out, "skipped %s: %v\n", name, describe(err))
			continue
		}
		fmt.Fprintf(out, "created %s from %s\n", recipe.Slug, name)
	}

	fmt.Fprintf(out, "imported %d of %d documents for %s\n", len(files)-failed, len(files), owner.Email)
	if failed > 0 {
		return fmt.Errorf("%d documents could not be imported", failed)
	}
	return nil
}

func seedOwner(ctx context.Context, db *gorm.DB, auth service.IAuthService, opts seedOptions) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(opts.email))).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up %s: %w", opts.email, err)
	}

	created, _, err := auth.Register(ctx, opts.name, opts.email, opts.password)
	if err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", opts.email, err)
	}
	return created, nil
}

func seedFile(ctx context.Context, recipes service.IRecipeService, path string, owner *models.User) (*models.Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("not a JSON object: %w", err)
	}
	if tree == nil {
		return nil, errors.New("not a JSON object")
	}
	return recipes.CreateFromDocument(ctx, tree, owner.ID)
}

