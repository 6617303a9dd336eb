package cli

import (
	"fmt"

	"blogapp/internal/bootstrap"
	"blogapp/internal/cache"
	"blogapp/internal/featureflags"
	"blogapp/internal/repository"
	"blogapp/internal/seed"
	"blogapp/internal/service"

	"github.com/spf13/cobra"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	opts := seed.Options{}
	var clean bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create demo users and articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Redis stays connected so --clean can evict the users it deletes.
			rt, err := connect(bootstrap.Options{})
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			userCache := cache.New(rt.redis)
			if clean {
				if err := seed.ClearAll(ctx, rt.db, userCache); err != nil {
					return err
				}
			}

			hasher, err := service.NewPasswordHasher(rt.cfg.BcryptCost)
			if err != nil {
				return err
			}
			auth := service.NewAuthService(repository.NewUserRepository(rt.db, userCache), hasher)
			articles := service.NewArticleService(repository.NewArticleRepository(rt.db), featureflags.NewManager(rt.cfg.FeatureFlags))

			res, err := seed.NewSeeder(auth, articles, opts).Run(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "created %d users and %d articles\n", len(res.Users), res.Articles)
			for _, u := range res.Users {
				fmt.Fprintf(out, "  %s\n", u.Email)
			}
			fmt.Fprintf(out, "all demo users have the password %q\n", seed.DemoPassword)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.NumUsers, "users", 5, "number of users to create")
	cmd.Flags().IntVar(&opts.ArticlesPerUser, "articles", 3, "articles per user")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed for reproducible content (0 = random)")
	cmd.Flags().BoolVar(&clean, "clean", false, "delete all users and articles first")

	return cmd
}
