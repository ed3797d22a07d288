package main

import (
	"errors"

	"github.com/spf13/cobra"

	"cardgate/core"
)

func newSeedCmd(cfg *core.Config) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create users listed in a YAML seed file; existing users are skipped",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				file = cfg.SeedUsersPath
			}
			if file == "" {
				return errors.New("--file or SEED_USERS_PATH is required")
			}
			ctx := cmd.Context()
			db, err := core.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			hasher := core.NewBcryptHasher(cfg.BcryptCost, nil)
			res, err := core.SeedUsersFromFile(ctx, core.NewPgUserRepository(db), hasher, file)
			if err != nil {
				return err
			}
			cmd.Printf("created=%d skipped=%d\n", res.Created, res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the YAML seed file")
	return cmd
}
