package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Andrew-Beniash/tai/internal/repository"
	"github.com/Andrew-Beniash/tai/internal/seed"
)

// seedCmd 写入演示数据
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo data into the database",
	Long: `Create the demo users, projects, documents and tasks.

Records that already exist are left untouched, so the command can be
run repeatedly.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	data, err := seed.Load()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	res, err := seed.NewSeeder(
		repository.NewUserRepository(e.db),
		repository.NewProjectRepository(e.db),
		repository.NewDocumentRepository(e.db),
		repository.NewTaskRepository(e.db),
	).Apply(ctx, data)
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "seeded: %s\n", res)
	return nil
}
