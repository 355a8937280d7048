package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"quest-bot/internal/config"
	"quest-bot/internal/infra/memory"
	"quest-bot/internal/infra/postgres"
)

// NewQuestionsCmd groups question pack maintenance commands.
func NewQuestionsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Manage quest questions",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import [file]",
		Short: "Upsert a YAML question pack into Postgres",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			return importQuestions(cmd.Context(), *configPath, file)
		},
	})
	return cmd
}

func importQuestions(ctx context.Context, configPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if file == "" {
		file = cfg.Quest.QuestionsFile
	}
	if file == "" {
		return fmt.Errorf("no question pack given and quest.questions_file not configured")
	}
	questions, err := memory.LoadQuestionPack(file)
	if err != nil {
		return err
	}

	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgres.ImportQuestions(ctx, pool, questions); err != nil {
		return err
	}
	log.Printf("imported %d questions from %s", len(questions), file)
	return nil
}
