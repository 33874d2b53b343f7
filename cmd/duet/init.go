package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/duetml/duet/internal/config"
	"github.com/duetml/duet/internal/storage/sqlite"
	"github.com/duetml/duet/pkg/log"
)

const envTemplate = `# Duet runtime configuration
GEMINI_API_KEY=
#DUET_PERSONA_A=aya
#DUET_PERSONA_B=rin
#DUET_MODERATOR=iris
#DUET_IMAGE_ENABLED=false
#DUET_DEBUG=0
`

const personaTemplate = `You voice two close friends chatting together with the user.

aya is warm, impulsive and easily excited. She uses casual slang and
exclamation marks, and she remembers small personal details.

rin is dry, thoughtful and a little sleepy. She answers in short sentences
and teases aya gently.

Stay in character. Keep lines short and natural. React to what the user
actually said, not to a generic topic.
`

var seedExamples = []string{
	"user: I finally finished the report!\naya: YESSS I knew you would!!\nrin: ...told you the deadline was fine.",
	"user: it's raining again\naya: rain walk? rain walk!!\nrin: I'm staying under the blanket. Bring me back something warm.",
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold the Duet runtime directory",
	Long:  `Creates the runtime directory with a .env template, a default persona file, the database and a few seed dialogue examples. Existing files are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()
		logger := log.FromCtx(ctx)

		runtimePath := config.GetRuntimePath()
		if err := os.MkdirAll(runtimePath, 0755); err != nil {
			return fmt.Errorf("failed to create runtime directory: %w", err)
		}

		if err := writeIfAbsent(filepath.Join(runtimePath, ".env"), envTemplate); err != nil {
			return err
		}

		if err := writeIfAbsent(filepath.Join(runtimePath, "PERSONAS.md"), personaTemplate); err != nil {
			return err
		}

		db, err := sqlite.NewDB(ctx, filepath.Join(runtimePath, "duet.db"))
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		examples := sqlite.NewExamplesRepo(db)
		if existing, err := examples.RandomExample(ctx); err != nil {
			return err
		} else if existing == "" {
			for _, ex := range seedExamples {
				if err := examples.AddExample(ctx, ex); err != nil {
					return err
				}
			}
			logger.Info().Int("count", len(seedExamples)).Msg("seeded dialogue examples")
		}

		logger.Info().Str("path", runtimePath).Msg("runtime initialized; set GEMINI_API_KEY in .env and run 'duet start'")
		return nil
	},
}

func writeIfAbsent(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)
}
