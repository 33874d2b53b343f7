package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/duetml/duet/internal/config"
	"github.com/duetml/duet/internal/providers/gemini"
	"github.com/duetml/duet/internal/service/ability"
	"github.com/duetml/duet/internal/service/imagegen"
	"github.com/duetml/duet/internal/service/orchestrator"
	"github.com/duetml/duet/internal/storage/memstore"
	"github.com/duetml/duet/internal/storage/sqlite"
	"github.com/duetml/duet/internal/transport/cli"
	"github.com/duetml/duet/pkg/log"
	"github.com/duetml/duet/pkg/pool"
	"github.com/duetml/duet/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	geminiCfg := config.NewGeminiConfig(ctx)
	imageCfg := config.NewImageConfig(ctx)

	// 2. Relational storage
	db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	services = append(services, srv.NewCleanup(db.Close))

	stateRepo := sqlite.NewStateRepo(db)
	concernsRepo := sqlite.NewConcernsRepo(db)
	stylesRepo := sqlite.NewStylesRepo(db)
	vocabRepo := sqlite.NewVocabRepo(db)
	examplesRepo := sqlite.NewExamplesRepo(db)

	// 3. Generation backend
	client, err := gemini.NewClient(ctx, geminiCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize generation backend")
	}
	primary := gemini.NewGenerator(client)
	fast := gemini.NewFastGenerator(client)
	embedder := gemini.NewEmbedder(client)

	// 4. Vector memory, probed before anything serves
	memory, err := memstore.New(appCfg.GetMemoryPath(), embedder, float32(appCfg.SimilarityFloor))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open memory store")
	}
	if err := memory.Canary(ctx); err != nil {
		logger.Fatal().Err(err).Msg("memory store failed startup probe")
	}
	logger.Info().Int("chunks", memory.Count()).Msg("memory store ready")

	// 5. Worker pool (sync/async bridge)
	workers := pool.New(appCfg.PoolWorkers, appCfg.PoolQueueSize)
	services = append(services, workers)

	// 6. Image pipeline
	images := imagegen.New(gemini.NewImagen(client, imageCfg), fast, stylesRepo, imageCfg)
	learner := imagegen.NewLearner(gemini.NewVision(client), stylesRepo)

	// 7. Orchestrator
	assembler := orchestrator.NewAssembler(fast, memory, stateRepo, vocabRepo, examplesRepo, concernsRepo, appCfg)
	invoker := orchestrator.NewInvoker(primary, geminiCfg)
	dispatcher := orchestrator.NewDispatcher(workers, fast, memory, stateRepo, concernsRepo, vocabRepo, images, appCfg)
	orch := orchestrator.New(
		assembler, invoker, dispatcher,
		orchestrator.NewConfirmations(),
		images,
		loadPersonaPrompt(ctx, appCfg),
		appCfg,
	)

	// 8. Abilities
	abilities := ability.New(fast)
	reporter := ability.NewReporter(primary, memory)

	// 9. Transport
	if appCfg.EnableCLI {
		surface, err := cli.NewReadLine(orch, images, learner, abilities, reporter, appCfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize CLI surface")
		}
		dispatcher.SetNotices(surface)
		services = append(services, surface)
	}

	return services
}

// loadPersonaPrompt reads the persona wording file. A missing file falls back
// to a minimal built-in prompt so a fresh checkout still talks.
func loadPersonaPrompt(ctx context.Context, cfg *config.AppConfig) string {
	data, err := os.ReadFile(cfg.GetPersonaPromptPath())
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Str("path", cfg.GetPersonaPromptPath()).
			Msg("persona prompt missing, using built-in default")
		return defaultPersonaPrompt(cfg)
	}
	return string(data)
}

func defaultPersonaPrompt(cfg *config.AppConfig) string {
	return "You voice two close friends, " + cfg.PersonaA + " and " + cfg.PersonaB +
		", chatting together with the user. " + cfg.PersonaA + " is warm and impulsive; " +
		cfg.PersonaB + " is dry and thoughtful. Stay in character, keep lines short and natural."
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
