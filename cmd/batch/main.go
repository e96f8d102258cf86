package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"engine/internal/bootstrap"
	"engine/internal/domain"
	"engine/internal/domain/jsoncfg"
	"engine/internal/infra"
)

func main() {
	var (
		fileFlag string
		taskFlag string
		dryRun   bool
	)
	flag.StringVar(&fileFlag, "file", "", "NanoBanana project JSON to ingest and run")
	flag.StringVar(&taskFlag, "task", "", "run only the task with this ID")
	flag.BoolVar(&dryRun, "dry-run", false, "skip provider calls and downloads")
	flag.Parse()

	if fileFlag == "" {
		fmt.Fprintln(os.Stderr, "-file is required")
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "batch").Logger()

	data, err := os.ReadFile(fileFlag)
	if err != nil {
		logger.Fatal().Err(err).Str("file", fileFlag).Msg("read project file")
	}
	project, err := jsoncfg.DecodeProject(data)
	if err != nil {
		logger.Fatal().Err(err).Msg("decode project")
	}
	if taskFlag != "" {
		project.ImageTasks = selectTask(project.ImageTasks, taskFlag)
		if len(project.ImageTasks) == 0 {
			logger.Fatal().Str("task_id", taskFlag).Msg("task not found in project")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build engine")
	}
	defer engine.Close()

	id, err := engine.Batch.Ingest(ctx, project)
	if err != nil {
		logger.Error().Err(err).Str("code", domain.ErrorCode(err)).Msg("ingestion rejected")
		engine.Close()
		os.Exit(1)
	}
	results, err := engine.Batch.Generate(ctx, id, dryRun)
	if err != nil {
		logger.Error().Err(err).Msg("generation failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]any{"project_id": id, "results": results})
	if err != nil {
		engine.Close()
		os.Exit(1)
	}
}

func selectTask(tasks []domain.ImageTask, id string) []domain.ImageTask {
	for _, t := range tasks {
		if t.TaskID == id {
			return []domain.ImageTask{t}
		}
	}
	return nil
}
