package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"engine/internal/infra"
	"engine/internal/infra/credentials"
	"engine/internal/sqlinline"
)

var envKeys = map[string]string{
	credentials.ProviderGemini: "GEMINI_API_KEY",
	credentials.ProviderKie:    "KIE_API_KEY",
}

func main() {
	var (
		keyFlag      string
		providerFlag string
		clearFlag    bool
	)
	flag.StringVar(&keyFlag, "key", "", "API key for the provider (defaults to the provider's env var)")
	flag.StringVar(&providerFlag, "provider", credentials.ProviderGemini, "provider slot: gemini or kie")
	flag.BoolVar(&clearFlag, "clear", false, "remove the stored key instead of writing one")
	flag.Parse()

	_ = godotenv.Load()

	provider := strings.ToLower(strings.TrimSpace(providerFlag))
	if !credentials.Supported(provider) {
		exitf("unsupported provider %q", providerFlag)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitf("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitf("connect: %v", err)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "providerkey").Str("provider", provider).Logger()
	runner := infra.NewSQLRunner(pool, logger)
	if _, err := runner.Exec(ctx, sqlinline.QCreateEngineSchema); err != nil {
		exitf("ensure schema: %v", err)
	}
	store := credentials.NewStore(runner)

	if clearFlag {
		if err := store.Clear(ctx, provider); err != nil {
			exitf("clear %s key: %v", provider, err)
		}
		logger.Info().Msg("provider key cleared")
		return
	}

	source := "flag"
	key := strings.TrimSpace(keyFlag)
	if key == "" {
		key = strings.TrimSpace(os.Getenv(envKeys[provider]))
		source = "env"
	}
	if key == "" {
		exitf("%s key is required via -key or %s", provider, envKeys[provider])
	}
	if err := store.SetToken(ctx, provider, key, source); err != nil {
		exitf("store %s key: %v", provider, err)
	}
	logger.Info().Str("source", source).Msg("provider key stored")
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
