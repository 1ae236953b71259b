package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"deckexplain/internal/config"
	"deckexplain/internal/deck"
	"deckexplain/internal/explainer"
	"deckexplain/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.ErrorContext(ctx, "OPENAI_API_KEY is required",
			"error", err,
			"envVar", "OPENAI_API_KEY")

		os.Exit(1)
	}

	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() != 1 {
		printUsage()
		os.Exit(2)
	}
	docPath := flag.Arg(0)

	runner := pipeline.NewRunner(
		deck.NewPPTXExtractor(),
		explainer.NewOpenAIExplainer(cfg.OpenAIAPIKey, log),
		log,
	)

	explanations, err := runner.Run(ctx, docPath)
	if err != nil {
		log.ErrorContext(ctx, "Failed to process presentation",
			"error", err,
			"path", docPath)

		os.Exit(1)
	}

	outputPath, err := runner.Save(ctx, docPath, explanations)
	if err != nil {
		log.ErrorContext(ctx, "Failed to save explanations",
			"error", err,
			"path", docPath)

		os.Exit(1)
	}

	log.InfoContext(ctx, "Explanations are saved",
		"outputPath", outputPath,
		"slideCount", len(explanations))
}

func printUsage() {
	out := flag.CommandLine.Output()
	fmt.Fprintln(out, "usage: deckexplain file_path")
	fmt.Fprintln(out, "Explain PowerPoint slides using GPT-3.5.")
}
