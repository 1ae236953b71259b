package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"deckexplain/internal/deck"
	"deckexplain/internal/explainer"
	"deckexplain/internal/pacing"
)

const outputIndent = "    "

// Runner drives one presentation through extraction, per-slide explanation
// and persistence of the collected results.
type Runner struct {
	extractor deck.Extractor
	explainer explainer.Explainer
	sleep     func(ctx context.Context, d time.Duration) error
	log       *slog.Logger
}

// NewRunner builds a new runner instance.
func NewRunner(
	extractor deck.Extractor,
	explainer explainer.Explainer,
	log *slog.Logger,
) *Runner {
	return &Runner{
		extractor: extractor,
		explainer: explainer,
		sleep:     pacing.Sleep,
		log:       log,
	}
}

// Run extracts the slide texts of the document at docPath and collects one
// explanation per slide, in slide order. Requests are paced to respect the
// API's rate limits. An extraction failure aborts the run; explanation
// failures do not, because the explainer degrades them to fallback strings.
func (r *Runner) Run(ctx context.Context, docPath string) ([]string, error) {
	r.log.InfoContext(ctx, "Processing presentation",
		"path", docPath)

	texts, err := r.extractor.ExtractTexts(docPath)
	if err != nil {
		return nil, fmt.Errorf("extract slide texts: %w", err)
	}

	explanations := make([]string, 0, len(texts))
	for i, text := range texts {
		slide := i + 1
		r.log.InfoContext(ctx, "Submitting slide for explanation",
			"slide", slide,
			"slideCount", len(texts))

		explanations = append(explanations, r.explainer.Explain(ctx, text))

		pause := pacing.PauseAfter(slide, len(texts))
		if pause == 0 {
			continue
		}

		if pause == pacing.BatchPause {
			r.log.InfoContext(ctx, "Processed slide batch so pausing to comply with rate limits",
				"slide", slide,
				"pauseSeconds", pause.Seconds())
		}

		if err := r.sleep(ctx, pause); err != nil {
			return nil, fmt.Errorf("pause after slide %d: %w", slide, err)
		}
	}

	return explanations, nil
}

// Save writes the explanations as a pretty-printed JSON array of strings
// next to the document, overwriting any previous artifact for the same
// path. It returns the artifact path.
func (r *Runner) Save(
	ctx context.Context,
	docPath string,
	explanations []string,
) (string, error) {
	outputPath := OutputPath(docPath)
	r.log.InfoContext(ctx, "Saving explanations",
		"outputPath", outputPath,
		"slideCount", len(explanations))

	if explanations == nil {
		explanations = []string{}
	}

	body, err := json.MarshalIndent(explanations, "", outputIndent)
	if err != nil {
		return "", fmt.Errorf("marshal explanations: %w", err)
	}

	if err := os.WriteFile(outputPath, body, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", outputPath, err)
	}

	return outputPath, nil
}

// OutputPath returns the artifact path for a document: the document's path
// with its extension replaced by .json. Leading dots belong to the file
// name, not the extension, so a hidden file such as .pptx keeps its full
// name and gets .json appended.
func OutputPath(docPath string) string {
	ext := filepath.Ext(docPath)
	if stem := strings.TrimSuffix(filepath.Base(docPath), ext); strings.TrimLeft(stem, ".") == "" {
		ext = ""
	}

	return strings.TrimSuffix(docPath, ext) + ".json"
}
