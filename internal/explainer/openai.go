package explainer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"deckexplain/internal/pacing"
)

const (
	temperature = 0.5
	maxTokens   = 1500

	maxAttempts    = 5
	initialBackoff = time.Second
	maxBackoff     = 60 * time.Second
	rateLimitPause = 60 * time.Second

	previewLimit = 60

	systemPrompt     = "You are a helpful assistant."
	userPromptPrefix = "Explain the following presentation slide content succinctly:\n\n"

	// retriesExhaustedFallback is written to the output artifact when the
	// attempt budget is spent, so its wording is part of the output contract.
	retriesExhaustedFallback = "Failed to get explanation after several retries due to rate limits."
)

// failureKind classifies one failed explanation request for the retry
// policy: rate limits wait a flat minute, connection and API failures
// consume the exponential backoff, anything else is not retried.
type failureKind int

const (
	failureRateLimit failureKind = iota
	failureConnection
	failureAPI
	failureOther
)

// OpenAIExplainer calls OpenAI's Chat Completions API to produce slide
// explanations.
type OpenAIExplainer struct {
	complete func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
	sleep    func(ctx context.Context, d time.Duration) error
	log      *slog.Logger
}

// NewOpenAIExplainer builds a new explainer instance. The client's own
// retry machinery is disabled; the policy in Explain is the only retry
// authority.
func NewOpenAIExplainer(apiKey string, log *slog.Logger) *OpenAIExplainer {
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)

	return &OpenAIExplainer{
		complete: func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
			return client.Chat.Completions.New(ctx, params)
		},
		sleep: pacing.Sleep,
		log:   log,
	}
}

// Explain requests an explanation of one slide's text, retrying per the
// failure kind with a shared budget of maxAttempts across all kinds. A
// rate-limit retry does not advance the exponential backoff delay.
func (e *OpenAIExplainer) Explain(ctx context.Context, text string) string {
	delay := initialBackoff

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		explanation, err := e.requestExplanation(ctx, text)
		if err == nil {
			e.log.InfoContext(ctx, "Received explanation",
				"preview", preview(explanation))

			return explanation
		}

		switch classify(err) {
		case failureRateLimit:
			e.log.WarnContext(ctx, "Rate limit exceeded so waiting before retrying",
				"pauseSeconds", rateLimitPause.Seconds(),
				"attempt", attempt)

			if sleepErr := e.sleep(ctx, rateLimitPause); sleepErr != nil {
				return fallbackMessage(sleepErr)
			}
		case failureConnection:
			e.log.ErrorContext(ctx, "Failed to connect to OpenAI API",
				"error", err,
				"retryDelaySeconds", delay.Seconds(),
				"attempt", attempt)

			if sleepErr := e.sleep(ctx, delay); sleepErr != nil {
				return fallbackMessage(sleepErr)
			}
			delay = min(delay*2, maxBackoff)
		case failureAPI:
			e.log.ErrorContext(ctx, "OpenAI API returned an error",
				"error", err,
				"retryDelaySeconds", delay.Seconds(),
				"attempt", attempt)

			if sleepErr := e.sleep(ctx, delay); sleepErr != nil {
				return fallbackMessage(sleepErr)
			}
			delay = min(delay*2, maxBackoff)
		default:
			e.log.ErrorContext(ctx, "Failed to process slide",
				"error", err)

			return fallbackMessage(err)
		}
	}

	return retriesExhaustedFallback
}

func (e *OpenAIExplainer) requestExplanation(
	ctx context.Context,
	text string,
) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(userPromptPrefix + text),
	}

	resp, err := e.complete(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModelGPT3_5Turbo,
		Messages:    messages,
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion choices are missing")
	}

	explanation := strings.TrimSpace(resp.Choices[0].Message.Content)
	if explanation == "" {
		return "", errors.New("chat completion choice message content is missing")
	}

	return explanation, nil
}

// classify maps a request error onto the retry policy's failure kinds.
// Timeouts are not distinguished from other connection failures.
func classify(err error) failureKind {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			return failureRateLimit
		}

		return failureAPI
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return failureConnection
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return failureConnection
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return failureConnection
	}

	return failureOther
}

// fallbackMessage stands in for an explanation that could not be obtained.
func fallbackMessage(err error) string {
	return fmt.Sprintf("Error processing slide: %v", err)
}

func preview(explanation string) string {
	runes := []rune(explanation)
	if len(runes) > previewLimit {
		runes = runes[:previewLimit]
	}

	return string(runes) + "..."
}
