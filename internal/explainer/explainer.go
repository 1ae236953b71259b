package explainer

import (
	"context"
)

// Explainer produces a natural-language explanation for one slide's text.
type Explainer interface {
	// Explain never fails: when the remote API cannot deliver an
	// explanation, the returned string is a human-readable fallback
	// message instead.
	Explain(ctx context.Context, text string) string
}
