package deck

// Extractor pulls the visible text out of every slide in a presentation
// document.
type Extractor interface {
	// ExtractTexts returns one string per slide that contains any text, in
	// slide order. Slides without text are omitted.
	ExtractTexts(path string) ([]string, error)
}
