package driven

import "context"

// TextSplitter turns a document's text into ordered, overlapping chunk texts.
type TextSplitter interface {
	// Name returns the splitter name for logging and configuration.
	Name() string

	// SplitText returns the chunk texts in document order.
	// Empty text returns no chunks and no error.
	SplitText(ctx context.Context, text string) ([]string, error)
}
