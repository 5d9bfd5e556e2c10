package task

// DetectionSignal is one polling cycle's inference about a single
// interesting window: what category of work it implies, a human-readable
// label, and the context key used to match it against existing tasks.
// Signals are ephemeral; they are consumed by the ledger and never
// persisted.
type DetectionSignal struct {
	// Category of work this window implies.
	Category Category

	// Label is the human-readable description from the matched rule.
	Label string

	// ContextKey identifies what is being worked on (workspace, document,
	// or repository path). Two signals with the same category and context
	// key refer to the same logical task.
	ContextKey string

	// WindowTitle is the raw title of the window that produced the signal.
	WindowTitle string

	// ProcessName is the owning process.
	ProcessName string

	// URL is the browser address-bar content, when available.
	URL string

	// DocumentName is the extracted document or workspace identity, when
	// available.
	DocumentName string
}

// Key returns the deduplication/matching key for this signal: category
// and context key joined with "|". Signals sharing a key within one
// cycle refer to the same logical task and must produce at most one
// start or refresh.
func (s DetectionSignal) Key() string {
	return string(s.Category) + "|" + s.ContextKey
}
