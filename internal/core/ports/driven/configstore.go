package driven

// ConfigStore holds persisted settings under flat dot-separated keys such as
// "llm.model". Values keep whatever type the backend decoded; the settings
// service parses them. Setting a key to "" removes it.
type ConfigStore interface {
	Get(key string) (any, bool)
	Set(key string, value any) error

	// Update applies all values and persists them together.
	Update(values map[string]any) error

	// Path is shown to users as the config location.
	Path() string
}
