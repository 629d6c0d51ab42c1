package mode

// Mode is the response shape requested from the search orchestrator.
type Mode string

// Search response modes.
const (
	// Full returns a paginated result page with totals.
	Full Mode = "full"
	// Suggestions returns a ranked typed-ahead list (id, name, thumbnail).
	Suggestions Mode = "suggestions"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Full || m == Suggestions
}
