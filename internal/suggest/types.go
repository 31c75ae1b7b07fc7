package suggest

type Category string

const (
	CategoryError   Category = "error"
	CategoryWarning Category = "warning"
	CategoryTip     Category = "tip"
)

// Suggestion is one static catalog entry. Entries are looked up, never
// mutated.
type Suggestion struct {
	ID          string   `json:"id"`
	Category    Category `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Solution    string   `json:"solution"`
	CodeExample string   `json:"code_example,omitempty"`

	// Keywords drive the primary match against the user's problem
	// description. CodeMarkers are the narrower secondary signal matched
	// against the current code.
	Keywords    []string `json:"keywords"`
	CodeMarkers []string `json:"code_markers,omitempty"`
}

type Request struct {
	Description string
	Code        string
}
