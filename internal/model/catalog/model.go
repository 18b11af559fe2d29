package catalog

// Model describes a completion model the backend is willing to forward to.
type Model struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Seed returns the Groq models offered by default.
func Seed() []Model {
	return []Model{
		{
			ID:          "llama-3.1-8b-instant",
			Name:        "Llama 3.1 8B Instant",
			Description: "Fast default model for everyday chat.",
		},
		{
			ID:          "llama-3.3-70b-versatile",
			Name:        "Llama 3.3 70B Versatile",
			Description: "Larger model for more involved answers.",
		},
		{
			ID:          "gemma2-9b-it",
			Name:        "Gemma 2 9B IT",
			Description: "Google's instruction-tuned Gemma 2.",
		},
	}
}
