package models

// Character is a persona whose personality prompt steers the model.
// Avatar and Description are optional and encode as null when unset.
type Character struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	PersonalityPrompt string  `json:"personality_prompt"`
	Avatar            *string `json:"avatar"`
	Description       *string `json:"description"`
}
