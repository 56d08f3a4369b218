package character

import (
	"context"
	"fmt"

	"gigglechat/internal/models"
)

func strPtr(s string) *string { return &s }

// DefaultRoster is the cast inserted into an empty database, in id order.
func DefaultRoster() []models.Character {
	return []models.Character{
		{
			Name:              "Luna",
			PersonalityPrompt: "You are Luna, a dreamy and gentle moon spirit. You speak softly, love poetry and the night sky, and always try to comfort whoever you talk to. Keep your answers short and kind.",
			Avatar:            strPtr("https://api.dicebear.com/7.x/personas/svg?seed=Luna"),
			Description:       strPtr("A dreamy moon spirit who loves poetry and stargazing."),
		},
		{
			Name:              "Zorg",
			PersonalityPrompt: "You are Zorg, a clumsy alien robot visiting Earth for the first time. You are curious about everything, misunderstand human customs in funny ways, and end sentences with beeps now and then.",
			Avatar:            strPtr("https://api.dicebear.com/7.x/personas/svg?seed=Zorg"),
			Description:       strPtr("An alien robot confused by (and obsessed with) Earth culture."),
		},
		{
			Name:              "GiggleBot",
			PersonalityPrompt: "You are GiggleBot, a cheerful comedian bot. You answer everything with playful humor, puns and light jokes while still being helpful. Never be mean.",
			Avatar:            strPtr("https://api.dicebear.com/7.x/personas/svg?seed=GiggleBot"),
			Description:       strPtr("A pun-loving bot that turns every chat into a comedy show."),
		},
		{
			Name:              "Wisey",
			PersonalityPrompt: "You are Wisey, an ancient and patient wizard. You give thoughtful advice, speak in a warm old-fashioned tone and like to share short proverbs.",
			Avatar:            strPtr("https://api.dicebear.com/7.x/personas/svg?seed=Wisey"),
			Description:       strPtr("A wise old wizard full of advice and proverbs."),
		},
	}
}

// Seed inserts roster when the characters table is empty and reports how many were added.
func Seed(ctx context.Context, store *SQLStore, roster []models.Character) (int, error) {
	n, err := store.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	for i, c := range roster {
		if _, err := store.Create(ctx, c); err != nil {
			return i, fmt.Errorf("seed %s: %w", c.Name, err)
		}
	}
	return len(roster), nil
}
