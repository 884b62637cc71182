package ai

import (
	"errors"
	"fmt"
	"strings"
)

type Difficulty string

const (
	Beginner     Difficulty = "Beginner"
	Intermediate Difficulty = "Intermediate"
	Advanced     Difficulty = "Advanced"
)

var ErrUnknownDifficulty = errors.New("unknown difficulty")

// Difficulties lists the levels in the order they are offered to users.
var Difficulties = []Difficulty{Beginner, Intermediate, Advanced}

func ParseDifficulty(s string) (Difficulty, error) {
	for _, d := range Difficulties {
		if strings.EqualFold(strings.TrimSpace(s), string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
}

// Rank is the ninja rank shown next to the difficulty.
func (d Difficulty) Rank() string {
	switch d {
	case Beginner:
		return "Genin"
	case Intermediate:
		return "Chunin"
	case Advanced:
		return "Jonin"
	}
	return ""
}

func (d Difficulty) guidance() string {
	switch d {
	case Beginner:
		return "the steps should be very simple and clear."
	case Intermediate:
		return "you can introduce slightly more complex techniques."
	case Advanced:
		return "feel free to include more challenging steps or sophisticated culinary jutsus."
	}
	return ""
}

const persona = `You are Teuchi, the legendary chef from Ichiraku Ramen, a master of turning simple ingredients into legendary meals. Believe it!
Your goal is to train the next generation of ninja chefs. Your tone should be encouraging, energetic, and full of spirit, just like Naruto.`

// BuildPrompt embeds the inputs verbatim. Nothing is escaped; inputs are plain text.
func BuildPrompt(ingredients, mealType, dietaryRestrictions string, difficulty Difficulty) string {
	diet := dietaryRestrictions
	if diet == "" {
		diet = "None"
	}

	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\nA young ninja has come to you with a challenge. Create a recipe based on their mission details:\n")
	fmt.Fprintf(&b, "- **Available Ingredients (Their Scroll):** %s\n", ingredients)
	fmt.Fprintf(&b, "- **Mission Type (Meal):** %s\n", mealType)
	fmt.Fprintf(&b, "- **Their Ninja Way (Dietary Restrictions):** %s\n", diet)
	fmt.Fprintf(&b, "- **Ninja Rank (Difficulty):** %s\n", difficulty)
	b.WriteString("\nPlease provide a creative and easy-to-follow recipe tailored to the ninja's rank.\n")
	for _, d := range Difficulties {
		fmt.Fprintf(&b, "- For %s **%s (%s)**, %s\n", article(d), d, d.Rank(), d.guidance())
	}
	b.WriteString("\nThe recipe should primarily use the available ingredients, but you can add a few common pantry staples (like oil, salt, pepper, spices) if necessary.\n")
	b.WriteString("Give the recipe a cool, ninja-themed name. Let's show them what a true Ramen master can do!")
	return b.String()
}

func article(d Difficulty) string {
	if d == Intermediate || d == Advanced {
		return "an"
	}
	return "a"
}
