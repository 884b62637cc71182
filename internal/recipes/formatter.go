package recipes

import (
	"fmt"
	"strings"

	"ninjachef/internal/ai"

	"github.com/samber/lo"
)

const separator = "--------------------"

// FormatText renders the plain text a user copies to the clipboard.
func FormatText(r ai.Recipe) string {
	var output strings.Builder

	fmt.Fprintf(&output, "Recipe: %s\n%s\n\n", r.Name, r.Description)
	output.WriteString(separator + "\n\n")
	fmt.Fprintf(&output, "Prep Time: %s\nCook Time: %s\nServings: %s\n\n", r.PrepTime, r.CookTime, r.Servings)
	output.WriteString(separator + "\n\n")

	output.WriteString("Ingredients:\n")
	output.WriteString(strings.Join(lo.Map(r.Ingredients, func(ing ai.Ingredient, _ int) string {
		return fmt.Sprintf("- %s %s", ing.Amount, ing.Name)
	}), "\n"))
	output.WriteString("\n\n" + separator + "\n\n")

	output.WriteString("Instructions:\n")
	output.WriteString(strings.Join(lo.Map(r.Instructions, func(step string, i int) string {
		return fmt.Sprintf("%d. %s", i+1, step)
	}), "\n"))

	return strings.TrimSpace(output.String())
}

// FormatList is the saved collection as shown by the CLI, favorites starred.
func FormatList(recipes []ai.Recipe) string {
	if len(recipes) == 0 {
		return "You haven't saved any secret scrolls yet."
	}
	var output strings.Builder
	output.WriteString("Your Saved Scrolls:\n")
	for i, r := range recipes {
		star := " "
		if r.IsFavorite {
			star = "*"
		}
		fmt.Fprintf(&output, "%s %d. %s\n", star, i+1, r.Name)
	}
	return output.String()
}
