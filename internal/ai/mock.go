package ai

import (
	"context"
	"encoding/json"
)

// Mock is an offline completer that always returns the same recipe.
type Mock struct{}

func (Mock) Complete(_ context.Context, _ Completion) (string, error) {
	b, err := json.Marshal(Recipe{
		Name:        "Shadow Clone Stir-Fry",
		Description: "A sizzling wok of noodles that multiplies on your plate",
		PrepTime:    "10 minutes",
		CookTime:    "15 minutes",
		Servings:    "2 servings",
		Ingredients: []Ingredient{
			{Name: "ramen noodles", Amount: "2 blocks"},
			{Name: "pork belly", Amount: "200 g"},
			{Name: "green onions", Amount: "3 stalks"},
			{Name: "soy sauce", Amount: "2 tbsp"},
		},
		Instructions: []string{
			"Boil the noodles until just tender and drain.",
			"Crisp the pork belly in a hot wok.",
			"Toss in the noodles and soy sauce.",
			"Top with green onions and serve. Believe it!",
		},
	})
	return string(b), err
}
