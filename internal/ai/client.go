package ai

type Ingredient struct {
	Name   string `json:"name" jsonschema_description:"The name of the ingredient."`
	Amount string `json:"amount" jsonschema_description:"The quantity of the ingredient, e.g., '2 cups' or '1 tbsp'."`
}

// Recipe is one generated dish. Name is the identity used by the saved collection.
type Recipe struct {
	Name         string       `json:"recipeName" jsonschema_description:"The name of the recipe, with a creative ninja or Naruto-themed twist."`
	Description  string       `json:"description" jsonschema_description:"A short, enticing description of the dish."`
	PrepTime     string       `json:"prepTime" jsonschema_description:"Preparation time, e.g., '15 minutes'."`
	CookTime     string       `json:"cookTime" jsonschema_description:"Cooking time, e.g., '30 minutes'."`
	Servings     string       `json:"servings" jsonschema_description:"Number of servings, e.g., '4 servings'."`
	Ingredients  []Ingredient `json:"ingredients" jsonschema_description:"A list of ingredients required for the recipe, including those provided by the user and any additional ones needed."`
	Instructions []string     `json:"instructions" jsonschema_description:"Step-by-step instructions to prepare the dish."`
	IsFavorite   bool         `json:"isFavorite" jsonschema:"-"`     // not in schema
	Tags         []string     `json:"tags,omitempty" jsonschema:"-"` // not in schema
}

// Clone returns a deep copy so callers can't reach into a store's slices.
func (r Recipe) Clone() Recipe {
	out := r
	if r.Ingredients != nil {
		out.Ingredients = append([]Ingredient(nil), r.Ingredients...)
	}
	if r.Instructions != nil {
		out.Instructions = append([]string(nil), r.Instructions...)
	}
	if r.Tags != nil {
		out.Tags = append([]string(nil), r.Tags...)
	}
	return out
}
