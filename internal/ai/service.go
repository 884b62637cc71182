package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Temperature balances creativity against following the schema.
const Temperature = 0.7

// Completion is one structured-output request to a generation backend.
type Completion struct {
	Prompt      string
	Schema      *Schema
	Temperature float64
}

// Completer turns a prompt and schema into schema-conformant JSON text.
type Completer interface {
	Complete(ctx context.Context, c Completion) (string, error)
}

var ErrGeneration = errors.New("failed to generate recipe")

// GenerationError is the single failure surfaced by Generate. Backend,
// transport and decode failures are not distinguished.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %v", ErrGeneration, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }

// Service is stateless between calls; it holds only its backend.
type Service struct {
	completer Completer
}

func NewService(c Completer) *Service {
	return &Service{completer: c}
}

func (s *Service) Ready(_ context.Context) error {
	if s.completer == nil {
		return errors.New("no generation backend configured")
	}
	return nil
}

// Generate asks the backend for one recipe. It performs no validation of its
// inputs and no retry.
func (s *Service) Generate(ctx context.Context, ingredients, mealType, dietaryRestrictions string, difficulty Difficulty) (*Recipe, error) {
	ctx, span := otel.Tracer("ninjachef/ai").Start(ctx, "ai.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("recipe.meal_type", mealType),
		attribute.String("recipe.difficulty", string(difficulty)),
	)

	start := time.Now()
	recipe, err := s.generate(ctx, ingredients, mealType, dietaryRestrictions, difficulty)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "error generating recipe", "meal_type", mealType, "difficulty", difficulty, "error", err)
		return nil, &GenerationError{Err: err}
	}
	slog.InfoContext(ctx, "generated recipe", "recipe", recipe.Name, "ingredients", len(recipe.Ingredients), "steps", len(recipe.Instructions), "duration", time.Since(start))
	return recipe, nil
}

func (s *Service) generate(ctx context.Context, ingredients, mealType, dietaryRestrictions string, difficulty Difficulty) (*Recipe, error) {
	if s.completer == nil {
		return nil, errors.New("no generation backend configured")
	}
	schema := RecipeSchema()
	text, err := s.completer.Complete(ctx, Completion{
		Prompt:      BuildPrompt(ingredients, mealType, dietaryRestrictions, difficulty),
		Schema:      schema,
		Temperature: Temperature,
	})
	if err != nil {
		return nil, err
	}

	content := []byte(stripCodeFence(text))
	if err := checkRequired(content, schema); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}
	var recipe Recipe
	if err := json.Unmarshal(content, &recipe); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}
	// favorite state belongs to the saved collection, never to the generator
	recipe.IsFavorite = false
	return &recipe, nil
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
