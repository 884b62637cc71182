package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"ninjachef/internal/ai"
	"ninjachef/internal/cache"
	"ninjachef/internal/config"
	"ninjachef/internal/logsink"
	"ninjachef/internal/recipes"
	"ninjachef/internal/saved"
)

type options struct {
	ingredients string
	mealType    string
	diet        string
	difficulty  string
	save        bool
	list        bool
	show        string
	favorite    string
	delete      string
	serve       bool
	addr        string
}

var errNothingToDo = errors.New("ingredients are required (or use -list, -show, -favorite, -delete or -serve)")

func main() {
	var opts options
	var help bool

	flag.StringVar(&opts.ingredients, "ingredients", "", "Comma separated ingredients you have on hand")
	flag.StringVar(&opts.ingredients, "i", "", "Ingredients (short form)")
	flag.StringVar(&opts.mealType, "meal", recipes.DefaultMealType, "Meal type: Breakfast, Lunch, Dinner, Snack or Dessert")
	flag.StringVar(&opts.diet, "diet", "", "Dietary restrictions, e.g. vegetarian")
	flag.StringVar(&opts.difficulty, "difficulty", string(ai.Beginner), "Beginner, Intermediate or Advanced")
	flag.BoolVar(&opts.save, "save", false, "Save the generated recipe")
	flag.BoolVar(&opts.list, "list", false, "List saved recipes")
	flag.StringVar(&opts.show, "show", "", "Print a saved recipe by name")
	flag.StringVar(&opts.favorite, "favorite", "", "Toggle favorite on a saved recipe by name")
	flag.StringVar(&opts.delete, "delete", "", "Delete a saved recipe by name")
	flag.BoolVar(&opts.serve, "serve", false, "Run HTTP server mode")
	flag.StringVar(&opts.addr, "addr", ":8080", "Address to bind in server mode")
	flag.BoolVar(&help, "help", false, "Show help message")
	flag.BoolVar(&help, "h", false, "Show help message")
	flag.Parse()

	if help {
		showHelp()
		return
	}

	ctx := context.Background()
	shutdownLogs, err := logsink.Setup(ctx, logsink.ConfigFromEnv())
	if err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}

	err = run(ctx, opts, os.Stdout)

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := shutdownLogs(flushCtx); serr != nil {
		fmt.Fprintf(os.Stderr, "failed to flush logs: %v\n", serr)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errNothingToDo) {
			showHelp()
		}
		os.Exit(1)
	}
}

type app struct {
	cache   cache.Cache
	store   *saved.Store
	service *ai.Service
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	c, err := cache.MakeCache(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}
	store := saved.New(c, cfg.Storage.Key)
	store.Load(ctx)

	completer, err := ai.NewCompleter(ctx, cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("failed to create recipe generator: %w", err)
	}
	return &app{cache: c, store: store, service: ai.NewService(completer)}, nil
}

func (a *app) Close() error {
	if closer, ok := a.cache.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func run(ctx context.Context, opts options, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("failed to close storage", "error", err)
		}
	}()

	switch {
	case opts.serve:
		return runServer(ctx, a, opts.addr)
	case opts.list:
		fmt.Fprintln(out, strings.TrimSuffix(recipes.FormatList(a.store.List()), "\n"))
		return nil
	case opts.show != "":
		recipe, ok := a.store.Get(opts.show)
		if !ok {
			return fmt.Errorf("no saved recipe named %q", opts.show)
		}
		fmt.Fprintln(out, recipes.FormatText(recipe))
		return nil
	case opts.favorite != "":
		if !a.store.IsSaved(opts.favorite) {
			return fmt.Errorf("no saved recipe named %q, save it before favoriting", opts.favorite)
		}
		if err := a.store.ToggleFavorite(ctx, opts.favorite); err != nil {
			return err
		}
		recipe, _ := a.store.Get(opts.favorite)
		if recipe.IsFavorite {
			fmt.Fprintf(out, "%s is now a favorite.\n", recipe.Name)
		} else {
			fmt.Fprintf(out, "%s is no longer a favorite.\n", recipe.Name)
		}
		return nil
	case opts.delete != "":
		if !a.store.IsSaved(opts.delete) {
			return fmt.Errorf("no saved recipe named %q", opts.delete)
		}
		if err := a.store.Delete(ctx, opts.delete); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted %s.\n", opts.delete)
		return nil
	case opts.ingredients != "":
		return generate(ctx, a, opts, out)
	default:
		return errNothingToDo
	}
}

func generate(ctx context.Context, a *app, opts options, out io.Writer) error {
	req := recipes.GenerateRequest{
		Ingredients:         opts.ingredients,
		MealType:            opts.mealType,
		DietaryRestrictions: opts.diet,
		Difficulty:          opts.difficulty,
	}
	mealType, difficulty, err := req.Validate()
	if err != nil {
		return err
	}

	recipe, err := a.service.Generate(ctx, req.Ingredients, mealType, req.DietaryRestrictions, difficulty)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, recipes.FormatText(*recipe))

	if !opts.save {
		return nil
	}
	added, err := a.store.Save(ctx, *recipe)
	if err != nil {
		return err
	}
	if added {
		fmt.Fprintf(out, "\nSaved %s to your scrolls.\n", recipe.Name)
	} else {
		fmt.Fprintf(out, "\n%s is already in your scrolls.\n", recipe.Name)
	}
	return nil
}

func showHelp() {
	fmt.Println("Ninja Chef - Recipe Jutsu Generator")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  ninjachef -i \"eggs, rice, scallions\" [-meal Dinner] [-diet vegetarian] [-difficulty Beginner] [-save]")
	fmt.Println("  ninjachef -list | -show <name> | -favorite <name> | -delete <name>")
	fmt.Println("  ninjachef -serve [-addr :8080]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -ingredients, -i   Ingredients you have on hand")
	fmt.Println("  -meal              Breakfast, Lunch, Dinner, Snack or Dessert")
	fmt.Println("  -diet              Dietary restrictions")
	fmt.Println("  -difficulty        Beginner (Genin), Intermediate (Chunin) or Advanced (Jonin)")
	fmt.Println("  -save              Save the generated recipe")
	fmt.Println("  -list              List saved recipes, favorites starred")
	fmt.Println("  -show              Print a saved recipe")
	fmt.Println("  -favorite          Toggle favorite on a saved recipe")
	fmt.Println("  -delete            Delete a saved recipe")
	fmt.Println("  -serve             Run the HTTP server")
	fmt.Println("  -help, -h          Show this help message")
}
