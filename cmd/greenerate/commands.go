package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"greenerate/internal/core/recipe"

	"github.com/spf13/cobra"
)

var (
	genIngredients []string
	genDisliked    []string
	genAll         bool
)

// generateCmd 產生食譜
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Find recipes for a list of ingredients",
	Long: `Find up to 10 recipes that use the given ingredients, remove the ones whose
titles match a disliked category, and print the first remaining recipe.

Examples:
  greenerate generate -i chicken,rice -d Dairy
  greenerate generate -i egg,spinach --all`,
	RunE: runGenerate,
}

// suggestCmd 食材自動完成
var suggestCmd = &cobra.Command{
	Use:   "suggest <query>",
	Short: "Suggest ingredient names for a partial query",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggest,
}

// allergensCmd 列出類別
var allergensCmd = &cobra.Command{
	Use:   "allergens",
	Short: "List the food categories that can be avoided",
	Args:  cobra.NoArgs,
	RunE:  runAllergens,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if err := recipe.ValidateCategories(genDisliked); err != nil {
		return fmt.Errorf("%w (valid: %s)", err, strings.Join(recipe.CategoryNames(recipe.AllCategories), ", "))
	}

	source, cfg, err := newSource()
	if err != nil {
		return err
	}
	opts := recipe.SessionOptions{}
	if cfg != nil {
		opts.SuggestionLimit = cfg.Spoonacular.AutocompleteLimit
		opts.CandidateLimit = cfg.Spoonacular.CandidateLimit
	}

	sess := recipe.NewSession("cli", "", recipe.PipelineContext{
		Disliked: recipe.ParseCategories(genDisliked),
		Source:   source,
	}, opts)
	defer sess.Close()

	for _, name := range genIngredients {
		sess.AddIngredient(name)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	out := cmd.OutOrStdout()
	detail, err := sess.Generate(ctx)
	if err != nil {
		return errors.New(recipe.UserMessage(err))
	}
	snap := sess.Snapshot()
	fmt.Fprintf(out, "Found %d recipe(s)\n\n", len(snap.Candidates))
	printDetail(out, 1, len(snap.Candidates), detail)

	if !genAll {
		return nil
	}
	for i := 2; sess.HasNext(); i++ {
		detail, err := sess.Next(ctx)
		fmt.Fprintln(out)
		if err != nil {
			if errors.Is(err, recipe.ErrDetailFailed) {
				fmt.Fprintf(out, "[%d/%d] %s\n", i, len(snap.Candidates), recipe.UserMessage(err))
				continue
			}
			return errors.New(recipe.UserMessage(err))
		}
		printDetail(out, i, len(snap.Candidates), detail)
	}
	return nil
}

func runSuggest(cmd *cobra.Command, args []string) error {
	source, cfg, err := newSource()
	if err != nil {
		return err
	}
	limit := recipe.DefaultSuggestionLimit
	if cfg != nil {
		limit = cfg.Spoonacular.AutocompleteLimit
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	suggestions, _ := recipe.NewSuggester(source, limit).Suggest(ctx, args[0])
	out := cmd.OutOrStdout()
	if len(suggestions) == 0 {
		fmt.Fprintln(out, "No suggestions.")
		return nil
	}
	for _, s := range suggestions {
		fmt.Fprintln(out, s.Name)
	}
	return nil
}

func runAllergens(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, c := range recipe.AllCategories {
		fmt.Fprintf(out, "%-10s %s\n", c, strings.Join(recipe.Keywords(c), ", "))
	}
	return nil
}

func printDetail(w io.Writer, n, total int, d *recipe.Detail) {
	fmt.Fprintf(w, "[%d/%d] %s\n", n, total, d.Title)
	if d.ImageURL != "" {
		fmt.Fprintf(w, "%s\n", d.ImageURL)
	}
	if len(d.IngredientLines) > 0 {
		fmt.Fprintln(w, "\nIngredients:")
		for _, line := range d.IngredientLines {
			fmt.Fprintf(w, "  - %s\n", line)
		}
	}
	fmt.Fprintf(w, "\nInstructions:\n%s\n", d.Instructions)
}
