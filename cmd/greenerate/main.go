package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"greenerate/internal/core/recipe"
	"greenerate/internal/core/spoonacular"
	"greenerate/internal/infrastructure/config"
	"greenerate/internal/pkg/common"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
	apiKey  string
	timeout time.Duration

	// newSource 建立食譜查詢服務，測試時替換
	newSource = defaultSource
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "greenerate",
	Short: "Find recipes for the ingredients you have",
	Long: `greenerate looks up recipes that use your ingredients, drops the ones whose
titles mention foods you dislike, and prints them as step-by-step instructions.

The Spoonacular API key is read from --api-key or SPOONACULAR_API_KEY.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "warn"
		if verbose {
			level = "debug"
		}
		common.InitConsoleLogger(level)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		common.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Spoonacular API key (or set SPOONACULAR_API_KEY env)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Operation timeout")

	generateCmd.Flags().StringSliceVarP(&genIngredients, "ingredients", "i", nil, "Ingredients you have (comma separated)")
	generateCmd.Flags().StringSliceVarP(&genDisliked, "disliked", "d", nil, "Food categories to avoid (see 'greenerate allergens')")
	generateCmd.Flags().BoolVarP(&genAll, "all", "a", false, "Show every remaining candidate, not just the first")
	generateCmd.MarkFlagRequired("ingredients")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(allergensCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// defaultSource 以設定檔與旗標建立 Spoonacular 客戶端
func defaultSource() (recipe.RecipeSource, *config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if apiKey != "" {
		cfg.Spoonacular.APIKey = apiKey
	}
	if cfg.Spoonacular.APIKey == "" {
		return nil, nil, fmt.Errorf("missing Spoonacular API key: use --api-key or set SPOONACULAR_API_KEY")
	}
	return spoonacular.NewClient(cfg.Spoonacular), cfg, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
