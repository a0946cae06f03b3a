package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"kbwatch/internal/app"
	"kbwatch/internal/config"
	"kbwatch/internal/watch"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a WatchApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Watch", "SeedLoad").
func newApp(cmd *cobra.Command, operation, parameters string) (*app.WatchApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewWatchApp(cmd.Context(), cfg, operation, parameters)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "kbwatch",
	Short: "Watch government visa sources for changes",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Get application defaults
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		// Create config with defaults
		cfg := config.NewConfig(defaults["base_dir"])

		// Initialize config file
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Get application defaults
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		// Read config
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		// Display config
		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Database:  %s\n", cfg.Database.Type)
		fmt.Printf("Snapshots: %s\n", cfg.Snapshots.Type)
		fmt.Printf("Sources:   %d\n", len(cfg.Sources))
		for _, s := range cfg.Sources {
			fmt.Printf("  %-24s %-12s %s\n", s.ID, s.Family, s.CanonicalURL)
		}
		return nil
	},
}

// watch command
var watchCmd = &cobra.Command{
	Use:   "watch [SOURCE-ID]",
	Short: "Run a watch cycle for one source, or all with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if all == (len(args) == 1) {
			return fmt.Errorf("specify either a SOURCE-ID or --all")
		}

		parameters := "--all"
		if len(args) == 1 {
			parameters = args[0]
		}

		a, err := newApp(cmd, "Watch", parameters)
		if err != nil {
			return err
		}
		defer a.Close()

		if all {
			results, err := a.WatchAll(cmd.Context())
			if err != nil {
				return err
			}
			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
					fmt.Printf("%-24s ERROR  %v\n", r.SourceID, r.Err)
					continue
				}
				printRunLine(r.SourceID, r.Result)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d sources failed", failed, len(results))
			}
			return nil
		}

		res, err := a.WatchSource(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printRunLine(args[0], res)
		if len(res.Signals) > 0 {
			fmt.Printf("  %s\n", strings.Join(res.Signals, "\n  "))
		}
		return nil
	},
}

func printRunLine(sourceID string, res *watch.RunResult) {
	if res.ChangeEventID == "" {
		fmt.Printf("%-24s no change\n", sourceID)
		return
	}
	review := ""
	if res.RequiresReview {
		review = "  [review]"
	}
	fmt.Printf("%-24s score=%d  event=%s%s\n", sourceID, res.ImpactScore, res.ChangeEventID, review)
}

// seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Manage knowledge base seed data",
}

var seedLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Validate and upsert seed files into the knowledge base",
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		parameters := ""
		if dryRun {
			parameters = "--dry-run"
		}

		a, err := newApp(cmd, "SeedLoad", parameters)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.SeedLoad(dryRun)
		if err != nil {
			return fmt.Errorf("seed load failed: %w", err)
		}

		mode := ""
		if dryRun {
			mode = " (dry run)"
		}
		fmt.Printf("Seed load%s: %d subclasses, %d requirements, %d evidence items, %d flag templates\n",
			mode, res.Subclasses, res.Requirements, res.EvidenceItems, res.FlagTemplates)
		for _, e := range res.Errors {
			fmt.Printf("  skipped: %s\n", e)
		}
		if len(res.Errors) > 0 {
			return fmt.Errorf("%d record(s) failed validation", len(res.Errors))
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View watch run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd, "GetHistory", "")
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.GetHistory(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No watch runs recorded.")
			return nil
		}

		for _, run := range runs {
			duration := ""
			if run.FinishedAt != nil {
				d := run.FinishedAt.Sub(run.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-10s  %-16s  %s  %-8s  %s\n",
				run.ID,
				run.Operation,
				run.Parameters,
				run.StartedAt.Format("2006-01-02 15:04:05"),
				run.Status,
				duration,
			)
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// seed subcommands
	seedCmd.AddCommand(seedLoadCmd)
	seedLoadCmd.Flags().Bool("dry-run", false, "Validate and count records without writing")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Bool("all", false, "Watch all configured sources")
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")
}
