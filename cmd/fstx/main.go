package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"fstx/internal/app"
	"fstx/internal/config"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
)

// newApp reads the config and creates an App. The caller must defer app.Close().
func newApp() (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "fstx",
	Short: "Apply filesystem changes transactionally",
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
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
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
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:     %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:      %s\n", cfg.LogDir)
		fmt.Printf("Temp Dir:     %s\n", cfg.TempDir)
		fmt.Printf("Journal Type: %s\n", cfg.Journal.Type)
		return nil
	},
}

// apply command

var applyCmd = &cobra.Command{
	Use:   "apply <plan.toml>",
	Short: "Apply a plan file as one transaction",
	Long: `Apply stages every change described by the plan file and commits them
as a single unit: either all of them take effect, or the filesystem is
left exactly as it was.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		if !yes {
			confirmed, err := confirm(fmt.Sprintf("Apply plan %s?", args[0]))
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Println("Aborted.")
				return nil
			}
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.ApplyPlan(args[0])
		if err != nil {
			failColor.Fprintf(os.Stderr, "Apply failed: %v\n", err)
			return err
		}

		okColor.Printf("Applied %s: %d dirs, %d files, %d edits (tx %s)\n",
			args[0], result.Dirs, result.Files, result.Edits, result.TxID)
		return nil
	},
}

// confirm prompts on stdin when it is a terminal. Non-interactive runs must
// pass --yes explicitly.
func confirm(prompt string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, fmt.Errorf("stdin is not a terminal; pass --yes to apply without confirmation")
	}
	fmt.Printf("%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// history command

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recent transactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No transactions recorded.")
			return nil
		}

		for _, e := range entries {
			status := e.Status
			switch status {
			case "success":
				status = okColor.Sprint(status)
			case "failed", "rollback_failed":
				status = failColor.Sprint(status)
			}
			fmt.Printf("%s  %s  %-9s %s  dirs=%d files=%d edits=%d",
				e.StartedAt.Local().Format("2006-01-02 15:04:05"),
				e.ID[:8], e.Operation, status,
				e.DirsStaged, e.FilesStaged, e.FilesNoted)
			if e.Error != "" {
				fmt.Printf("  %s", e.Error)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	applyCmd.Flags().Bool("yes", false, "apply without confirmation")
	historyCmd.Flags().Int("limit", 20, "maximum number of transactions to show")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(historyCmd)
}
