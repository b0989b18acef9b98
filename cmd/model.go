package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/model"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/store"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/tui"
	"github.com/spf13/cobra"
)

var importFrom string

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Print the design model as reported by getDesignModel",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), a.engine.DesignModel())
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy model definition files into the SQLite store",
	Long: `Load tokens, contracts and constraints from a directory (the configured
model_dir by default) and replace the contents of the SQLite store.

Set model_source: sqlite to serve from the store afterwards.`,
	RunE: runImport,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive playground",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		p := tea.NewProgram(tui.NewModel(a.engine), tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(modelCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(tuiCmd)
	importCmd.Flags().StringVar(&importFrom, "from", "", "Directory to import; model_dir when empty")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	dir := importFrom
	if dir == "" {
		dir = cfg.ModelDir
	}

	m, err := model.DirLoader(dir, logger).Load()
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", dir, err)
	}

	st, err := store.NewStore(cfg.PersistenceDir)
	if err != nil {
		return fmt.Errorf("failed to init store: %w", err)
	}
	defer st.Close()

	if err := st.SaveModel(m); err != nil {
		return fmt.Errorf("failed to save design model: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tokens and %d rules from %s\n",
		len(m.Tokens), len(m.Constraints.Rules), dir)
	return nil
}
