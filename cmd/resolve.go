package cmd

import (
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/domain"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/export"
	"github.com/spf13/cobra"
)

var (
	viewID      string
	enableIDs   []string
	disableIDs  []string
	repairFirst bool
	exportOut   string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <prompt>",
	Short: "Parse a prompt and print the resolved view",
	Long: `Parse a prompt and resolve it against the design model.

Examples:
  designspec resolve 'Create a primary button with label "Continue"'
  designspec resolve --enable onlyOnePrimaryPerView 'Create two primary buttons'
  designspec resolve --disable disabledOpacity 'A disabled ghost button'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

var repairCmd = &cobra.Command{
	Use:   "repair <prompt>",
	Short: "Parse a prompt and auto-repair constraint violations",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRepair,
}

var exportCmd = &cobra.Command{
	Use:   "export <prompt>",
	Short: "Draw the resolved view as an Excalidraw scene",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExport,
}

func init() {
	for _, c := range []*cobra.Command{resolveCmd, repairCmd, exportCmd} {
		rootCmd.AddCommand(c)
		c.Flags().StringVar(&viewID, "view-id", "", "View id; generated when empty")
		c.Flags().StringSliceVar(&enableIDs, "enable", nil, "Constraint ids to switch on")
		c.Flags().StringSliceVar(&disableIDs, "disable", nil, "Constraint ids to switch off")
	}
	exportCmd.Flags().BoolVar(&repairFirst, "repair", false, "Auto-repair before drawing")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "view.excalidraw", "Output file path")
}

// enabledFlags builds the constraint overlay from --enable and --disable.
// A nil map leaves the design model untouched.
func enabledFlags() map[string]bool {
	if len(enableIDs) == 0 && len(disableIDs) == 0 {
		return nil
	}
	flags := map[string]bool{}
	for _, id := range enableIDs {
		flags[id] = true
	}
	for _, id := range disableIDs {
		flags[id] = false
	}
	return flags
}

func runResolve(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	in := a.engine.Parse(viewID, strings.Join(args, " "))
	return writeJSON(cmd.OutOrStdout(), a.engine.Resolve(in, enabledFlags()))
}

func runRepair(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	in := a.engine.Parse(viewID, strings.Join(args, " "))
	return writeJSON(cmd.OutOrStdout(), a.engine.AutoRepair(in, enabledFlags()))
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	in := a.engine.Parse(viewID, strings.Join(args, " "))

	var view domain.ResolvedView
	if repairFirst {
		view = a.engine.AutoRepair(in, enabledFlags()).View
	} else {
		view = a.engine.Resolve(in, enabledFlags())
	}
	if err := export.ExportExcalidraw(view, exportOut); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d nodes to %s\n", len(view.Nodes), exportOut)
	return nil
}
