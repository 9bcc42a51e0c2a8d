package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrtnvM/render-engine/scenario"
)

var validateScenarioID string

var validateCmd = &cobra.Command{
	Use:   "validate <scenario.json>",
	Short: "Decode a scenario document and report its shape",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fatalf("bduictl: read %s: %w", args[0], err)
		}
		doc, err := scenario.Parse(raw, validateScenarioID)
		if err != nil {
			return fatalf("bduictl: %w", err)
		}
		fmt.Printf("version:    %s\n", doc.Version)
		fmt.Printf("stores:     %d\n", len(doc.Stores))
		fmt.Printf("actions:    %d\n", len(doc.Actions))
		for i, sd := range doc.Stores {
			fmt.Printf("  [%d] scope=%s storage=%s initialValue keys=%d\n", i, sd.Scope, sd.Storage, len(sd.InitialValue))
		}
		for i, a := range doc.Actions {
			fmt.Printf("  [%d] id=%s kind=%s\n", i, a.ID, a.Kind)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateScenarioID, "scenario-id", "cli", "scenario id bound to scenario-scoped store descriptors")
	rootCmd.AddCommand(validateCmd)
}
