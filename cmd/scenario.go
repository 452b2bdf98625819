package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/bms12v/qa/scenarios"
)

var (
	scenarioFile string
	scenarioJSON bool
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Run a YAML scenario against a fresh session",
	RunE:  runScenario,
}

func init() {
	scenarioCmd.Flags().StringVarP(&scenarioFile, "file", "f", "", "scenario file")
	scenarioCmd.Flags().BoolVar(&scenarioJSON, "json", false, "print the result as JSON")
	_ = scenarioCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(scenarioCmd)
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := scenarios.Load(scenarioFile)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	res, err := scenarios.Run(sc)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if scenarioJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		d := res.State.Decision
		fmt.Fprintf(out, "scenario %s: %d ticks\n", res.Name, res.Ticks)
		fmt.Fprintf(out, "  bms_mode=%s contactor=%s latch=%s warnings=%v\n", d.Mode, d.Contactor, res.State.Latch, d.Warnings)
		for _, e := range res.State.Log {
			fmt.Fprintf(out, "  [%d] %s\n", e.ID, e.Text)
		}
		for _, m := range res.Mismatches {
			fmt.Fprintf(out, "  MISMATCH %s\n", m)
		}
	}
	return res.Check()
}
