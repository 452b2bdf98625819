package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/bms12v/config"
	"github.com/kilianp07/bms12v/core/model"
	"github.com/kilianp07/bms12v/core/session"
	infraadv "github.com/kilianp07/bms12v/infra/advisory"
)

var adviseOpts struct {
	soc, temperature, load, soh float64
	mode                        string
	faults                      []string
	ticks                       int
}

var adviseCmd = &cobra.Command{
	Use:   "advise",
	Short: "Ask the advisory service about a one-off battery state",
	RunE:  runAdvise,
}

func init() {
	f := adviseCmd.Flags()
	f.Float64Var(&adviseOpts.soc, "soc", 60, "state of charge in %")
	f.Float64Var(&adviseOpts.temperature, "temperature", 25, "battery temperature in °C")
	f.Float64Var(&adviseOpts.load, "load", 5, "accessory load in A")
	f.Float64Var(&adviseOpts.soh, "soh", 98, "state of health in %")
	f.StringVar(&adviseOpts.mode, "mode", "OFF", "vehicle mode (OFF, ACC, PROPULSION)")
	f.StringSliceVar(&adviseOpts.faults, "fault", nil, "active fault (repeatable)")
	f.IntVar(&adviseOpts.ticks, "ticks", 1, "ticks to run before asking")
	rootCmd.AddCommand(adviseCmd)
}

func adviseSession(cfg *config.Config) (*session.Session, error) {
	vm, err := model.ParseVehicleMode(adviseOpts.mode)
	if err != nil {
		return nil, err
	}
	var faults model.Faults
	for _, name := range adviseOpts.faults {
		f, err := model.ParseFault(name)
		if err != nil {
			return nil, err
		}
		faults.Set(f, true)
	}
	return session.New(session.Options{
		ID:         "advise",
		Thresholds: cfg.Engine,
		Physics:    cfg.Physics,
		Initial: model.Telemetry{
			SOC:           adviseOpts.soc,
			Temperature:   adviseOpts.temperature,
			AccessoryLoad: adviseOpts.load,
			SOH:           adviseOpts.soh,
		},
		VehicleMode: vm,
		Faults:      faults,
	})
}

func runAdvise(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sess, err := adviseSession(cfg)
	if err != nil {
		return err
	}
	for i := 0; i < adviseOpts.ticks; i++ {
		sess.Tick()
	}
	snap := sess.Snapshot()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "BMS mode %s, contactor %s, faults %s\n", snap.BMSMode, snap.ContactorState, snap.FaultsText())

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Advisory.Timeout())
	defer cancel()
	a, err := infraadv.New(cfg.Advisory).Analyze(ctx, snap)
	if err != nil {
		return fmt.Errorf("advisory: %w", err)
	}
	fmt.Fprintf(out, "Status: %s\nReason: %s\nAction: %s\n", a.Status(), a.Reason(), a.Action())
	return nil
}
