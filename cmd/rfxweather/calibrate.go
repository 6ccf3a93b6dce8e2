package main

import (
	"fmt"
	"io"

	"github.com/chrissnell/rfxweather/pkg/config"
	"github.com/chrissnell/rfxweather/pkg/rfx"
	"github.com/spf13/cobra"
)

func newCalibrateCmd() *cobra.Command {
	var (
		name    string
		require bool
	)

	cmd := &cobra.Command{
		Use:   "calibrate FILE",
		Short: "Check temperature/humidity layouts against their reference frames",
		Long: `calibrate decodes every reference frame of every calibration in FILE with
that calibration's layout and reports each field that disagrees with the
expected reading. A failing enabled calibration makes the command fail; with
--require any failing calibration does.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			calibrations, err := config.NewYAMLProvider(args[0]).GetCalibrations()
			if err != nil {
				return err
			}
			return runCalibrate(cmd.OutOrStdout(), calibrations, name, require)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Only check the calibration with this name")
	cmd.Flags().BoolVar(&require, "require", false, "Fail if any checked calibration fails, not only enabled ones")
	return cmd
}

func runCalibrate(w io.Writer, calibrations []config.CalibrationData, name string, require bool) error {
	checked, failed := 0, 0
	for _, c := range calibrations {
		if name != "" && c.Name != name {
			continue
		}
		checked++

		report, err := c.Evaluate()
		if err != nil {
			fmt.Fprintf(w, "FAIL %s: %v\n", c.Name, err)
			if c.Enabled || require {
				failed++
			}
			continue
		}

		printReport(w, c, report)
		if !report.OK() && (c.Enabled || require) {
			failed++
		}
	}

	if checked == 0 {
		if name != "" {
			return fmt.Errorf("no calibration named %q", name)
		}
		return fmt.Errorf("no calibrations found")
	}
	if failed > 0 {
		return fmt.Errorf("%d calibration(s) failed", failed)
	}
	return nil
}

func printReport(w io.Writer, c config.CalibrationData, r rfx.CalibrationReport) {
	status := "PASS"
	if !r.OK() {
		status = "FAIL"
	}
	enabled := ""
	if c.Enabled {
		enabled = " (enabled)"
	}

	passed := 0
	for _, v := range r.Results {
		if v.OK() {
			passed++
		}
	}
	fmt.Fprintf(w, "%s %s%s: packet type 0x%02X, %d/%d references\n",
		status, c.Name, enabled, c.PacketType, passed, len(r.Results))

	if r.Err != nil {
		fmt.Fprintf(w, "  error: %v\n", r.Err)
		return
	}
	for _, v := range r.Results {
		switch {
		case v.Err != nil:
			fmt.Fprintf(w, "  %s: %v\n", v.Name, v.Err)
		case len(v.Mismatches) > 0:
			fmt.Fprintf(w, "  %s:\n", v.Name)
			for _, m := range v.Mismatches {
				fmt.Fprintf(w, "    %-16s got %-10s want %s\n", m.Field, m.Got, m.Want)
			}
		default:
			fmt.Fprintf(w, "  %s: ok\n", v.Name)
		}
	}
}
