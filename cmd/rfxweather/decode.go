package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/chrissnell/rfxweather/internal/types"
	"github.com/chrissnell/rfxweather/pkg/rfx"
	"github.com/spf13/cobra"
)

func newDecodeCmd() *cobra.Command {
	var (
		calibration string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "decode [hex...]",
		Short: "Decode hex frames given as arguments or one per line on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			decoder, err := loadDecoder(calibration)
			if err != nil {
				return err
			}

			frames := args
			if len(frames) == 0 {
				frames, err = readLines(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}

			failed := 0
			for _, line := range frames {
				if err := decodeLine(cmd.OutOrStdout(), decoder, line, asJSON); err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d frames failed to decode", failed, len(frames))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&calibration, "calibration", "", "YAML file whose enabled calibrations are loaded")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print one JSON object per frame")
	return cmd
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

// decodeLine prints the reading or the failure for one hex frame.
func decodeLine(w io.Writer, decoder *rfx.Decoder, line string, asJSON bool) error {
	res, err := decoder.DecodeHex(line)

	if asJSON {
		out := map[string]any{"frame": line}
		if err != nil {
			out["error"] = err.Error()
			if kind := rfx.KindOf(err); kind != 0 {
				out["kind"] = kind.String()
			}
		} else {
			for k, v := range types.ResultMap(res) {
				out[k] = v
			}
		}
		b, _ := json.Marshal(out)
		fmt.Fprintln(w, string(b))
		return err
	}

	if err != nil {
		fmt.Fprintf(w, "%s: %v\n", line, err)
		return err
	}
	fmt.Fprintf(w, "%s: %s\n", line, describe(res))
	return nil
}

func describe(res rfx.Result) string {
	head := fmt.Sprintf("%s %s %s", types.PacketTypeString(res.PacketType), res.Family, res.Model)
	switch r := res.Reading.(type) {
	case rfx.TemperatureRainReading:
		return fmt.Sprintf("%s sensor=%04x seq=%d temperature=%s rainfall=%s battery=%d signal=%d",
			head, r.SensorID, r.Sequence, r.Temperature, r.Rainfall, r.BatteryLevel, r.SignalLevel)
	case rfx.TemperatureHumidityReading:
		return fmt.Sprintf("%s sensor=%04x channel=%d seq=%d temperature=%s humidity=%d%% (%s) battery=%d signal=%d",
			head, r.SensorID, r.Channel, r.Sequence, r.Temperature, r.Humidity, r.HumidityStatus, r.BatteryLevel, r.SignalLevel)
	}
	return head
}
