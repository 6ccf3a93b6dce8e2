package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/chrissnell/rfxweather/internal/types"
	"github.com/chrissnell/rfxweather/pkg/rfx"
	"github.com/spf13/cobra"
)

func newFamiliesCmd() *cobra.Command {
	var calibration string

	cmd := &cobra.Command{
		Use:   "families",
		Short: "List the packet families and whether each decodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			decoder, err := loadDecoder(calibration)
			if err != nil {
				return err
			}
			return printFamilies(cmd.OutOrStdout(), decoder)
		},
	}

	cmd.Flags().StringVar(&calibration, "calibration", "", "YAML file whose enabled calibrations are loaded")
	return cmd
}

func printFamilies(w io.Writer, decoder *rfx.Decoder) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tFAMILY\tSUBTYPES\tMEASURES\tSTATUS")
	for _, s := range rfx.Families() {
		var subtypes string
		for i, st := range s.Subtypes {
			if i > 0 {
				subtypes += ","
			}
			subtypes += fmt.Sprintf("0x%02X %s", st.Code, st.Model)
		}

		status := "decodes"
		if !decoder.Supported(s.PacketType) {
			status = "needs calibration"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			types.PacketTypeString(s.PacketType), s.Family, subtypes, s.Measures, status)
	}
	return tw.Flush()
}
