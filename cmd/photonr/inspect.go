package main

import (
	"fmt"
	"os"

	"photonr/sampleimage"

	"github.com/spf13/cobra"
)

var cmdInspect = &cobra.Command{
	Use:   "inspect <samples-file>",
	Short: "Print the header and sample statistics of an accumulation file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("while opening samples file: %w", err)
		}
		defer f.Close()

		hdr, err := sampleimage.ReadHeaderText(f)
		if err != nil {
			return fmt.Errorf("while reading samples header: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), hdr)

		im, err := sampleimage.ReadFromFile(args[0])
		if err != nil {
			return fmt.Errorf("while reading samples: %w", err)
		}
		total := im.TotalSamples()
		pixels := im.RowSize * im.ColSize
		fmt.Fprintf(cmd.OutOrStdout(), "total samples: %d\n", total)
		if pixels != 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "mean samples per pixel: %.2f\n", float64(total)/float64(pixels))
		}
		return nil
	},
}
