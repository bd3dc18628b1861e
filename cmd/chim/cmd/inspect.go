/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ssargent/chim/pkg/chunk"
	"github.com/ssargent/chim/pkg/source"
	"github.com/ssargent/chim/pkg/storage"
)

// inspectReport is the JSON form of the inspect output
type inspectReport struct {
	Summary chunk.Summary      `json:"summary"`
	Blake3  string             `json:"blake3"`
	Records []chunk.RecordInfo `json:"records"`
}

func newInspectCmd() *cobra.Command {
	inspectCmd := &cobra.Command{
		Use:   "inspect <input>",
		Short: "List the records of a container",
		Long: `Decode a container in either format and print one line per record
with its tag, offset, size, flags and subrecord count, followed by totals
and the BLAKE3 digest of the binary form.

Examples:
  chim inspect Morrowind.esm
  chim inspect Morrowind.xml --subrecords
  chim inspect plugin.esp --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settingsFrom(cmd)
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")
			showSubrecords, _ := cmd.Flags().GetBool("subrecords")

			data, err := source.ReadFile(args[0])
			if err != nil {
				return err
			}
			file, err := chunk.Decode(data, decodeOptions(s)...)
			if err != nil {
				return fmt.Errorf("failed to decode %s: %w", args[0], err)
			}

			report := inspectReport{
				Summary: file.Summary(),
				Blake3:  storage.Digest(file.Bytes()),
				Records: file.Describe(),
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "INDEX\tTAG\tOFFSET\tSIZE\tFLAGS\tSUBRECORDS")
			for _, rec := range report.Records {
				flags := rec.Flags
				if flags == "" {
					flags = "-"
				}
				fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\t%d\n", rec.Index, rec.Tag, rec.Offset, rec.Size, flags, len(rec.Subrecords))
				if showSubrecords {
					for _, sub := range rec.Subrecords {
						fmt.Fprintf(tw, "\t  %s\t+%d\t%d\t\t\n", sub.Tag, sub.Offset, sub.Size)
					}
				}
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n%d records, %d subrecords, %d bytes (%s)\n",
				report.Summary.Records, report.Summary.Subrecords, report.Summary.Bytes, report.Summary.Format)
			fmt.Fprintf(out, "BLAKE3: %s\n", report.Blake3)
			return nil
		},
	}

	inspectCmd.Flags().Bool("json", false, "Print the report as JSON")
	inspectCmd.Flags().Bool("subrecords", false, "List subrecords under each record")
	return inspectCmd
}
