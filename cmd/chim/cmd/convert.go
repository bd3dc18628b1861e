/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/chim/pkg/chunk"
	"github.com/ssargent/chim/pkg/source"
)

func newConvertCmd() *cobra.Command {
	convertCmd := &cobra.Command{
		Use:   "convert <input>",
		Short: "Convert a container between binary and XML",
		Long: `Convert a container to its other representation. A binary container
(starting with TES3) is rendered as XML; an XML document is rebuilt into
the byte-identical binary container.

Examples:
  chim convert Morrowind.esm -o Morrowind.xml
  chim convert Morrowind.xml -o Morrowind.esm
  chim convert plugin.esp --row-width 16 --group-width 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settingsFrom(cmd)
			if err != nil {
				return err
			}
			output, _ := cmd.Flags().GetString("output")

			data, err := source.ReadFile(args[0])
			if err != nil {
				return err
			}

			file, err := chunk.Decode(data, decodeOptions(s)...)
			if err != nil {
				return fmt.Errorf("failed to decode %s: %w", args[0], err)
			}
			s.logger.Info("decoded container", "input", args[0], "format", file.Format(), "records", len(file.Records()))

			var out bytes.Buffer
			if file.Format() == chunk.FormatBinary {
				if err := file.WriteText(&out, s.config.HexLayout()); err != nil {
					return err
				}
			} else {
				out.Write(file.Bytes())
			}

			return writeOutput(cmd.OutOrStdout(), output, out.Bytes())
		},
	}

	convertCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	return convertCmd
}

// decodeOptions applies the configured logger and document size limit
func decodeOptions(s *settings) []chunk.Option {
	opts := []chunk.Option{chunk.WithLogger(s.logger)}
	if s.config.Security.MaxDocumentSize > 0 {
		opts = append(opts, chunk.WithSizeLimit(s.config.Security.MaxDocumentSize))
	}
	return opts
}

// writeOutput writes data to path, or to stdout when path is empty
func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
