/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssargent/chim/pkg/api"
	"github.com/ssargent/chim/pkg/chunk"
	"github.com/ssargent/chim/pkg/source"
	"github.com/ssargent/chim/pkg/storage"
)

func newArchiveCmd() *cobra.Command {
	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "Manage the local document archive",
		Long: `Store, retrieve and remove containers in the local document archive
kept under the data directory. Documents are stored in binary form and
addressed by a KSUID.`,
	}

	archiveCmd.AddCommand(
		newArchivePutCmd(),
		newArchiveGetCmd(),
		newArchiveDeleteCmd(),
		newArchiveListCmd(),
	)
	return archiveCmd
}

func newArchivePutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <input>",
		Short: "Store a container in the archive",
		Long: `Store a container in the archive. XML input is rebuilt into its
binary form first.

Example:
  chim archive put Morrowind.esm`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settingsFrom(cmd)
			if err != nil {
				return err
			}
			data, err := source.ReadFile(args[0])
			if err != nil {
				return err
			}
			file, err := chunk.Decode(data, decodeOptions(s)...)
			if err != nil {
				return fmt.Errorf("failed to decode %s: %w", args[0], err)
			}

			return withArchive(s, func(archive api.ArchiveCloser) error {
				meta, err := archive.Create(file.Bytes())
				if err != nil {
					return err
				}
				cmd.Printf("Stored %s (%d records, %d bytes)\n", meta.ID, meta.Records, meta.Size)
				return nil
			})
		},
	}
}

func newArchiveGetCmd() *cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Retrieve a document from the archive",
		Long: `Retrieve a document from the archive as binary or rendered XML.

Examples:
  chim archive get 2cVmCbJ2Q3pF3sZrNQ5G6ydRWUj -o Morrowind.esm
  chim archive get 2cVmCbJ2Q3pF3sZrNQ5G6ydRWUj --format xml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settingsFrom(cmd)
			if err != nil {
				return err
			}
			output, _ := cmd.Flags().GetString("output")
			format, _ := cmd.Flags().GetString("format")
			if format != "binary" && format != "xml" {
				return fmt.Errorf("unknown format %q (want binary or xml)", format)
			}
			id, err := storage.ParseID(args[0])
			if err != nil {
				return err
			}

			return withArchive(s, func(archive api.ArchiveCloser) error {
				data, err := archive.Read(id)
				if err != nil {
					return err
				}
				if format == "binary" {
					return writeOutput(cmd.OutOrStdout(), output, data)
				}

				file, err := chunk.DecodeBinary(data, decodeOptions(s)...)
				if err != nil {
					return err
				}
				var out bytes.Buffer
				if err := file.WriteText(&out, s.config.HexLayout()); err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), output, out.Bytes())
			})
		},
	}

	getCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	getCmd.Flags().String("format", "binary", "Output format (binary or xml)")
	return getCmd
}

func newArchiveDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a document from the archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settingsFrom(cmd)
			if err != nil {
				return err
			}
			id, err := storage.ParseID(args[0])
			if err != nil {
				return err
			}

			return withArchive(s, func(archive api.ArchiveCloser) error {
				if err := archive.Delete(id); err != nil {
					return err
				}
				cmd.Printf("Deleted %s\n", id)
				return nil
			})
		},
	}
}

func newArchiveListCmd() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List archived documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settingsFrom(cmd)
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")

			return withArchive(s, func(archive api.ArchiveCloser) error {
				docs, err := archive.List()
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(docs)
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tCREATED\tSIZE\tRECORDS\tBLAKE3")
				for _, doc := range docs {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
						doc.ID, doc.CreatedAt.Format(time.RFC3339), doc.Size, doc.Records, shortDigest(doc.Blake3))
				}
				return tw.Flush()
			})
		},
	}

	listCmd.Flags().Bool("json", false, "Print the listing as JSON")
	return listCmd
}

// withArchive opens the archive under the configured data directory for the duration of fn
func withArchive(s *settings, fn func(api.ArchiveCloser) error) error {
	if container == nil {
		return errors.New("dependency container not initialized")
	}
	if err := os.MkdirAll(s.config.DataDir, 0750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	archive, err := container.GetArchiveFactory().OpenArchive(s.config.DataDir, s.config.Security.MaxDocumentSize, s.logger)
	if err != nil {
		return err
	}
	defer archive.Close()

	return fn(archive)
}

func shortDigest(digest string) string {
	if len(digest) > 16 {
		return digest[:16]
	}
	return digest
}
