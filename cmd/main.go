package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"dicom2tiff/config"
	"dicom2tiff/contracts"
	"dicom2tiff/converter"
	"dicom2tiff/logging"
	"dicom2tiff/tiff_writer"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type InputFlags = contracts.InputFlags

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dicom2tiff",
		Short: "Convert DICOM whole-slide pyramids to tiled BigTIFF",
		Long: `dicom2tiff reads the pyramid levels of a DICOM whole-slide image from a
directory, a single level file or a zip archive and writes them as one
tiled BigTIFF, highest resolution first, without re-encoding the tiles.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage: true,
	}

	cmd.AddCommand(newConvertCommand())
	cmd.AddCommand(newInspectCommand())

	return cmd
}

func newConvertCommand() *cobra.Command {
	var flags InputFlags

	cmd := &cobra.Command{
		Use:   "convert <input> <output.tiff>",
		Short: "Convert a DICOM pyramid into a BigTIFF file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.ConfigPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = flags.LogLevel
			}
			if cmd.Flags().Changed("log-format") {
				cfg.LogFormat = flags.LogFormat
			}
			if cmd.Flags().Changed("jpeg-tables") {
				cfg.JPEGTables = flags.JPEGTables
			}
			if cmd.Flags().Changed("keep-failed-output") {
				cfg.KeepFailedOutput = flags.KeepFailedOutput
			}

			log, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			request := contracts.ConversionRequest{InputPath: args[0], OutputPath: args[1]}
			if err := converter.NewDICOMConverter(cfg, log).Convert(request); err != nil {
				log.WithError(err).Error("conversion failed")
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.ConfigPath, "config", "c", "", "YAML configuration file")
	cmd.Flags().StringVar(&flags.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&flags.LogFormat, "log-format", "text", "Log format (text, json)")
	cmd.Flags().BoolVar(&flags.JPEGTables, "jpeg-tables", false, "Write a shared JPEGTables tag for JPEG levels")
	cmd.Flags().BoolVar(&flags.KeepFailedOutput, "keep-failed-output", false, "Keep the output file when conversion fails")

	return cmd
}

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.tiff>",
		Short: "List the image directories of a BigTIFF file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			dirs, err := tiff_writer.ReadDirectories(f)
			if err != nil {
				return fmt.Errorf("error reading %s: %w", args[0], err)
			}
			printDirectories(cmd.OutOrStdout(), dirs)
			return nil
		},
	}
}

func printDirectories(w io.Writer, dirs []tiff_writer.DirectoryInfo) {
	value := func(d tiff_writer.DirectoryInfo, tag uint16) uint64 {
		f, _ := d.Field(tag)
		return f.Uint()
	}
	for i, d := range dirs {
		tiles, _ := d.Field(tiff_writer.TagTileOffsets)
		fmt.Fprintf(w, "Directory %d at offset %d\n", i, d.Offset)
		fmt.Fprintf(w, "  size:        %d x %d\n", value(d, tiff_writer.TagImageWidth), value(d, tiff_writer.TagImageLength))
		fmt.Fprintf(w, "  tile:        %d x %d (%d tiles)\n", value(d, tiff_writer.TagTileWidth), value(d, tiff_writer.TagTileLength), tiles.Count)
		fmt.Fprintf(w, "  compression: %d\n", value(d, tiff_writer.TagCompression))
		fmt.Fprintf(w, "  photometric: %d\n", value(d, tiff_writer.TagPhotometricInterpretation))
		if res, ok := d.Field(tiff_writer.TagXResolution); ok {
			fmt.Fprintf(w, "  resolution:  %g per cm\n", res.Rational())
		}
		if desc, ok := d.Field(tiff_writer.TagImageDescription); ok {
			fmt.Fprintf(w, "  description: %q\n", desc.ASCII())
		}
		if icc, ok := d.Field(tiff_writer.TagICCProfile); ok {
			fmt.Fprintf(w, "  icc profile: %d bytes\n", icc.Count)
		}
	}
}
