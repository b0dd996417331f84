package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/axon_dashboard/internal/export"
)

func newExportCmd(g *globals) *cobra.Command {
	var (
		format string
		stdout bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write one snapshot to the export directory",
		Long: `Takes a fresh reading and writes it as axon_system_log_<ms>.json (or .yaml)
to the export directory. With --stdout the document is printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log := g.cfg, g.log
			if !cmd.Flags().Changed("format") {
				format = cfg.Export.Format
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			p, err := buildPipeline(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer p.release()

			// Bridged readings need two samples before CPU usage has a delta.
			n := 1
			if p.bridged {
				n = 2
			}
			snap, err := collect(cmd.Context(), p.newLoop(cfg, log), n)
			if err != nil {
				return err
			}

			if stdout {
				data, err := export.Marshal(snap, f)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			path, err := export.Exporter{Dir: cfg.Export.Dir, Format: f}.Export(snap, time.Now())
			if err != nil {
				return err
			}
			log.Info("snapshot exported", "path", path)
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "json|yaml")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "print instead of writing a file")
	return cmd
}
