package app

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"
)

func newStreamCmd(g *globals) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Print snapshots as NDJSON until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log := g.cfg, g.log
			p, err := buildPipeline(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer p.release()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			loop := p.newLoop(cfg, log)
			defer loop.Stop()

			enc := json.NewEncoder(cmd.OutOrStdout())
			sent := 0
			for s := range loop.Stream(ctx) {
				if err := enc.Encode(s); err != nil {
					return err
				}
				sent++
				if count > 0 && sent >= count {
					return nil
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "stop after N snapshots (0 streams forever)")
	return cmd
}
