package app

import (
	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/axon_dashboard/internal/export"
	"github.com/Dicklesworthstone/axon_dashboard/internal/media"
	"github.com/Dicklesworthstone/axon_dashboard/internal/ui"
)

func runDashboard(cmd *cobra.Command, g *globals) error {
	ctx := cmd.Context()
	cfg, log := g.cfg, g.log

	format, err := export.ParseFormat(cfg.Export.Format)
	if err != nil {
		return err
	}

	p, err := buildPipeline(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer p.release()

	loop := p.newLoop(cfg, log)
	loop.Start(ctx)
	defer loop.Stop()

	opts := ui.Options{
		Loop:    loop,
		Log:     log.With("component", "ui"),
		Shuffle: cfg.Media.Shuffle,
	}

	releaseBattery := attachBattery(&opts, log)
	defer releaseBattery()

	opts.Exporter = export.Exporter{Dir: cfg.Export.Dir, Format: format}

	shelf := media.NewShelf(p.seed)
	defer shelf.Close()
	shelf.Player.SetShuffle(cfg.Media.Shuffle)
	opts.Shelf = shelf

	stopMedia, err := startMedia(cfg, shelf, log)
	if err != nil {
		return err
	}
	defer stopMedia()

	return ui.RunTUI(opts)
}
