package app

import (
	"fmt"

	godbus "github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/axon_dashboard/internal/bridge"
)

func newBridgeCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "bridge",
		Short: "Serve host metrics on D-Bus for unprivileged dashboards",
		Long: `Exports ` + bridge.BusName + ` at ` + bridge.ObjPath + ` on the session bus with
GetStats and GetStorage, backed by in-process collectors. Runs until
interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := g.log.With("component", "bridge")
			ctx := cmd.Context()

			local := bridge.NewLocal()
			if !local.Available(ctx) {
				return fmt.Errorf("host metrics unreadable: %w", bridge.ErrNoBridge)
			}

			conn, err := godbus.ConnectSessionBus(godbus.WithContext(ctx))
			if err != nil {
				return fmt.Errorf("connect session bus: %w", err)
			}
			defer conn.Close()

			if err := bridge.NewService(local).Export(conn); err != nil {
				return err
			}
			log.Info("serving host bridge", "name", bridge.BusName)
			<-ctx.Done()
			log.Info("host bridge stopped")
			return nil
		},
	}
}
