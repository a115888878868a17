package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render one surge zone and write it as GeoJSON",
	Long:  "Loads a zone into an in-memory map style and writes every fill layer as one GeoJSON FeatureCollection with fill color and opacity properties.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("render"); err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("out")
		zone, _ := cmd.Flags().GetInt("zone")
		if !cmd.Flags().Changed("zone") {
			zone = cfg.Surge.StartIndex
		}

		env, err := initSurge(cfg)
		if err != nil {
			return err
		}

		if err := env.Manager.LoadZone(zone); err != nil {
			return eris.Wrap(err, "render: load zone")
		}

		st := env.Manager.State()
		zap.L().Info("zone rendered",
			zap.String("command", "render"),
			zap.Int("zone_index", st.Index),
			zap.String("zone", st.Zone),
			zap.Int("layers", len(st.Overlays)),
		)

		return writeJSON(cmd.OutOrStdout(), out, env.Style.Snapshot())
	},
}

func init() {
	renderCmd.Flags().Int("zone", 0, "zone index, wrapped modulo the catalog (default surge.start_index)")
	renderCmd.Flags().String("out", "-", "output path, - for stdout")
	rootCmd.AddCommand(renderCmd)
}
