package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hexzone/internal/hexgrid"
	"github.com/sells-group/hexzone/internal/render"
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Write the hex grid clipped to the boundary as GeoJSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("grid"); err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("out")

		env, err := initSurge(cfg)
		if err != nil {
			return err
		}

		tiles, err := env.Generator.Grid()
		if err != nil {
			return eris.Wrap(err, "grid: generate")
		}
		zap.L().Info("grid generated",
			zap.String("command", "grid"),
			zap.Int("tiles", len(tiles)),
			zap.Float64("hex_size", env.Generator.HexSize()),
		)

		return writeJSON(cmd.OutOrStdout(), out, render.NewPolygonCollection(hexgrid.Rings(tiles), nil))
	},
}

func init() {
	gridCmd.Flags().String("out", "-", "output path, - for stdout")
	rootCmd.AddCommand(gridCmd)
}
