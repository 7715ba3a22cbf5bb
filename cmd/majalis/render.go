package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"majalis/internal/daterange"
	appLog "majalis/internal/log"
	"majalis/internal/render"
)

func newRenderCmd(flags *rootFlags) *cobra.Command {
	var (
		presetName string
		out        string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Fetch the feed once and write the schedule PDF to a file",
		Example: `  majalis render --preset "Next 7 days"
  majalis render --preset "This month" --out march.pdf`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			preset, err := daterange.ParsePreset(presetName)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			svc, err := newService(cfg, nil)
			if err != nil {
				return err
			}

			res, err := svc.Generate(cmd.Context(), preset)
			if err != nil {
				return err
			}

			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			if err := os.WriteFile(out, res.PDF, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			appLog.Info("schedule written", "path", out, "events", res.EventCount, "range", res.Range.Describe())
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&presetName, "preset", "p", daterange.AllDates.String(), "Date range preset")
	cmd.Flags().StringVarP(&out, "out", "o", render.Filename, "Output file")
	return cmd
}
