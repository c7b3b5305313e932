package cli

import (
	"github.com/spf13/cobra"
	"github.com/techbeetle/news-router/internal/app"
)

// NewWarmCommand keeps the cache fresh for the configured countries.
func NewWarmCommand() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Refresh refresh_countries on refresh_interval_seconds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			s, err := startSession(ctx, "warmer", true)
			if err != nil {
				return err
			}
			defer s.close()

			warmer := app.NewWarmer(s.runtime.Service(), s.cfg.RefreshCountries, s.cfg.RefreshInterval, s.log)
			if once {
				return warmer.RunOnce(ctx)
			}
			return warmer.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "refresh a single time and exit")
	return cmd
}
