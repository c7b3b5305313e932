package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/techbeetle/news-router/internal/ingest"
)

// NewIngestCommand runs the pipeline once and prints the response.
func NewIngestCommand() *cobra.Command {
	var (
		country  string
		query    string
		useCache bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run the pipeline once for a country and print the JSON response",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			s, err := startSession(ctx, "ingest", true)
			if err != nil {
				return err
			}
			defer s.close()

			req := ingestRequest(country, query, useCache)
			resp, err := s.runtime.Service().Handle(ctx, req)
			if err != nil {
				return fmt.Errorf("ingest %s: %w", req.Country, err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}

	cmd.Flags().StringVarP(&country, "country", "c", "us", "two-letter country code")
	cmd.Flags().StringVarP(&query, "query", "q", "", "optional keyword filter")
	cmd.Flags().BoolVar(&useCache, "use-cache", false, "serve from cache when a fresh entry exists")
	return cmd
}

// ingestRequest applies the same country fallback as the HTTP route.
func ingestRequest(country, query string, useCache bool) ingest.Request {
	return ingest.Request{
		Country:     ingest.NormalizeCountry(country),
		Query:       strings.TrimSpace(query),
		BypassCache: !useCache,
	}
}
