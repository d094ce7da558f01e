package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/space-catalog/pkg/pagination"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		out         string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole catalog as JSON",
		Long: `Fetch every page and write the merged, de-duplicated listing as a
JSON array, to stdout or to --out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := pagination.DefaultConfig()
			if concurrency > 0 {
				cfg.MaxConcurrency = concurrency
			}

			items, err := pagination.NewBatchFetcher(pagination.ClientLoader{Client: a.client}, cfg).FetchAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("export space objects: %w", err)
			}

			data, err := json.MarshalIndent(items, "", "  ")
			if err != nil {
				return fmt.Errorf("encode space objects: %w", err)
			}
			data = append(data, '\n')

			if out == "" {
				_, err = a.out.Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			a.logger.Info().Int("count", len(items)).Str("path", out).Msg("Exported space objects")
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "parallel page requests (default 4)")
	return cmd
}
