package main

import (
	"github.com/spf13/cobra"

	"github.com/Sternrassler/space-catalog/internal/ui"
	"github.com/Sternrassler/space-catalog/pkg/mutation"
	"github.com/Sternrassler/space-catalog/pkg/notify"
	"github.com/Sternrassler/space-catalog/pkg/pagination"
)

func newBrowseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Open the interactive browser",
		Long: `Open a scrolling listing that loads more objects as you reach the
end, with a form to add objects and a confirmation before deleting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fetcher := pagination.NewFetcher(
				pagination.SpaceObjectsQuery,
				pagination.ClientLoader{Client: a.client},
				pagination.NewQueryCache(),
			)
			queue := &notify.Queue{}
			handler := mutation.NewHandler(
				a.client,
				mutation.InvalidatorFunc(fetcher.Invalidate),
				notify.Multi{queue, notify.Log{Logger: a.logger}},
			)

			return ui.Run(ui.Options{
				Context:   cmd.Context(),
				Fetcher:   fetcher,
				Mutations: handler,
				Notices:   queue,
			})
		},
	}
}
