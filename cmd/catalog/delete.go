package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/space-catalog/pkg/catalog"
)

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a space object",
		Long: `Remove a space object. Asks for confirmation unless --yes is given;
anything but y or yes cancels without a request.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			h := a.mutations()
			if yes {
				return h.Delete(cmd.Context(), id)
			}

			pending := h.RequestDelete(catalog.SpaceObject{ID: id})
			fmt.Fprintf(a.out, "Delete space object %s? [y/N]: ", pending.ID)
			if !confirmed(a) {
				h.CancelDelete()
				fmt.Fprintln(a.out, "Cancelled")
				return nil
			}
			return h.ConfirmDelete(cmd.Context())
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func confirmed(a *app) bool {
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
