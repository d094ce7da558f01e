package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Sternrassler/space-catalog/pkg/catalog"
	"github.com/Sternrassler/space-catalog/pkg/mutation"
	"github.com/Sternrassler/space-catalog/pkg/pagination"
)

// pageLoadedMsg reports a finished page request. The fetcher holds the
// result; the model re-reads its state.
type pageLoadedMsg struct {
	appended bool
	err      error
}

type createdMsg struct {
	obj catalog.SpaceObject
	err error
}

type deletedMsg struct {
	err error
}

type toastExpiredMsg struct {
	id int
}

func loadCmd(ctx context.Context, f *pagination.Fetcher) tea.Cmd {
	if f == nil {
		return nil
	}
	return func() tea.Msg {
		err := f.Load(ctx)
		return pageLoadedMsg{err: err}
	}
}

func fetchNextCmd(ctx context.Context, f *pagination.Fetcher) tea.Cmd {
	return func() tea.Msg {
		ok, err := f.FetchNext(ctx)
		return pageLoadedMsg{appended: ok, err: err}
	}
}

func createCmd(ctx context.Context, h *mutation.Handler, draft catalog.Draft) tea.Cmd {
	return func() tea.Msg {
		obj, err := h.Create(ctx, draft)
		return createdMsg{obj: obj, err: err}
	}
}

func confirmDeleteCmd(ctx context.Context, h *mutation.Handler) tea.Cmd {
	return func() tea.Msg {
		return deletedMsg{err: h.ConfirmDelete(ctx)}
	}
}

func expireToastCmd(id int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}
