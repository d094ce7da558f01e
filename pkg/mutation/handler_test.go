package mutation

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/space-catalog/internal/testutil"
	"github.com/Sternrassler/space-catalog/pkg/catalog"
	"github.com/Sternrassler/space-catalog/pkg/client"
	"github.com/Sternrassler/space-catalog/pkg/notify"
	"github.com/Sternrassler/space-catalog/pkg/pagination"
)

type fakeBackend struct {
	mu        sync.Mutex
	createErr error
	deleteErr error
	creates   []catalog.Draft
	deletes   []string
}

func (b *fakeBackend) Create(_ context.Context, d catalog.Draft) (catalog.SpaceObject, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.creates = append(b.creates, d)
	if b.createErr != nil {
		return catalog.SpaceObject{}, b.createErr
	}
	return d.WithID("100"), nil
}

func (b *fakeBackend) Delete(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletes = append(b.deletes, id)
	return b.deleteErr
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate() { c.n++ }

func validDraft() catalog.Draft {
	return catalog.Draft{
		Name:          "Proxima b",
		Type:          "Exoplanet",
		Mass:          7.6e24,
		Diameter:      14000,
		Distance:      4.24,
		IsHabitable:   true,
		DiscoveryYear: 2016,
		Description:   "Closest known exoplanet to the Sun",
	}
}

func newTestHandler(b Backend) (*Handler, *countingInvalidator, *notify.Queue) {
	inv := &countingInvalidator{}
	q := &notify.Queue{}
	h := NewHandler(b, inv, q)
	h.now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
	return h, inv, q
}

func TestCreate_InvalidDraftSendsNothing(t *testing.T) {
	b := &fakeBackend{}
	h, inv, q := newTestHandler(b)

	d := validDraft()
	d.Name = "X"
	d.Mass = 0
	_, err := h.Create(context.Background(), d)

	var verr *catalog.ValidationError
	require.ErrorAs(t, err, &verr)
	_, ok := verr.Message(catalog.FieldName)
	assert.True(t, ok)
	_, ok = verr.Message(catalog.FieldMass)
	assert.True(t, ok)

	assert.Empty(t, b.creates)
	assert.Zero(t, inv.n)
	assert.Zero(t, q.Len())
}

func TestCreate_SuccessInvalidatesAndNotifies(t *testing.T) {
	b := &fakeBackend{}
	h, inv, q := newTestHandler(b)

	created, err := h.Create(context.Background(), validDraft())
	require.NoError(t, err)

	assert.Equal(t, "100", created.ID)
	assert.Equal(t, 1, inv.n)
	got := q.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, notify.LevelSuccess, got[0].Level)
	assert.Equal(t, MsgCreated, got[0].Message)
}

func TestCreate_FailureNotifiesWithoutInvalidation(t *testing.T) {
	b := &fakeBackend{createErr: errors.New("500")}
	h, inv, q := newTestHandler(b)

	_, err := h.Create(context.Background(), validDraft())
	require.Error(t, err)

	assert.Zero(t, inv.n)
	got := q.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, notify.LevelError, got[0].Level)
	assert.Equal(t, MsgCreateFailed, got[0].Message)
}

func TestDelete_TwoPhase(t *testing.T) {
	b := &fakeBackend{}
	h, inv, q := newTestHandler(b)

	p := h.RequestDelete(catalog.SpaceObject{ID: "7", Name: "Vega"})
	assert.Equal(t, "7", p.ID)
	assert.Equal(t, "Vega", p.Name)
	assert.Empty(t, b.deletes, "requesting must not send anything")
	require.NotNil(t, h.Pending())

	require.NoError(t, h.ConfirmDelete(context.Background()))

	assert.Equal(t, []string{"7"}, b.deletes)
	assert.Nil(t, h.Pending())
	assert.Equal(t, 1, inv.n)
	got := q.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, MsgDeleted, got[0].Message)
}

func TestDelete_CancelSendsNothing(t *testing.T) {
	b := &fakeBackend{}
	h, inv, q := newTestHandler(b)

	h.RequestDelete(catalog.SpaceObject{ID: "7", Name: "Vega"})
	h.CancelDelete()

	assert.ErrorIs(t, h.ConfirmDelete(context.Background()), ErrNoPendingDelete)
	assert.Empty(t, b.deletes)
	assert.Zero(t, inv.n)
	assert.Zero(t, q.Len())
}

func TestDelete_RequestReplacesPending(t *testing.T) {
	b := &fakeBackend{}
	h, _, _ := newTestHandler(b)

	h.RequestDelete(catalog.SpaceObject{ID: "1"})
	h.RequestDelete(catalog.SpaceObject{ID: "2"})
	require.NoError(t, h.ConfirmDelete(context.Background()))

	assert.Equal(t, []string{"2"}, b.deletes)
}

func TestDelete_FailureClearsPendingAndNotifies(t *testing.T) {
	b := &fakeBackend{deleteErr: errors.New("boom")}
	h, inv, q := newTestHandler(b)

	h.RequestDelete(catalog.SpaceObject{ID: "3"})
	require.Error(t, h.ConfirmDelete(context.Background()))

	assert.Nil(t, h.Pending())
	assert.Zero(t, inv.n)
	got := q.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, notify.LevelError, got[0].Level)
	assert.Equal(t, MsgDeleteFailed, got[0].Message)
}

func TestDelete_EmptyID(t *testing.T) {
	b := &fakeBackend{}
	h, _, q := newTestHandler(b)

	require.Error(t, h.Delete(context.Background(), " "))
	assert.Empty(t, b.deletes)
	assert.Zero(t, q.Len())
}

func TestNewHandler_NilCollaborators(t *testing.T) {
	h := NewHandler(&fakeBackend{}, nil, nil)

	_, err := h.Create(context.Background(), validDraft())
	assert.NoError(t, err)
	assert.NoError(t, h.Delete(context.Background(), "1"))
}

// The tests below run against the mock REST server with a real client and
// fetcher.

func newServerStack(t *testing.T, mock *testutil.MockCatalog) (*Handler, *pagination.Fetcher, *notify.Queue) {
	t.Helper()

	cfg := client.DefaultConfig(mock.URL())
	cfg.Retry = client.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, BackoffMultiplier: 2}
	c, err := client.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	f := pagination.NewFetcher(pagination.SpaceObjectsQuery, pagination.ClientLoader{Client: c}, pagination.NewQueryCache())
	q := &notify.Queue{}
	return NewHandler(c, f, q), f, q
}

func TestCreateThenList(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.Seed(3)

	h, f, q := newServerStack(t, mock)
	ctx := context.Background()
	require.NoError(t, f.Load(ctx))
	require.Equal(t, 3, f.State().Items)

	created, err := h.Create(ctx, validDraft())
	require.NoError(t, err)
	assert.Equal(t, "4", created.ID)

	assert.Zero(t, f.State().Pages, "listing must be invalidated")
	require.NoError(t, f.Load(ctx))

	view := f.View()
	require.Len(t, view, 4)
	assert.Equal(t, "Proxima b", view[3].Name)

	got := q.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, MsgCreated, got[0].Message)
}

func TestDeleteFailureKeepsListing(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.Seed(3)
	mock.FailNext(http.MethodDelete, http.StatusInternalServerError, -1)

	h, f, q := newServerStack(t, mock)
	ctx := context.Background()
	require.NoError(t, f.Load(ctx))
	before := f.View()

	h.RequestDelete(before[1])
	require.Error(t, h.ConfirmDelete(ctx))

	st := f.State()
	assert.Equal(t, 1, st.Pages, "failed delete must not invalidate")
	assert.Equal(t, before, f.View())
	assert.Len(t, mock.Objects(), 3)

	got := q.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, notify.LevelError, got[0].Level)
	assert.Equal(t, MsgDeleteFailed, got[0].Message)
}

func TestCancelledDeleteIssuesNoRequest(t *testing.T) {
	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.Seed(2)

	h, f, _ := newServerStack(t, mock)
	ctx := context.Background()
	require.NoError(t, f.Load(ctx))

	h.RequestDelete(f.View()[0])
	h.CancelDelete()

	assert.Zero(t, mock.GetDeleteCount())
	assert.Len(t, mock.Objects(), 2)
}
