package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sternrassler/space-catalog/pkg/catalog"
)

func TestMerge_DropsDuplicatesFirstWins(t *testing.T) {
	pages := []Page{
		{Number: 1, Items: []catalog.SpaceObject{obj("1", "Sun"), obj("2", "Mercury")}},
		{Number: 2, Items: []catalog.SpaceObject{obj("2", "Mercury (shifted)"), obj("3", "Venus")}},
	}

	got := Merge(pages)

	assert.Equal(t, []string{"1", "2", "3"}, ids(got))
	assert.Equal(t, "Mercury", got[1].Name)
}

func TestMerge_OrdersNumerically(t *testing.T) {
	pages := []Page{
		{Number: 1, Items: []catalog.SpaceObject{obj("10", ""), obj("2", ""), obj("1", "")}},
		{Number: 2, Items: []catalog.SpaceObject{obj("21", ""), obj("3", "")}},
	}

	assert.Equal(t, []string{"1", "2", "3", "10", "21"}, ids(Merge(pages)))
}

func TestMerge_NonNumericIDsSortLast(t *testing.T) {
	pages := []Page{{Number: 1, Items: []catalog.SpaceObject{
		obj("beta", ""), obj("7", ""), obj("alpha", ""), obj("3", ""),
	}}}

	assert.Equal(t, []string{"3", "7", "alpha", "beta"}, ids(Merge(pages)))
}

func TestMerge_Empty(t *testing.T) {
	assert.Empty(t, Merge(nil))
	assert.Empty(t, Merge([]Page{{Number: 1}}))
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	page := Page{Number: 1, Items: []catalog.SpaceObject{obj("5", ""), obj("1", "")}}

	Merge([]Page{page})

	assert.Equal(t, []string{"5", "1"}, ids(page.Items))
}

func TestOffsetAndPageCount(t *testing.T) {
	assert.Equal(t, 0, Offset(1, 10))
	assert.Equal(t, 10, Offset(2, 10))
	assert.Equal(t, 90, Offset(10, 10))
	assert.Equal(t, 0, Offset(0, 10))

	assert.Equal(t, 0, PageCount(0, 10))
	assert.Equal(t, 1, PageCount(10, 10))
	assert.Equal(t, 3, PageCount(25, 10))
}

func TestNewPage_HasMoreOnlyWhenFull(t *testing.T) {
	assert.True(t, NewPage(1, 10, objects(10), 0).HasMore)
	assert.False(t, NewPage(1, 10, objects(9), 0).HasMore)
	assert.False(t, NewPage(3, 10, nil, 0).HasMore)
}
