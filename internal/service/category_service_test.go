package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/pkg/util"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func TestCreateCategorySlugs(t *testing.T) {
	f := newFixture(t)
	actor := f.user(t, "Ada", "ada@example.com")

	first, err := f.categories.CreateCategory(f.ctx, actor.ID, CategoryCreateInput{Name: "Café Hardware"})
	require.NoError(t, err)
	assert.Equal(t, "cafe-hardware", first.Slug)
	assert.True(t, first.IsActive)

	second, err := f.categories.CreateCategory(f.ctx, actor.ID, CategoryCreateInput{Name: "Cafe hardware!"})
	require.NoError(t, err)
	assert.Equal(t, "cafe-hardware-2", second.Slug)

	_, err = f.categories.CreateCategory(f.ctx, actor.ID, CategoryCreateInput{Name: "!!!"})
	de := requireCode(t, err, apperrors.CodeValidation)
	assert.Contains(t, de.Details, "name")

	logs := f.store.ActivitiesFor(domain.LogCategory)
	require.Len(t, logs, 2)
	assert.Equal(t, "Created category: Café Hardware", logs[0].Description)
}

func TestCategoryTreeRules(t *testing.T) {
	f := newFixture(t)
	actor := f.user(t, "Ada", "ada@example.com")
	root, err := f.categories.CreateCategory(f.ctx, actor.ID, CategoryCreateInput{Name: "Hardware"})
	require.NoError(t, err)
	child, err := f.categories.CreateCategory(f.ctx, actor.ID, CategoryCreateInput{Name: "Printers", ParentID: &root.ID})
	require.NoError(t, err)
	grandchild, err := f.categories.CreateCategory(f.ctx, actor.ID, CategoryCreateInput{Name: "Toner", ParentID: &child.ID})
	require.NoError(t, err)

	got, err := f.categories.GetCategory(f.ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, got.Children, 1)
	assert.Equal(t, child.ID, got.Children[0].ID)

	_, err = f.categories.UpdateCategory(f.ctx, actor.ID, root.ID, CategoryUpdateInput{ParentID: util.Some(grandchild.ID)})
	de := requireCode(t, err, apperrors.CodeValidation)
	assert.Contains(t, de.Details, "parent_id")

	_, err = f.categories.UpdateCategory(f.ctx, actor.ID, root.ID, CategoryUpdateInput{ParentID: util.Some(root.ID)})
	requireCode(t, err, apperrors.CodeValidation)

	ghost := "8a4c3c5e-7d1f-4a53-9d35-6f4f2a9e0b11"
	_, err = f.categories.CreateCategory(f.ctx, actor.ID, CategoryCreateInput{Name: "Orphan", ParentID: &ghost})
	requireCode(t, err, apperrors.CodeValidation)

	err = f.categories.DeleteCategory(f.ctx, actor.ID, child.ID)
	requireCode(t, err, apperrors.CodeConflict)

	require.NoError(t, f.categories.DeleteCategory(f.ctx, actor.ID, grandchild.ID))
	require.NoError(t, f.categories.DeleteCategory(f.ctx, actor.ID, child.ID))
	_, err = f.categories.GetCategory(f.ctx, child.ID)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestUpdateCategoryRenameAndAudit(t *testing.T) {
	f := newFixture(t)
	actor := f.user(t, "Ada", "ada@example.com")
	category, err := f.categories.CreateCategory(f.ctx, actor.ID, CategoryCreateInput{Name: "Network"})
	require.NoError(t, err)

	updated, err := f.categories.UpdateCategory(f.ctx, actor.ID, category.ID, CategoryUpdateInput{
		Name:      util.Some("Networking"),
		SortOrder: util.Some(5),
	})
	require.NoError(t, err)
	assert.Equal(t, "networking", updated.Slug)
	assert.Equal(t, 5, updated.SortOrder)

	_, err = f.categories.UpdateCategory(f.ctx, actor.ID, category.ID, CategoryUpdateInput{Name: util.Some("Networking")})
	require.NoError(t, err)

	logs := f.store.ActivitiesFor(domain.LogCategory)
	require.Len(t, logs, 2)
	assert.Equal(t, "Updated category: Networking", logs[1].Description)
	assert.Equal(t, map[string]any{"name": "Networking", "slug": "networking", "sort_order": 5}, logs[1].Properties["attributes"])
}

func TestListCategoriesDefaultsToSortOrder(t *testing.T) {
	f := newFixture(t)
	actor := f.user(t, "Ada", "ada@example.com")
	for i, name := range []string{"Zeta", "Alpha", "Mid"} {
		order := []int{0, 2, 1}[i]
		_, err := f.categories.CreateCategory(f.ctx, actor.ID, CategoryCreateInput{Name: name, SortOrder: &order})
		require.NoError(t, err)
	}

	page, err := f.categories.ListCategories(f.ctx, domain.ListParams{})
	require.NoError(t, err)
	names := []string{page.Items[0].Name, page.Items[1].Name, page.Items[2].Name}
	assert.Equal(t, []string{"Zeta", "Mid", "Alpha"}, names)
}

func TestActivityLogListing(t *testing.T) {
	f := newFixture(t)
	actor := f.user(t, "Ada", "ada@example.com")
	f.ticket(t, actor, "first")
	f.ticket(t, actor, "second")

	require.NoError(t, f.activity.Record(f.ctx, domain.Activity{
		LogName: domain.LogTicket, Event: domain.ActivityUpdated, Properties: map[string]any{"attributes": map[string]any{}},
	}))

	page, err := f.activity.List(f.ctx, domain.LogTicket, domain.ListParams{})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	assert.Contains(t, page.Items[0].Description, "second")

	_, err = f.activity.List(f.ctx, domain.LogTicket, domain.ListParams{SortBy: "description"})
	requireCode(t, err, apperrors.CodeValidation)
}
