package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"go-admin-console/internal/model"
	"go-admin-console/internal/repository"
)

func parent(id int64) *int64 { return &id }

func TestBuildMenuTree(t *testing.T) {
	t.Parallel()

	options := []model.MenuOption{
		{ID: 4, ParentID: parent(2), Label: "Node types", Path: "/manage/node-types", SortOrder: 2},
		{ID: 1, Label: "Dashboard", Path: "/", SortOrder: 1},
		{ID: 2, Label: "Catalogs", SortOrder: 2},
		{ID: 3, ParentID: parent(2), Label: "Companies", Path: "/manage/companies", SortOrder: 1},
		{ID: 8, ParentID: parent(6), Label: "Failure modes", Path: "/manage/failure-modes", SortOrder: 1},
		{ID: 9, Label: "Empty header", SortOrder: 9},
	}

	tree := BuildMenuTree(options)

	require.Len(t, tree, 2)
	require.Equal(t, int64(1), tree[0].OptionID)
	require.Nil(t, tree[0].Children)
	require.Equal(t, "Catalogs", tree[1].Label)
	require.Len(t, tree[1].Children, 2)
	require.Equal(t, "Companies", tree[1].Children[0].Label)
	require.Equal(t, "Node types", tree[1].Children[1].Label)
}

func TestMenuServiceEntries(t *testing.T) {
	t.Parallel()

	t.Run("admin sees every option", func(t *testing.T) {
		menus := &repository.MockMenuRepository{}
		menus.On("ListAll", mock.Anything).Return([]model.MenuOption{{ID: 1, Label: "Dashboard", Path: "/"}}, nil)

		entries, err := NewMenuService(menus).Entries(context.Background(), 1, model.RoleAdmin)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		menus.AssertExpectations(t)
	})

	t.Run("others see their grants", func(t *testing.T) {
		menus := &repository.MockMenuRepository{}
		menus.On("ListGranted", mock.Anything, int64(7)).Return([]model.MenuOption{}, nil)

		entries, err := NewMenuService(menus).Entries(context.Background(), 7, model.RoleViewer)
		require.NoError(t, err)
		require.Empty(t, entries)
		menus.AssertExpectations(t)
	})
}
