package service

import (
	"context"
	"sort"

	"go-admin-console/internal/model"
)

type MenuStore interface {
	ListAll(ctx context.Context) ([]model.MenuOption, error)
	ListGranted(ctx context.Context, userID int64) ([]model.MenuOption, error)
}

type MenuService struct {
	menus MenuStore
}

func NewMenuService(menus MenuStore) *MenuService {
	return &MenuService{menus: menus}
}

// Entries returns the authorization tree for a user. Administrators see
// every option; everyone else sees what was granted to them.
func (s *MenuService) Entries(ctx context.Context, userID int64, role string) ([]model.MenuNode, error) {
	var (
		options []model.MenuOption
		err     error
	)
	if role == model.RoleAdmin {
		options, err = s.menus.ListAll(ctx)
	} else {
		options, err = s.menus.ListGranted(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	return BuildMenuTree(options), nil
}

// BuildMenuTree nests options under their parents. Options whose parent is
// not in the set are dropped, and so are headers left without children.
func BuildMenuTree(options []model.MenuOption) []model.MenuNode {
	sorted := make([]model.MenuOption, len(options))
	copy(sorted, options)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].SortOrder != sorted[j].SortOrder {
			return sorted[i].SortOrder < sorted[j].SortOrder
		}
		return sorted[i].ID < sorted[j].ID
	})

	known := make(map[int64]bool, len(sorted))
	children := make(map[int64][]model.MenuOption)
	roots := make([]model.MenuOption, 0)
	for _, o := range sorted {
		known[o.ID] = true
	}
	for _, o := range sorted {
		if o.ParentID == nil {
			roots = append(roots, o)
			continue
		}
		if known[*o.ParentID] {
			children[*o.ParentID] = append(children[*o.ParentID], o)
		}
	}

	var build func(list []model.MenuOption, seen map[int64]bool) []model.MenuNode
	build = func(list []model.MenuOption, seen map[int64]bool) []model.MenuNode {
		nodes := make([]model.MenuNode, 0, len(list))
		for _, o := range list {
			if seen[o.ID] {
				continue
			}
			seen[o.ID] = true

			node := model.MenuNode{
				OptionID: o.ID,
				Label:    o.Label,
				Path:     o.Path,
				Icon:     o.Icon,
				Children: build(children[o.ID], seen),
			}
			if node.Path == "" && len(node.Children) == 0 {
				continue
			}
			if len(node.Children) == 0 {
				node.Children = nil
			}
			nodes = append(nodes, node)
		}
		return nodes
	}

	return build(roots, map[int64]bool{})
}
