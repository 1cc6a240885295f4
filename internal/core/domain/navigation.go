package domain

import "sort"

// NavigationMenuItem is a single entry of the navigation menu. Items with
// nested entries render as groups.
type NavigationMenuItem struct {
	DisplayName  string               `json:"display_name"`
	MaterialIcon string               `json:"material_icon,omitempty"`
	Link         string               `json:"link,omitempty"`
	IsNested     bool                 `json:"is_nested"`
	Sequence     int                  `json:"sequence"`
	UserRoles    []Role               `json:"user_roles"`
	NestedItems  []NavigationMenuItem `json:"nested_items,omitempty"`
}

// NavigationMenu is the shared menu served to every request.
type NavigationMenu struct {
	MenuItems []NavigationMenuItem `json:"menu_items"`
}

// Sorted returns a copy of the menu with items ordered by Sequence at every level.
func (m *NavigationMenu) Sorted() *NavigationMenu {
	return &NavigationMenu{MenuItems: sortItems(m.MenuItems)}
}

// ForRoles returns a copy of the menu restricted to items visible to any of
// roles. An item without UserRoles is visible to everyone. The receiver is
// never modified.
func (m *NavigationMenu) ForRoles(roles []Role) *NavigationMenu {
	return &NavigationMenu{MenuItems: filterItems(m.MenuItems, roles)}
}

func filterItems(items []NavigationMenuItem, roles []Role) []NavigationMenuItem {
	out := make([]NavigationMenuItem, 0, len(items))
	for _, it := range items {
		if !visibleTo(it, roles) {
			continue
		}
		cp := it
		cp.UserRoles = append([]Role(nil), it.UserRoles...)
		if it.IsNested {
			cp.NestedItems = filterItems(it.NestedItems, roles)
			if len(cp.NestedItems) == 0 {
				continue
			}
		}
		out = append(out, cp)
	}
	return out
}

func visibleTo(it NavigationMenuItem, roles []Role) bool {
	if len(it.UserRoles) == 0 {
		return true
	}
	for _, want := range it.UserRoles {
		for _, have := range roles {
			if want == have {
				return true
			}
		}
	}
	return false
}

func sortItems(items []NavigationMenuItem) []NavigationMenuItem {
	out := make([]NavigationMenuItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	for i := range out {
		if len(out[i].NestedItems) > 0 {
			out[i].NestedItems = sortItems(out[i].NestedItems)
		}
	}
	return out
}
