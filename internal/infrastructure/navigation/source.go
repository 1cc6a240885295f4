// Package navigation loads the navigation menu definition.
package navigation

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/asc-solution/accounts/internal/core/domain"
)

//go:embed navigation.json
var defaultMenu []byte

// JSONSource implements ports.MenuSource from a JSON document.
type JSONSource struct {
	read func() ([]byte, error)
}

// NewEmbeddedSource serves the menu compiled into the binary.
func NewEmbeddedSource() *JSONSource {
	return &JSONSource{read: func() ([]byte, error) { return defaultMenu, nil }}
}

// NewFileSource reads the menu from path on every Load.
func NewFileSource(path string) *JSONSource {
	return &JSONSource{read: func() ([]byte, error) { return os.ReadFile(path) }}
}

func (s *JSONSource) Load(ctx context.Context) (*domain.NavigationMenu, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := s.read()
	if err != nil {
		return nil, fmt.Errorf("read navigation menu: %w", err)
	}

	var menu domain.NavigationMenu
	if err := json.Unmarshal(raw, &menu); err != nil {
		return nil, fmt.Errorf("decode navigation menu: %w", err)
	}
	for _, it := range menu.MenuItems {
		if err := validateItem(it); err != nil {
			return nil, err
		}
	}
	return &menu, nil
}

func validateItem(it domain.NavigationMenuItem) error {
	if it.DisplayName == "" {
		return errors.New("navigation item without display name")
	}
	for _, r := range it.UserRoles {
		if !r.Valid() {
			return fmt.Errorf("navigation item %q: unknown role %q", it.DisplayName, r)
		}
	}
	if it.IsNested {
		for _, n := range it.NestedItems {
			if err := validateItem(n); err != nil {
				return err
			}
		}
	}
	return nil
}
