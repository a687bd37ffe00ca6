package storefront

import (
	"context"
	"fmt"
	"sync"
)

// Theme is the color scheme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ThemeKey is the storage key holding the chosen theme.
const ThemeKey = "theme"

// ParseTheme accepts only "light" and "dark".
func ParseTheme(value string) (Theme, bool) {
	switch Theme(value) {
	case ThemeLight, ThemeDark:
		return Theme(value), true
	}
	return "", false
}

// SystemThemeFunc reports the platform color scheme.
type SystemThemeFunc func() Theme

// ThemePreference resolves the active theme from storage, falling back to
// the system preference until the user picks one.
type ThemePreference struct {
	mu      sync.Mutex
	storage Storage
	system  SystemThemeFunc
	theme   Theme
	saved   bool
}

// NewThemePreference loads the stored theme. Unknown stored values are ignored.
func NewThemePreference(ctx context.Context, storage Storage, system SystemThemeFunc) (*ThemePreference, error) {
	if storage == nil {
		storage = NewInMemoryStorage()
	}
	if system == nil {
		system = func() Theme { return ThemeLight }
	}
	p := &ThemePreference{storage: storage, system: system}
	raw, _, err := storage.Get(ctx, ThemeKey)
	if err != nil {
		return nil, fmt.Errorf("storefront: load theme: %w", err)
	}
	if theme, ok := ParseTheme(raw); ok {
		p.theme = theme
		p.saved = true
	} else {
		p.theme = normalizeTheme(system())
	}
	return p, nil
}

// Theme returns the active theme.
func (p *ThemePreference) Theme() Theme {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.theme
}

// Toggle flips between light and dark and persists the choice.
func (p *ThemePreference) Toggle(ctx context.Context) (Theme, error) {
	p.mu.Lock()
	next := ThemeDark
	if p.theme == ThemeDark {
		next = ThemeLight
	}
	p.mu.Unlock()
	return next, p.Set(ctx, next)
}

// Set persists theme.
func (p *ThemePreference) Set(ctx context.Context, theme Theme) error {
	if _, ok := ParseTheme(string(theme)); !ok {
		return &ValidationError{Field: ThemeKey, Message: fmt.Sprintf("unknown theme %q", theme)}
	}
	if err := p.storage.Set(ctx, ThemeKey, string(theme)); err != nil {
		return fmt.Errorf("storefront: persist theme: %w", err)
	}
	p.mu.Lock()
	p.theme = theme
	p.saved = true
	p.mu.Unlock()
	return nil
}

// SystemChanged follows a platform scheme change while no explicit choice
// has been saved.
func (p *ThemePreference) SystemChanged() Theme {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.saved {
		p.theme = normalizeTheme(p.system())
	}
	return p.theme
}

func normalizeTheme(theme Theme) Theme {
	if theme == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}
