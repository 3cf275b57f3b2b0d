// Package prefs persists UI preferences next to saved lesson code.
package prefs

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/jask/releasetour/internal/storage"
)

const (
	themeKey    = "code-editor-theme"
	clientIDKey = "client-id"
)

type Prefs struct {
	kv storage.KV
}

func New(kv storage.KV) *Prefs {
	return &Prefs{kv: kv}
}

// Theme returns the saved editor theme, or fallback when none was saved.
func (p *Prefs) Theme(ctx context.Context, fallback string) (string, error) {
	v, err := p.kv.Get(ctx, themeKey)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && strings.TrimSpace(v) == "") {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}
	return v, nil
}

func (p *Prefs) SetTheme(ctx context.Context, theme string) error {
	return p.kv.Set(ctx, themeKey, theme)
}

// ClientID returns a stable per-installation id, creating it on first use.
func (p *Prefs) ClientID(ctx context.Context) (string, error) {
	v, err := p.kv.Get(ctx, clientIDKey)
	if err == nil {
		if _, perr := uuid.Parse(v); perr == nil {
			return v, nil
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return "", err
	}
	id := uuid.NewString()
	if err := p.kv.Set(ctx, clientIDKey, id); err != nil {
		return "", err
	}
	return id, nil
}
