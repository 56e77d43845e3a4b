// Package app wires the configured generator, design library and render
// cache shared by the MCP and HTTP front ends.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ironsheep/tattoo-studio/internal/compose"
	"github.com/ironsheep/tattoo-studio/internal/config"
	"github.com/ironsheep/tattoo-studio/internal/generate"
	"github.com/ironsheep/tattoo-studio/internal/library"
)

// DesignSource reads remembered designs.
type DesignSource interface {
	Get(ctx context.Context, id string) (*generate.Design, error)
	Recent(ctx context.Context, limit int) ([]*generate.Design, error)
}

// Services holds the long-lived pieces built from a Config.
type Services struct {
	// Generator is nil when no Stability API key is configured.
	Generator generate.Generator

	// Library is nil when library.path is empty.
	Library *library.Library

	Renders *compose.RenderCache
}

// Open builds the services described by cfg.
func Open(cfg config.Config) (*Services, error) {
	s := &Services{}

	if cfg.Library.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Library.Path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create library directory: %w", err)
		}
		lib, err := library.Open(cfg.Library.Path)
		if err != nil {
			return nil, err
		}
		s.Library = lib
	}

	renders, err := compose.NewRenderCache(cfg.Cache.RenderEntries)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Renders = renders

	if cfg.Stability.APIKey == "" {
		log.Printf("STABILITY_API_KEY is not set; design generation is disabled")
		return s, nil
	}
	client, err := generate.NewStabilityClient(generate.StabilityConfig{
		APIKey:   cfg.Stability.APIKey,
		BaseURL:  cfg.Stability.BaseURL,
		Engine:   cfg.Stability.Engine,
		CFGScale: cfg.Stability.CFGScale,
		Steps:    cfg.Stability.Steps,
		Timeout:  cfg.Stability.Timeout(),
		Retries:  cfg.Stability.Retries,
	})
	if err != nil {
		s.Close()
		return nil, err
	}

	var store generate.Store
	if s.Library != nil {
		store = s.Library
	}
	memo, err := generate.NewMemo(client, cfg.Cache.DesignEntries, store)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Generator = memo
	return s, nil
}

// Designs returns the library as a DesignSource, or a nil interface when
// there is no library.
func (s *Services) Designs() DesignSource {
	if s.Library == nil {
		return nil
	}
	return s.Library
}

// Close releases the library.
func (s *Services) Close() error {
	if s.Library == nil {
		return nil
	}
	return s.Library.Close()
}

// InitConfig writes the default settings to path, or to the default config
// location when path is empty, and returns the path written. An existing
// file is left alone.
func InitConfig(path string) (string, error) {
	if path == "" {
		path = config.DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config %s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to check config %s: %w", path, err)
	}
	if err := config.Write(path, config.Default()); err != nil {
		return "", err
	}
	return path, nil
}
