// Package catalog exposes the reusable reference assets shots and batch tasks
// anchor their generations on.
package catalog

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"engine/internal/domain"
)

// Extensions are tried in this order when resolving a logical file name.
var Extensions = []string{".jpeg", ".jpg", ".png"}

// Catalog is an in-memory index of assets loaded lazily from a JSON document
// of the form {"assets": [...]}. A missing or malformed document leaves the
// catalog empty; loading is retried on the next access until it succeeds.
type Catalog struct {
	path     string
	filesDir string
	logger   zerolog.Logger

	mu     sync.RWMutex
	loaded bool
	assets map[string]domain.Asset
}

// New returns a catalog reading path and resolving files under filesDir.
func New(path, filesDir string, logger *zerolog.Logger) *Catalog {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "catalog").Logger()
	}
	return &Catalog{
		path:     path,
		filesDir: filesDir,
		logger:   l,
		assets:   map[string]domain.Asset{},
	}
}

// GetAsset returns the asset registered under id. A catalog that failed to
// load reports every id as absent.
func (c *Catalog) GetAsset(id string) (domain.Asset, bool) {
	c.ensureLoaded()
	c.mu.RLock()
	defer c.mu.RUnlock()
	asset, ok := c.assets[strings.TrimSpace(id)]
	return asset, ok
}

// ResolveFilePath returns the first existing file named fileName plus one of
// Extensions inside the files directory.
func (c *Catalog) ResolveFilePath(fileName string) (string, bool) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" || strings.ContainsAny(fileName, `/\`) || fileName == ".." {
		return "", false
	}
	for _, ext := range Extensions {
		candidate := filepath.Join(c.filesDir, fileName+ext)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// Resolve looks up id and its physical file in one call.
func (c *Catalog) Resolve(id string) (domain.Asset, string, error) {
	asset, ok := c.GetAsset(id)
	if !ok {
		return domain.Asset{}, "", domain.ErrAssetNotFound
	}
	path, ok := c.ResolveFilePath(asset.FileName)
	if !ok {
		return asset, "", domain.ErrAssetFileMissing
	}
	return asset, path, nil
}

// Len reports how many assets are loaded.
func (c *Catalog) Len() int {
	c.ensureLoaded()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.assets)
}

func (c *Catalog) ensureLoaded() {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return
	}
	assets, err := c.read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.logger.Warn().Str("path", c.path).Msg("catalog: assets catalog not found")
		} else {
			c.logger.Error().Err(err).Str("path", c.path).Msg("catalog: failed to load assets catalog")
		}
		return
	}
	c.assets = assets
	c.loaded = true
	c.logger.Info().Int("assets", len(assets)).Msg("catalog: loaded assets")
}

func (c *Catalog) read() (map[string]domain.Asset, error) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Assets []json.RawMessage `json:"assets"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	assets := make(map[string]domain.Asset, len(doc.Assets))
	for i, entry := range doc.Assets {
		var asset domain.Asset
		if err := json.Unmarshal(entry, &asset); err != nil {
			c.logger.Error().Err(err).Int("index", i).Msg("catalog: skipping malformed asset")
			continue
		}
		asset.AssetID = strings.TrimSpace(asset.AssetID)
		if asset.AssetID == "" {
			c.logger.Error().Int("index", i).Msg("catalog: skipping asset without asset_id")
			continue
		}
		assets[asset.AssetID] = asset
	}
	return assets, nil
}
