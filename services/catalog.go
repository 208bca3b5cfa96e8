package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"soundbite/types"
	"strings"

	"github.com/dhowden/tag"
)

// SnapshotName is the catalog snapshot written into the audio directory at
// startup. Informational only, the running server never reads it back.
const SnapshotName = "metadata.json"

var supportedExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".ogg":  true,
	".flac": true,
}

// CatalogService interface defines read access to the immutable catalog
// built at startup.
type CatalogService interface {
	Entries() []types.CatalogEntry
	Lookup(filename string) (types.CatalogEntry, bool)
	Dir() string
	Len() int
}

// catalogService implements the CatalogService interface. Immutable after
// BuildCatalog returns, safe to share across connection handlers without
// locking.
type catalogService struct {
	dir     string
	entries []types.CatalogEntry
	index   map[string]int
}

// BuildCatalog scans dir for supported audio files, probes each one for its
// duration via the engine and writes a JSON snapshot next to the files.
// A file that cannot be probed is logged and skipped; a missing directory
// is created and yields an empty catalog.
func BuildCatalog(ctx context.Context, dir string, engine AudioEngine) (CatalogService, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		log.Printf("Audio directory %q not found, creating it", dir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create audio directory %q: %w", dir, err)
		}
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read audio directory %q: %w", dir, err)
	}

	cat := &catalogService{
		dir:     dir,
		entries: []types.CatalogEntry{},
		index:   make(map[string]int),
	}

	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(de.Name()))
		if !supportedExtensions[ext] {
			continue
		}

		path := filepath.Join(dir, de.Name())
		duration, err := engine.Probe(ctx, path)
		if err != nil {
			log.Printf("Skipping %s: %v", de.Name(), err)
			continue
		}

		entry := types.CatalogEntry{
			Filename:    de.Name(),
			DurationSec: math.Round(duration*100) / 100,
			Format:      strings.TrimPrefix(ext, "."),
			Metadata:    extractTags(path),
		}
		cat.index[entry.Filename] = len(cat.entries)
		cat.entries = append(cat.entries, entry)
	}

	if err := cat.writeSnapshot(); err != nil {
		log.Printf("Could not write catalog snapshot: %v", err)
	}

	log.Printf("Catalog built: %d file(s) in %q", len(cat.entries), dir)
	return cat, nil
}

// Entries returns all catalog entries in scan order.
func (c *catalogService) Entries() []types.CatalogEntry {
	return c.entries
}

// Lookup finds an entry by exact filename.
func (c *catalogService) Lookup(filename string) (types.CatalogEntry, bool) {
	i, ok := c.index[filename]
	if !ok {
		return types.CatalogEntry{}, false
	}
	return c.entries[i], true
}

// Dir returns the audio directory the catalog was built from.
func (c *catalogService) Dir() string {
	return c.dir
}

// Len returns the number of catalog entries.
func (c *catalogService) Len() int {
	return len(c.entries)
}

func (c *catalogService) writeSnapshot() error {
	data, err := json.MarshalIndent(c.entries, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, SnapshotName), data, 0o644)
}

// extractTags reads embedded tag metadata. Tag failures are tolerated, the
// catalog entry simply carries no metadata.
func extractTags(path string) *types.AudioMetadata {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		return nil
	}

	trackNum, _ := meta.Track()
	md := &types.AudioMetadata{
		Title:       meta.Title(),
		Artist:      meta.Artist(),
		Album:       meta.Album(),
		TrackNumber: trackNum,
	}
	if md.Title == "" && md.Artist == "" && md.Album == "" && md.TrackNumber == 0 {
		return nil
	}
	return md
}
