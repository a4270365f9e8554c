package catalog

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"
)

// ManifestPattern selects extra app manifests under the apps directory
const ManifestPattern = "**/app.yaml"

// Seeder loads extra app manifests from disk
type Seeder struct {
	catalog *Catalog
	dir     string
	logger  *zap.Logger
}

// NewSeeder creates a seeder for dir
func NewSeeder(catalog *Catalog, dir string, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{catalog: catalog, dir: dir, logger: logger}
}

// Seed registers every app found in manifests under the directory. Broken
// manifests are logged and skipped. It returns the number of apps added.
func (s *Seeder) Seed(ctx context.Context) (int, error) {
	if s.dir == "" {
		return 0, nil
	}
	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		s.logger.Warn("Apps directory not found", zap.String("dir", s.dir))
		return 0, nil
	}

	var (
		mu    sync.Mutex
		paths []string
	)
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, s.dir, func(p string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return nil
		}
		if ok, _ := doublestar.Match(ManifestPattern, filepath.ToSlash(rel)); ok {
			mu.Lock()
			paths = append(paths, p)
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	// walk order is not deterministic
	sort.Strings(paths)

	var loaded, failed int
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			s.logger.Warn("Failed to read manifest", zap.String("path", p), zap.Error(err))
			failed++
			continue
		}
		apps, err := ParseManifest(data)
		if err != nil {
			s.logger.Warn("Failed to load manifest", zap.String("path", p), zap.Error(err))
			failed++
			continue
		}
		for _, a := range apps {
			s.catalog.Register(a)
			loaded++
		}
	}

	s.logger.Info("Seeding complete", zap.Int("loaded", loaded), zap.Int("failed", failed))
	return loaded, nil
}
