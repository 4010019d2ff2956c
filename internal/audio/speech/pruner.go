package speech

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Prune enforces the cache bounds: files older than maxAge are removed, then
// oldest files go until the total size fits maxBytes. Zero maxAge or maxBytes
// disables the respective bound.
func (c *Cache) Prune(maxAge time.Duration, maxBytes int64) error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}

	type cacheFile struct {
		path    string
		size    int64
		modTime time.Time
	}

	var files []cacheFile
	var total int64
	now := time.Now()

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), cacheExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}

		path := filepath.Join(c.dir, e.Name())
		if maxAge > 0 && now.Sub(info.ModTime()) > maxAge {
			if err := os.Remove(path); err == nil {
				c.log.Debug().Str("file", path).Msg("pruned expired speech file")
			}
			continue
		}

		files = append(files, cacheFile{path: path, size: info.Size(), modTime: info.ModTime()})
		total += info.Size()
	}

	if maxBytes <= 0 || total <= maxBytes {
		return nil
	}

	sort.Slice(files, func(i, j int) bool { return files[i].modTime.Before(files[j].modTime) })
	for _, f := range files {
		if total <= maxBytes {
			break
		}
		if err := os.Remove(f.path); err != nil {
			continue
		}
		total -= f.size
		c.log.Debug().Str("file", f.path).Msg("pruned speech file over size bound")
	}

	return nil
}

// RunPruner prunes the cache once immediately and then on a ticker until ctx
// is done. Run under the job manager from main.
func (c *Cache) RunPruner(ctx context.Context, interval time.Duration, maxAge time.Duration, maxBytes int64) error {
	if err := c.Prune(maxAge, maxBytes); err != nil {
		c.log.Warn().Err(err).Msg("speech cache prune failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.Prune(maxAge, maxBytes); err != nil {
				c.log.Warn().Err(err).Msg("speech cache prune failed")
			}
		}
	}
}
