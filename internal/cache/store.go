// Package cache is the on-disk record of already-forwarded incidents.
// One file per incident, named by incident id, holding the raw incident
// JSON compressed with zstd. Presence of a readable entry means the
// incident was dispatched in a prior run and must not be reprocessed.
//
// The store assumes a single writer; do not run two instances against the
// same folder.
package cache

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Store is a file-per-incident cache rooted at a folder.
type Store struct {
	dir     string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Entry describes one cached incident, for operator tooling.
type Entry struct {
	IncidentID string
	Size       int64
	ModTime    time.Time
}

// Open creates the cache folder if needed and returns a store over it.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache folder is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache folder: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &Store{dir: dir, encoder: encoder, decoder: decoder}, nil
}

// Dir returns the cache folder path.
func (s *Store) Dir() string {
	return s.dir
}

// Close releases the compressor state.
func (s *Store) Close() error {
	s.encoder.Close()
	s.decoder.Close()
	return nil
}

// Contains reports whether a valid cache entry exists for the incident.
// A file that fails to decompress or parse counts as a miss (logged), so
// a corrupt entry causes the incident to be reprocessed rather than lost.
func (s *Store) Contains(incidentID string) bool {
	path, err := s.entryPath(incidentID)
	if err != nil {
		log.Printf("[warn] cache: %v", err)
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[warn] cache: read %s: %v", incidentID, err)
		}
		return false
	}

	blob, err := s.decoder.DecodeAll(data, nil)
	if err != nil {
		log.Printf("[warn] cache: entry %s is not valid zstd, treating as miss: %v", incidentID, err)
		return false
	}
	if !json.Valid(blob) {
		log.Printf("[warn] cache: entry %s holds invalid JSON, treating as miss", incidentID)
		return false
	}
	return true
}

// Put records an incident as processed, storing its raw JSON compressed.
// The write is atomic (temp file + rename) so a crash cannot leave a
// half-written entry that would later read as a corrupt hit.
func (s *Store) Put(incidentID string, rawJSON []byte) error {
	path, err := s.entryPath(incidentID)
	if err != nil {
		return err
	}

	compressed := s.encoder.EncodeAll(rawJSON, nil)

	tmp, err := os.CreateTemp(s.dir, "."+incidentID+".*")
	if err != nil {
		return fmt.Errorf("create temp entry: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(compressed); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write entry %s: %w", incidentID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close entry %s: %w", incidentID, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit entry %s: %w", incidentID, err)
	}
	return nil
}

// Get returns the decompressed raw incident JSON for a cached incident.
func (s *Store) Get(incidentID string) ([]byte, error) {
	path, err := s.entryPath(incidentID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entry %s: %w", incidentID, err)
	}
	blob, err := s.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress entry %s: %w", incidentID, err)
	}
	return blob, nil
}

// Remove deletes a cache entry. Removing a missing entry is not an error.
func (s *Store) Remove(incidentID string) error {
	path, err := s.entryPath(incidentID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove entry %s: %w", incidentID, err)
	}
	return nil
}

// List returns all cache entries sorted by incident id.
func (s *Store) List() ([]Entry, error) {
	dirents, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read cache folder: %w", err)
	}

	entries := make([]Entry, 0, len(dirents))
	for _, de := range dirents {
		if de.IsDir() || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			IncidentID: de.Name(),
			Size:       info.Size(),
			ModTime:    info.ModTime(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].IncidentID < entries[j].IncidentID })
	return entries, nil
}

// entryPath validates the id and returns its file path. Incident ids come
// from an external API, so anything that could escape the folder is refused.
func (s *Store) entryPath(incidentID string) (string, error) {
	if incidentID == "" {
		return "", fmt.Errorf("empty incident id")
	}
	if incidentID == "." || incidentID == ".." ||
		strings.ContainsAny(incidentID, "/\\") || incidentID != filepath.Base(incidentID) {
		return "", fmt.Errorf("invalid incident id %q", incidentID)
	}
	return filepath.Join(s.dir, incidentID), nil
}
