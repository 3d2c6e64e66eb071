package tile

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// ErrTileNotFound is returned by a Source that has no data for a tile.
var ErrTileNotFound = errors.New("tile not found")

// ElevationEntry is the name of the elevation stream inside a tile archive.
const ElevationEntry = "elv"

// Source supplies the raw ELV bytes of a tile by name.
type Source interface {
	Load(name string) ([]byte, error)
}

// DirSource reads tiles from a directory holding either <name>.elv files or
// <name>.zip archives with an "elv" entry.
type DirSource struct {
	Dir string
}

// Load implements Source.
func (s DirSource) Load(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir, name+".elv"))
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading tile file: %w", err)
	}

	data, err = readZipEntry(filepath.Join(s.Dir, name+".zip"), ElevationEntry)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrTileNotFound, name)
	}
	return data, err
}

func readZipEntry(path, entry string) ([]byte, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer archive.Close()

	f, err := archive.Open(entry)
	if err != nil {
		return nil, fmt.Errorf("opening %s in %s: %w", entry, path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s in %s: %w", entry, path, err)
	}
	return data, nil
}

// WriteZip writes data as the "elv" entry of a tile archive.
func WriteZip(w io.Writer, data []byte) error {
	zw := zip.NewWriter(w)
	f, err := zw.Create(ElevationEntry)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		return err
	}
	return zw.Close()
}

// MemorySource serves tiles from memory. It is safe for concurrent use.
type MemorySource struct {
	mu    sync.RWMutex
	tiles map[string][]byte
}

// NewMemorySource creates an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{tiles: make(map[string][]byte)}
}

// Put stores the ELV bytes for a tile.
func (s *MemorySource) Put(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiles[name] = data
}

// Load implements Source.
func (s *MemorySource) Load(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.tiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTileNotFound, name)
	}
	return data, nil
}
