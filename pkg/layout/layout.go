// Package layout models the spatial arrangement of tracked content
// blocks (areas of interest) and answers the conditioner's
// point-containment queries.
package layout

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Block is one tracked rectangular region in page coordinates.
type Block struct {
	ID     string  `yaml:"id" json:"id"`
	X      float64 `yaml:"x" json:"x"`
	Y      float64 `yaml:"y" json:"y"`
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// Contains reports whether the point falls inside the block.
func (b Block) Contains(x, y float64) bool {
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}

// Layout is a set of AOI blocks. Safe for concurrent resolve/reload.
type Layout struct {
	mu     sync.RWMutex
	blocks []Block
}

// New creates a Layout from a fixed set of blocks.
func New(blocks []Block) *Layout {
	return &Layout{blocks: blocks}
}

// Load reads a layout YAML file of the form:
//
//	blocks:
//	  - {id: p1, x: 0, y: 0, width: 800, height: 120}
func Load(path string) (*Layout, error) {
	l := &Layout{}
	if err := l.Reload(path); err != nil {
		return nil, err
	}
	return l, nil
}

type layoutFile struct {
	Blocks []Block `yaml:"blocks"`
}

// Reload replaces the block set from the file, atomically with respect
// to concurrent ResolveRegion calls.
func (l *Layout) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("layout: read %s: %w", path, err)
	}
	var lf layoutFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return fmt.Errorf("layout: parse %s: %w", path, err)
	}
	for i, b := range lf.Blocks {
		if b.ID == "" {
			return fmt.Errorf("layout: block %d missing id", i)
		}
	}
	l.mu.Lock()
	l.blocks = lf.Blocks
	l.mu.Unlock()
	return nil
}

// SetBlocks replaces the block set directly, for clients that report
// their own measured geometry instead of using a layout file.
func (l *Layout) SetBlocks(blocks []Block) {
	l.mu.Lock()
	l.blocks = blocks
	l.mu.Unlock()
}

// ResolveRegion returns the id of the block containing the point.
// When blocks overlap the last match wins, mirroring document order
// where later blocks render on top.
func (l *Layout) ResolveRegion(x, y float64) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	id := ""
	for _, b := range l.blocks {
		if b.Contains(x, y) {
			id = b.ID
		}
	}
	return id, id != ""
}

// BlockCount returns the number of tracked blocks.
func (l *Layout) BlockCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.blocks)
}
