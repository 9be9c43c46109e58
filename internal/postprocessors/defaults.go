package postprocessors

import (
	"github.com/custodia-labs/policyqa/internal/core/ports/driven"
	"github.com/custodia-labs/policyqa/internal/postprocessors/chunker"
	"github.com/custodia-labs/policyqa/internal/postprocessors/sections"
)

// RegisterDefaults registers the built-in processors.
func RegisterDefaults(r *Registry) {
	r.Register("sections", buildSections)
	r.Register("chunker", buildChunker)
}

// DefaultRegistry returns a registry with the built-in processors.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// buildChunker supports:
//   - chunk_size (int): characters per chunk (default: 1000)
//   - overlap (int): overlapping characters between chunks (default: 200)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if size, ok := getIntFromConfig(cfg, "chunk_size"); ok {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := getIntFromConfig(cfg, "overlap"); ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}

	return chunker.New(opts...), nil
}

// buildSections supports:
//   - max_title (int): runes kept from a heading line as the section title (default: 80)
func buildSections(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []sections.Option
	if n, ok := getIntFromConfig(cfg, "max_title"); ok {
		opts = append(opts, sections.WithMaxTitle(n))
	}
	return sections.New(opts...), nil
}

// getIntFromConfig extracts an int from a generic config map.
// TOML and JSON decoding produce int64 and float64 respectively.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
