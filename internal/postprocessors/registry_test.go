package postprocessors

import (
	"errors"
	"testing"

	"github.com/custodia-labs/policyqa/internal/core/domain"
	"github.com/custodia-labs/policyqa/internal/core/ports/driven"
	"github.com/custodia-labs/policyqa/internal/postprocessors/chunker"
)

func TestRegistry_RegisterAndBuild(t *testing.T) {
	r := NewRegistry()
	r.Register("test", func(cfg map[string]any) (driven.PostProcessor, error) {
		name := "default"
		if n, ok := cfg["name"].(string); ok {
			name = n
		}
		return &mockProcessor{name: name}, nil
	})

	if !r.Has("test") {
		t.Fatal("expected 'test' to be registered")
	}
	proc, err := r.Build("test", map[string]any{"name": "custom"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if proc.Name() != "custom" {
		t.Errorf("expected name 'custom', got %q", proc.Name())
	}
}

func TestRegistry_BuildUnknown(t *testing.T) {
	_, err := NewRegistry().Build("missing", nil)
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRegisterDefaults(t *testing.T) {
	r := DefaultRegistry()
	names := r.Names()
	if len(names) != 2 || names[0] != "chunker" || names[1] != "sections" {
		t.Errorf("unexpected defaults: %v", names)
	}
}

func TestBuildChunker_ConfigTypes(t *testing.T) {
	tests := []struct {
		name    string
		cfg     map[string]any
		size    int
		overlap int
	}{
		{"nil config", nil, chunker.DefaultChunkSize, chunker.DefaultChunkOverlap},
		{"int", map[string]any{"chunk_size": 500, "overlap": 50}, 500, 50},
		{"int64 from toml", map[string]any{"chunk_size": int64(800), "overlap": int64(0)}, 800, 0},
		{"float64 from json", map[string]any{"chunk_size": float64(600)}, 600, chunker.DefaultChunkOverlap},
		{"wrong type ignored", map[string]any{"chunk_size": "big"}, chunker.DefaultChunkSize, chunker.DefaultChunkOverlap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc, err := buildChunker(tt.cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			c := proc.(*chunker.Processor)
			if c.ChunkSize() != tt.size || c.Overlap() != tt.overlap {
				t.Errorf("got %d/%d, want %d/%d", c.ChunkSize(), c.Overlap(), tt.size, tt.overlap)
			}
		})
	}
}
