package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	uriScheme = "policyqa://"

	documentsURI = uriScheme + "documents"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         documentsURI,
		Name:        "documents",
		Description: "Documents currently loaded into chunk stores",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)
}

// handleDocumentsResource lists cached chunk stores.
func (s *Server) handleDocumentsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type documentInfo struct {
		DocumentOutput
		Fingerprint string    `json:"fingerprint"`
		BuiltAt     time.Time `json:"built_at"`
	}

	infos := []documentInfo{}
	if s.ports.Documents != nil {
		for _, d := range s.ports.Documents.List() {
			infos = append(infos, documentInfo{
				DocumentOutput: documentOutput(d),
				Fingerprint:    d.Fingerprint,
				BuiltAt:        d.BuiltAt,
			})
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling documents: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
