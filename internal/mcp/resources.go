package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// TagsURI is the resource listing every tag.
const TagsURI = "bookmarks://tags"

// registerResources registers the catalog's read-only resources.
func (s *Server) registerResources() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "tags",
			URI:         TagsURI,
			Description: "Every tag used by any bookmark, sorted",
			MIMEType:    "application/json",
		},
		s.makeTagsHandler(),
	)
}

// makeTagsHandler creates the read handler for the tags resource.
func (s *Server) makeTagsHandler() mcp.ResourceHandler {
	return func(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return s.readTags(ctx)
	}
}

func (s *Server) readTags(ctx context.Context) (*mcp.ReadResourceResult, error) {
	tags, err := s.searcher.ListTags(ctx)
	if err != nil {
		return nil, MapError(err)
	}
	if tags == nil {
		tags = []string{}
	}

	content, err := json.MarshalIndent(ListTagsOutput{Tags: tags}, "", "  ")
	if err != nil {
		return nil, MapError(err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      TagsURI,
				MIMEType: "application/json",
				Text:     string(content),
			},
		},
	}, nil
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	switch uri {
	case TagsURI:
		return s.readTags(ctx)
	default:
		return nil, NewResourceNotFoundError(uri)
	}
}
