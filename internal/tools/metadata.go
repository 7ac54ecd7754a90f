package tools

import (
	"context"
	"encoding/json"
)

func registerMetadataTools(r *Registry) {
	r.Register(Tool{
		Name:        "get_mychem_metadata",
		Domain:      "metadata",
		Description: "Get metadata about MyChemInfo API including data sources and statistics",
		Schema:      json.RawMessage(`{"type": "object", "properties": {}}`),
		Handler: func(ctx context.Context, c Client, _ map[string]any) (any, error) {
			result, err := c.Get(ctx, "metadata", nil)
			if err != nil {
				return nil, err
			}
			return map[string]any{"success": true, "metadata": result}, nil
		},
	})

	r.Register(Tool{
		Name:        "get_available_fields",
		Domain:      "metadata",
		Description: "Get a list of all available fields in MyChemInfo",
		Schema:      json.RawMessage(`{"type": "object", "properties": {}}`),
		Handler: func(ctx context.Context, c Client, _ map[string]any) (any, error) {
			result, err := c.Get(ctx, "metadata/fields", nil)
			if err != nil {
				return nil, err
			}
			return map[string]any{"success": true, "fields": result}, nil
		},
	})

	r.Register(Tool{
		Name:        "get_database_statistics",
		Domain:      "metadata",
		Description: "Get statistics about the chemical database",
		Schema:      json.RawMessage(`{"type": "object", "properties": {}}`),
		Handler:     getDatabaseStatistics,
	})
}

func getDatabaseStatistics(ctx context.Context, c Client, _ map[string]any) (any, error) {
	metadata, err := c.Get(ctx, "metadata", nil)
	if err != nil {
		return nil, err
	}

	sources := map[string]any{}
	if src := getMap(metadata, "src"); src != nil {
		for _, name := range sortedKeys(src) {
			info, _ := src[name].(map[string]any)
			sources[name] = map[string]any{
				"version": info["version"],
				"total":   valueOr(dig(info, "stats", "total"), 0),
			}
		}
	}

	stats := map[string]any{
		"total_chemicals": valueOr(dig(metadata, "stats", "total"), 0),
		"last_updated":    dig(metadata, "build_date"),
		"version":         dig(metadata, "build_version"),
		"sources":         sources,
	}

	return map[string]any{"success": true, "statistics": stats}, nil
}
