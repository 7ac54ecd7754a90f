package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/mychem-mcp/mychem-mcp/internal/client"
)

const defaultChemFields = "inchikey,pubchem,chembl,drugbank,name"

func registerQueryTools(r *Registry) {
	r.Register(Tool{
		Name:        "search_chemical",
		Domain:      "query",
		Description: "Search for chemicals using various query types (name, formula, InChI, SMILES, etc.)",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"q": {"type": "string", "description": "Query string (e.g., 'aspirin', 'C9H8O4', 'BSYNRYMUTXBXSQ-UHFFFAOYSA-N')"},
				"fields": {"type": "string", "description": "Comma-separated fields to return", "default": "inchikey,pubchem,chembl,drugbank,name"},
				"size": {"type": "integer", "description": "Number of results to return (max 1000)", "default": 10},
				"from_": {"type": "integer", "description": "Starting result offset for pagination"},
				"sort": {"type": "string", "description": "Sort order for results"},
				"facets": {"type": "string", "description": "Facet fields for aggregation"},
				"facet_size": {"type": "integer", "description": "Number of facet results", "default": 10},
				"fetch_all": {"type": "boolean", "description": "Fetch all results (returns scroll_id)", "default": false},
				"scroll_id": {"type": "string", "description": "Scroll ID for fetching next batch"}
			},
			"required": ["q"]
		}`),
		Handler: searchChemical,
	})

	r.Register(Tool{
		Name:        "search_by_field",
		Domain:      "query",
		Description: "Search chemicals by specific field values with boolean logic",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"field_queries": {"type": "object", "description": "Field-value pairs (e.g., {'chembl.molecule_chembl_id': 'CHEMBL25'})"},
				"operator": {"type": "string", "description": "Boolean operator: AND or OR", "default": "AND", "enum": ["AND", "OR"]},
				"fields": {"type": "string", "description": "Fields to return", "default": "inchikey,pubchem,chembl,drugbank,name"},
				"size": {"type": "integer", "description": "Number of results", "default": 10}
			},
			"required": ["field_queries"]
		}`),
		Handler: searchByField,
	})

	r.Register(Tool{
		Name:        "get_field_statistics",
		Domain:      "query",
		Description: "Get statistics and top values for a specific field",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"field": {"type": "string", "description": "Field to analyze (e.g., 'chembl.molecule_type', 'drugbank.groups')"},
				"size": {"type": "integer", "description": "Number of top values to return", "default": 100}
			},
			"required": ["field"]
		}`),
		Handler: getFieldStatistics,
	})
}

type searchChemicalArgs struct {
	Q         string `mapstructure:"q"`
	Fields    string `mapstructure:"fields"`
	Size      *int   `mapstructure:"size"`
	From      *int   `mapstructure:"from_"`
	Sort      string `mapstructure:"sort"`
	Facets    string `mapstructure:"facets"`
	FacetSize int    `mapstructure:"facet_size"`
	FetchAll  bool   `mapstructure:"fetch_all"`
	ScrollID  string `mapstructure:"scroll_id"`
}

func searchChemical(ctx context.Context, c Client, args map[string]any) (any, error) {
	in := searchChemicalArgs{Fields: defaultChemFields, FacetSize: 10}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.Q == "" {
		return nil, errMissing("q")
	}
	return runSearch(ctx, c, in)
}

func runSearch(ctx context.Context, c Client, in searchChemicalArgs) (any, error) {
	params := client.Params{"q": in.Q}
	if in.Fields != "" {
		params["fields"] = in.Fields
	}
	size := 10
	if in.Size != nil {
		size = *in.Size
	}
	params["size"] = size
	if in.From != nil {
		params["from"] = *in.From
	}
	if in.Sort != "" {
		params["sort"] = in.Sort
	}
	if in.Facets != "" {
		params["facets"] = in.Facets
		params["facet_size"] = in.FacetSize
	}
	if in.FetchAll {
		params["fetch_all"] = "true"
	}
	if in.ScrollID != "" {
		params["scroll_id"] = in.ScrollID
	}

	result, err := c.Get(ctx, "query", params)
	if err != nil {
		return nil, err
	}

	m, _ := result.(map[string]any)
	return map[string]any{
		"success":   true,
		"total":     valueOr(m["total"], 0),
		"took":      valueOr(m["took"], 0),
		"hits":      valueOr(m["hits"], []any{}),
		"scroll_id": m["_scroll_id"],
		"facets":    valueOr(m["facets"], map[string]any{}),
	}, nil
}

type searchByFieldArgs struct {
	FieldQueries map[string]string `mapstructure:"field_queries"`
	Operator     string            `mapstructure:"operator"`
	Fields       string            `mapstructure:"fields"`
	Size         *int              `mapstructure:"size"`
}

func searchByField(ctx context.Context, c Client, args map[string]any) (any, error) {
	in := searchByFieldArgs{Operator: "AND", Fields: defaultChemFields}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if len(in.FieldQueries) == 0 {
		return nil, errMissing("field_queries")
	}

	parts := make([]string, 0, len(in.FieldQueries))
	for _, field := range sortedKeys(in.FieldQueries) {
		value := in.FieldQueries[field]
		if strings.Contains(value, " ") && !(strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`)) {
			value = `"` + value + `"`
		}
		parts = append(parts, field+":"+value)
	}

	return runSearch(ctx, c, searchChemicalArgs{
		Q:      strings.Join(parts, " "+in.Operator+" "),
		Fields: in.Fields,
		Size:   in.Size,
	})
}

type fieldStatisticsArgs struct {
	Field string `mapstructure:"field"`
	Size  int    `mapstructure:"size"`
}

func getFieldStatistics(ctx context.Context, c Client, args map[string]any) (any, error) {
	in := fieldStatisticsArgs{Size: 100}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.Field == "" {
		return nil, errMissing("field")
	}

	result, err := c.Get(ctx, "query", client.Params{
		"q":          "*",
		"facets":     in.Field,
		"facet_size": in.Size,
		"size":       0,
	})
	if err != nil {
		return nil, err
	}

	total := asFloat(dig(result, "total"))
	if total == 0 {
		total = 1
	}

	facetData := getMap(getMap(result, "facets"), in.Field)
	topValues := make([]map[string]any, 0)
	for _, raw := range asList(facetData["terms"]) {
		term, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		count := asFloat(term["count"])
		topValues = append(topValues, map[string]any{
			"value":      term["term"],
			"count":      term["count"],
			"percentage": math.Round(count/total*100*100) / 100,
		})
	}

	return map[string]any{
		"success":             true,
		"field":               in.Field,
		"total_unique_values": valueOr(facetData["total"], 0),
		"top_values":          topValues,
		"total_chemicals":     valueOr(dig(result, "total"), 0),
	}, nil
}

// valueOr substitutes fallback for nil values in reshaped output.
func valueOr(v, fallback any) any {
	if v == nil {
		return fallback
	}
	return v
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	case string:
		var f float64
		_, _ = fmt.Sscanf(n, "%g", &f)
		return f
	default:
		return 0
	}
}
