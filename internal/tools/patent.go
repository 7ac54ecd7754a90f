package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mychem-mcp/mychem-mcp/internal/client"
)

func registerPatentTools(r *Registry) {
	r.Register(Tool{
		Name:        "get_patent_data",
		Domain:      "patent",
		Description: "Get patent information for a chemical",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"chemical_id": {"type": "string", "description": "Chemical identifier"}
			},
			"required": ["chemical_id"]
		}`),
		Handler: getPatentData,
	})

	r.Register(Tool{
		Name:        "search_patents_by_chemical",
		Domain:      "patent",
		Description: "Search for chemicals mentioned in patents",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"chemical_name": {"type": "string", "description": "Chemical name to search for"},
				"size": {"type": "integer", "description": "Number of results", "default": 10}
			},
			"required": ["chemical_name"]
		}`),
		Handler: searchPatentsByChemical,
	})
}

func getPatentData(ctx context.Context, c Client, args map[string]any) (any, error) {
	var in chemicalIDArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.ChemicalID == "" {
		return nil, errMissing("chemical_id")
	}

	result, err := c.Get(ctx, "chem/"+in.ChemicalID, client.Params{
		"fields": "pharmgkb.patent,drugbank.patents,chembl.patent",
	})
	if err != nil {
		return nil, err
	}

	patents := make([]map[string]any, 0)
	if v := dig(result, "pharmgkb", "patent"); v != nil {
		for _, patent := range asList(v) {
			patents = append(patents, map[string]any{
				"patent_number": patent,
				"source":        "pharmgkb",
			})
		}
	}
	if v := dig(result, "drugbank", "patents"); v != nil {
		for _, raw := range asList(v) {
			patent, _ := raw.(map[string]any)
			patents = append(patents, map[string]any{
				"patent_number": patent["number"],
				"country":       patent["country"],
				"approved":      patent["approved"],
				"expires":       patent["expires"],
				"source":        "drugbank",
			})
		}
	}

	return map[string]any{
		"success":       true,
		"total_patents": len(patents),
		"patent_data": map[string]any{
			"chemical_id": in.ChemicalID,
			"patents":     patents,
		},
	}, nil
}

type searchPatentsArgs struct {
	ChemicalName string `mapstructure:"chemical_name"`
	Size         int    `mapstructure:"size"`
}

func searchPatentsByChemical(ctx context.Context, c Client, args map[string]any) (any, error) {
	in := searchPatentsArgs{Size: 10}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.ChemicalName == "" {
		return nil, errMissing("chemical_name")
	}

	q := fmt.Sprintf("_exists_:pharmgkb.patent OR _exists_:drugbank.patents OR _exists_:chembl.patent AND name:%q", in.ChemicalName)
	result, err := c.Get(ctx, "query", client.Params{
		"q":      q,
		"fields": "inchikey,name,pharmgkb.patent,drugbank.patents,chembl.patent",
		"size":   in.Size,
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"success": true,
		"query":   in.ChemicalName,
		"total":   valueOr(dig(result, "total"), 0),
		"hits":    valueOr(dig(result, "hits"), []any{}),
	}, nil
}
