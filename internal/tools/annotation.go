package tools

import (
	"context"
	"encoding/json"

	"github.com/mychem-mcp/mychem-mcp/internal/client"
)

func registerAnnotationTools(r *Registry) {
	r.Register(Tool{
		Name:        "get_chemical_by_id",
		Domain:      "annotation",
		Description: "Get detailed information about a chemical by ID (InChIKey, ChEMBL ID, etc.)",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"chemical_id": {"type": "string", "description": "Chemical ID (InChIKey like 'BSYNRYMUTXBXSQ-UHFFFAOYSA-N' or ChEMBL like 'CHEMBL25')"},
				"fields": {"type": "string", "description": "Comma-separated fields to return (default: all)"},
				"dotfield": {"type": "boolean", "description": "Control dotfield notation in response", "default": true}
			},
			"required": ["chemical_id"]
		}`),
		Handler: getChemicalByID,
	})
}

type getChemicalByIDArgs struct {
	ChemicalID string `mapstructure:"chemical_id"`
	Fields     string `mapstructure:"fields"`
	Dotfield   *bool  `mapstructure:"dotfield"`
}

func getChemicalByID(ctx context.Context, c Client, args map[string]any) (any, error) {
	var in getChemicalByIDArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.ChemicalID == "" {
		return nil, errMissing("chemical_id")
	}

	params := client.Params{}
	if in.Fields != "" {
		params["fields"] = in.Fields
	}
	if in.Dotfield != nil && !*in.Dotfield {
		params["dotfield"] = "false"
	}

	result, err := c.Get(ctx, "chem/"+in.ChemicalID, params)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"success":  true,
		"chemical": result,
	}, nil
}
