package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// MaxBatchSize is the upstream limit on ids per POST request.
const MaxBatchSize = 1000

func registerBatchTools(r *Registry) {
	r.Register(Tool{
		Name:        "batch_query_chemicals",
		Domain:      "batch",
		Description: "Query multiple chemicals in a single request (up to 1000)",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"chemical_ids": {"type": "array", "items": {"type": "string"}, "description": "List of chemical IDs to query"},
				"scopes": {"type": "string", "description": "Comma-separated fields to search", "default": "inchikey,chembl.molecule_chembl_id,drugbank.id,pubchem.cid"},
				"fields": {"type": "string", "description": "Comma-separated fields to return", "default": "inchikey,pubchem,chembl,drugbank,name"},
				"dotfield": {"type": "boolean", "description": "Control dotfield notation", "default": true},
				"returnall": {"type": "boolean", "description": "Return all results including no matches", "default": true}
			},
			"required": ["chemical_ids"]
		}`),
		Handler: batchQueryChemicals,
	})

	r.Register(Tool{
		Name:        "batch_get_chemicals",
		Domain:      "batch",
		Description: "Get full annotations for multiple chemicals (up to 1000)",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"chemical_ids": {"type": "array", "items": {"type": "string"}, "description": "List of chemical IDs"},
				"fields": {"type": "string", "description": "Comma-separated fields to return"},
				"dotfield": {"type": "boolean", "description": "Control dotfield notation", "default": true},
				"email": {"type": "string", "description": "Email for large requests"}
			},
			"required": ["chemical_ids"]
		}`),
		Handler: batchGetChemicals,
	})
}

type batchQueryArgs struct {
	ChemicalIDs []string `mapstructure:"chemical_ids"`
	Scopes      string   `mapstructure:"scopes"`
	Fields      string   `mapstructure:"fields"`
	Dotfield    *bool    `mapstructure:"dotfield"`
	ReturnAll   *bool    `mapstructure:"returnall"`
}

func batchQueryChemicals(ctx context.Context, c Client, args map[string]any) (any, error) {
	in := batchQueryArgs{
		Scopes: "inchikey,chembl.molecule_chembl_id,drugbank.id,pubchem.cid",
		Fields: defaultChemFields,
	}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if len(in.ChemicalIDs) == 0 {
		return nil, errMissing("chemical_ids")
	}
	if len(in.ChemicalIDs) > MaxBatchSize {
		return nil, fmt.Errorf("batch size exceeds maximum of %d", MaxBatchSize)
	}

	body := map[string]any{
		"ids":    in.ChemicalIDs,
		"scopes": in.Scopes,
		"fields": in.Fields,
	}
	if in.Dotfield != nil && !*in.Dotfield {
		body["dotfield"] = false
	}
	returnAll := true
	if in.ReturnAll != nil {
		returnAll = *in.ReturnAll
	}
	body["returnall"] = returnAll

	result, err := c.Post(ctx, "query", body)
	if err != nil {
		return nil, err
	}

	results := asList(result)
	found := 0
	missing := make([]any, 0)
	for _, raw := range results {
		entry, _ := raw.(map[string]any)
		if ok, _ := entry["found"].(bool); ok {
			found++
		} else {
			missing = append(missing, valueOr(entry["query"], "Unknown"))
		}
	}

	return map[string]any{
		"success":     true,
		"total":       len(results),
		"found":       found,
		"missing":     len(missing),
		"results":     results,
		"missing_ids": missing,
	}, nil
}

type batchGetArgs struct {
	ChemicalIDs []string `mapstructure:"chemical_ids"`
	Fields      string   `mapstructure:"fields"`
	Dotfield    *bool    `mapstructure:"dotfield"`
	Email       string   `mapstructure:"email"`
}

func batchGetChemicals(ctx context.Context, c Client, args map[string]any) (any, error) {
	var in batchGetArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if len(in.ChemicalIDs) == 0 {
		return nil, errMissing("chemical_ids")
	}
	if len(in.ChemicalIDs) > MaxBatchSize {
		return nil, fmt.Errorf("batch size exceeds maximum of %d", MaxBatchSize)
	}

	body := map[string]any{"ids": in.ChemicalIDs}
	if in.Fields != "" {
		body["fields"] = in.Fields
	}
	if in.Dotfield != nil && !*in.Dotfield {
		body["dotfield"] = false
	}
	if in.Email != "" {
		body["email"] = in.Email
	}

	result, err := c.Post(ctx, "chem", body)
	if err != nil {
		return nil, err
	}

	results := asList(result)
	return map[string]any{
		"success":   true,
		"total":     len(results),
		"chemicals": results,
	}, nil
}
