package tools

import (
	"context"
	"encoding/json"

	"github.com/mychem-mcp/mychem-mcp/internal/client"
)

func registerDrugTools(r *Registry) {
	r.Register(Tool{
		Name:        "search_drug",
		Domain:      "drug",
		Description: "Search for drugs with information from DrugBank, ChEMBL, and other sources",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Drug name or identifier"},
				"fields": {"type": "string", "description": "Fields to return", "default": "drugbank,chembl,pubchem,name,pharmgkb"},
				"include_withdrawn": {"type": "boolean", "description": "Include withdrawn drugs in results", "default": false},
				"size": {"type": "integer", "description": "Number of results", "default": 10}
			},
			"required": ["query"]
		}`),
		Handler: searchDrug,
	})

	r.Register(Tool{
		Name:        "get_drug_interactions",
		Domain:      "drug",
		Description: "Get drug-drug interaction information",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"drug_id": {"type": "string", "description": "Drug identifier (InChIKey, ChEMBL ID, etc.)"}
			},
			"required": ["drug_id"]
		}`),
		Handler: getDrugInteractions,
	})

	r.Register(Tool{
		Name:        "get_drug_targets",
		Domain:      "drug",
		Description: "Get drug target proteins and mechanisms",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"drug_id": {"type": "string", "description": "Drug identifier"}
			},
			"required": ["drug_id"]
		}`),
		Handler: getDrugTargets,
	})
}

type searchDrugArgs struct {
	Query            string `mapstructure:"query"`
	Fields           string `mapstructure:"fields"`
	IncludeWithdrawn bool   `mapstructure:"include_withdrawn"`
	Size             int    `mapstructure:"size"`
}

func searchDrug(ctx context.Context, c Client, args map[string]any) (any, error) {
	in := searchDrugArgs{Fields: "drugbank,chembl,pubchem,name,pharmgkb", Size: 10}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.Query == "" {
		return nil, errMissing("query")
	}

	result, err := c.Get(ctx, "query", client.Params{
		"q":      in.Query,
		"fields": in.Fields,
		"size":   in.Size,
	})
	if err != nil {
		return nil, err
	}

	hits := asList(dig(result, "hits"))
	if !in.IncludeWithdrawn {
		filtered := make([]any, 0, len(hits))
		for _, raw := range hits {
			if drugbank := getMap(raw, "drugbank"); drugbank != nil {
				withdrawn := false
				for _, group := range asList(drugbank["groups"]) {
					if asString(group) == "withdrawn" {
						withdrawn = true
						break
					}
				}
				if withdrawn {
					continue
				}
			}
			filtered = append(filtered, raw)
		}
		hits = filtered
	}

	return map[string]any{
		"success": true,
		"total":   len(hits),
		"hits":    hits,
	}, nil
}

type drugIDArgs struct {
	DrugID string `mapstructure:"drug_id"`
}

func getDrugInteractions(ctx context.Context, c Client, args map[string]any) (any, error) {
	var in drugIDArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.DrugID == "" {
		return nil, errMissing("drug_id")
	}

	result, err := c.Get(ctx, "chem/"+in.DrugID, client.Params{
		"fields": "drugbank.drug_interactions,chembl.drug_mechanisms",
	})
	if err != nil {
		return nil, err
	}

	interactions := make([]map[string]any, 0)
	if drugbank := getMap(result, "drugbank"); drugbank != nil {
		for _, raw := range asList(drugbank["drug_interactions"]) {
			interaction, _ := raw.(map[string]any)
			interactions = append(interactions, map[string]any{
				"drug":        interaction["name"],
				"drug_id":     interaction["drugbank-id"],
				"description": interaction["description"],
				"source":      "drugbank",
			})
		}
	}

	return map[string]any{
		"success":            true,
		"drug_id":            in.DrugID,
		"total_interactions": len(interactions),
		"interactions":       interactions,
	}, nil
}

func getDrugTargets(ctx context.Context, c Client, args map[string]any) (any, error) {
	var in drugIDArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.DrugID == "" {
		return nil, errMissing("drug_id")
	}

	result, err := c.Get(ctx, "chem/"+in.DrugID, client.Params{
		"fields": "drugbank.targets,chembl.target_component,pharmgkb.gene",
	})
	if err != nil {
		return nil, err
	}

	targets := map[string]any{
		"drugbank_targets": []any{},
		"chembl_targets":   []any{},
		"pharmgkb_genes":   []any{},
	}
	if drugbank := getMap(result, "drugbank"); drugbank != nil {
		if raw, ok := drugbank["targets"]; ok {
			targets["drugbank_targets"] = asList(raw)
		}
	}
	if chembl := getMap(result, "chembl"); chembl != nil {
		if raw, ok := chembl["target_component"]; ok {
			targets["chembl_targets"] = asList(raw)
		}
	}
	if pharmgkb := getMap(result, "pharmgkb"); pharmgkb != nil {
		if raw, ok := pharmgkb["gene"]; ok {
			targets["pharmgkb_genes"] = asList(raw)
		}
	}

	return map[string]any{
		"success": true,
		"drug_id": in.DrugID,
		"targets": targets,
	}, nil
}
