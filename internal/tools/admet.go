package tools

import (
	"context"
	"encoding/json"

	"github.com/mychem-mcp/mychem-mcp/internal/client"
)

func registerADMETTools(r *Registry) {
	r.Register(Tool{
		Name:        "get_admet_properties",
		Domain:      "admet",
		Description: "Get ADMET (Absorption, Distribution, Metabolism, Excretion, Toxicity) properties",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"chemical_id": {"type": "string", "description": "Chemical identifier"}
			},
			"required": ["chemical_id"]
		}`),
		Handler: getADMETProperties,
	})

	r.Register(Tool{
		Name:        "predict_toxicity",
		Domain:      "admet",
		Description: "Get toxicity predictions and hazard classifications",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"chemical_id": {"type": "string", "description": "Chemical identifier"}
			},
			"required": ["chemical_id"]
		}`),
		Handler: predictToxicity,
	})
}

type chemicalIDArgs struct {
	ChemicalID string `mapstructure:"chemical_id"`
}

func getADMETProperties(ctx context.Context, c Client, args map[string]any) (any, error) {
	var in chemicalIDArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.ChemicalID == "" {
		return nil, errMissing("chemical_id")
	}

	result, err := c.Get(ctx, "chem/"+in.ChemicalID, client.Params{
		"fields": "chembl.absorption,chembl.distribution,chembl.metabolism,chembl.excretion,chembl.toxicity," +
			"drugbank.absorption,drugbank.metabolism,drugbank.toxicity," +
			"pubchem.molecular_weight,pubchem.logp,pubchem.tpsa",
	})
	if err != nil {
		return nil, err
	}

	absorption := map[string]any{}
	distribution := map[string]any{}
	metabolism := map[string]any{}
	excretion := map[string]any{}
	toxicity := map[string]any{}
	physicochemical := map[string]any{}

	if chembl := getMap(result, "chembl"); chembl != nil {
		copyIfPresent(chembl, "absorption", absorption, "chembl")
		copyIfPresent(chembl, "distribution", distribution, "chembl")
		copyIfPresent(chembl, "metabolism", metabolism, "chembl")
		copyIfPresent(chembl, "excretion", excretion, "chembl")
		copyIfPresent(chembl, "toxicity", toxicity, "chembl")
	}
	if drugbank := getMap(result, "drugbank"); drugbank != nil {
		copyIfPresent(drugbank, "absorption", absorption, "drugbank")
		copyIfPresent(drugbank, "metabolism", metabolism, "drugbank")
		copyIfPresent(drugbank, "toxicity", toxicity, "drugbank")
	}
	if pubchem := getMap(result, "pubchem"); pubchem != nil {
		copyIfPresent(pubchem, "molecular_weight", physicochemical, "molecular_weight")
		copyIfPresent(pubchem, "logp", physicochemical, "logp")
		copyIfPresent(pubchem, "tpsa", physicochemical, "tpsa")
	}

	return map[string]any{
		"success": true,
		"admet_properties": map[string]any{
			"chemical_id":     in.ChemicalID,
			"absorption":      absorption,
			"distribution":    distribution,
			"metabolism":      metabolism,
			"excretion":       excretion,
			"toxicity":        toxicity,
			"physicochemical": physicochemical,
		},
	}, nil
}

func predictToxicity(ctx context.Context, c Client, args map[string]any) (any, error) {
	var in chemicalIDArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.ChemicalID == "" {
		return nil, errMissing("chemical_id")
	}

	result, err := c.Get(ctx, "chem/"+in.ChemicalID, client.Params{
		"fields": "chembl.toxicity,drugbank.toxicity,pubchem.ld50,pharmgkb.toxicity,ghs.hazard_statements",
	})
	if err != nil {
		return nil, err
	}

	acute := map[string]any{}
	hazard := map[string]any{}
	toxicityData := map[string]any{
		"chemical_id":           in.ChemicalID,
		"acute_toxicity":        acute,
		"chronic_toxicity":      map[string]any{},
		"hazard_classification": hazard,
	}

	if v := dig(result, "chembl", "toxicity"); v != nil {
		toxicityData["chembl_toxicity"] = v
	}
	if v := dig(result, "drugbank", "toxicity"); v != nil {
		toxicityData["drugbank_toxicity"] = v
	}
	if v := dig(result, "pubchem", "ld50"); v != nil {
		acute["ld50"] = v
	}
	if v := dig(result, "ghs", "hazard_statements"); v != nil {
		hazard["ghs"] = v
	}

	return map[string]any{
		"success":       true,
		"toxicity_data": toxicityData,
	}, nil
}

// copyIfPresent copies src[key] into dst[as] when the key exists.
func copyIfPresent(src map[string]any, key string, dst map[string]any, as string) {
	if v, ok := src[key]; ok {
		dst[as] = v
	}
}
