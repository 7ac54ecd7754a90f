package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mychem-mcp/mychem-mcp/internal/client"
)

func registerClinicalTools(r *Registry) {
	r.Register(Tool{
		Name:        "get_clinical_trials",
		Domain:      "clinical",
		Description: "Get clinical trials data for a drug",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"chemical_id": {"type": "string", "description": "Chemical/drug identifier"}
			},
			"required": ["chemical_id"]
		}`),
		Handler: getClinicalTrials,
	})

	r.Register(Tool{
		Name:        "get_fda_approval",
		Domain:      "clinical",
		Description: "Get FDA approval status and label information",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"chemical_id": {"type": "string", "description": "Chemical/drug identifier"}
			},
			"required": ["chemical_id"]
		}`),
		Handler: getFDAApproval,
	})
}

func getClinicalTrials(ctx context.Context, c Client, args map[string]any) (any, error) {
	var in chemicalIDArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.ChemicalID == "" {
		return nil, errMissing("chemical_id")
	}

	result, err := c.Get(ctx, "chem/"+in.ChemicalID, client.Params{
		"fields": "drugbank.clinical_trials,chembl.clinical_trials,pharmgkb.clinical_annotations",
	})
	if err != nil {
		return nil, err
	}

	trials := make([]map[string]any, 0)
	appendTrials := func(source string, raw any) {
		for _, item := range asList(raw) {
			trial, ok := item.(map[string]any)
			if !ok {
				continue
			}
			annotated := make(map[string]any, len(trial)+1)
			for k, v := range trial {
				annotated[k] = v
			}
			annotated["source"] = source
			trials = append(trials, annotated)
		}
	}
	if v := dig(result, "drugbank", "clinical_trials"); v != nil {
		appendTrials("drugbank", v)
	}
	if v := dig(result, "chembl", "clinical_trials"); v != nil {
		appendTrials("chembl", v)
	}

	return map[string]any{
		"success":      true,
		"total_trials": len(trials),
		"trials": map[string]any{
			"chemical_id":     in.ChemicalID,
			"clinical_trials": trials,
		},
	}, nil
}

func getFDAApproval(ctx context.Context, c Client, args map[string]any) (any, error) {
	var in chemicalIDArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.ChemicalID == "" {
		return nil, errMissing("chemical_id")
	}

	result, err := c.Get(ctx, "chem/"+in.ChemicalID, client.Params{
		"fields": "drugbank.fda_label,drugbank.fda_approval,pharmgkb.fda_approval,chembl.max_phase",
	})
	if err != nil {
		return nil, err
	}

	status := "Unknown"
	details := map[string]any{}

	if drugbank := getMap(result, "drugbank"); drugbank != nil {
		if v, ok := drugbank["fda_approval"]; ok {
			status = "Approved"
			details["drugbank"] = v
		}
		if v, ok := drugbank["fda_label"]; ok {
			details["fda_label"] = v
		}
	}
	if v := dig(result, "pharmgkb", "fda_approval"); v != nil {
		status = "Approved"
		details["pharmgkb"] = v
	}
	if v := dig(result, "chembl", "max_phase"); v != nil {
		details["max_phase"] = v
		if phase := asFloat(v); phase == 4 {
			status = "Approved"
		} else {
			status = fmt.Sprintf("Phase %g", phase)
		}
	}

	return map[string]any{
		"success": true,
		"fda_data": map[string]any{
			"chemical_id":      in.ChemicalID,
			"approval_status":  status,
			"approval_details": details,
		},
	}, nil
}
