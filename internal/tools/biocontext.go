package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mychem-mcp/mychem-mcp/internal/client"
)

func registerBiologicalContextTools(r *Registry) {
	r.Register(Tool{
		Name:        "get_pathway_associations",
		Domain:      "biological_context",
		Description: "Get metabolic and signaling pathway associations for a chemical",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"chemical_id": {"type": "string", "description": "Chemical identifier"}
			},
			"required": ["chemical_id"]
		}`),
		Handler: getPathwayAssociations,
	})

	r.Register(Tool{
		Name:        "get_disease_associations",
		Domain:      "biological_context",
		Description: "Get disease associations and therapeutic indications",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"chemical_id": {"type": "string", "description": "Chemical identifier"},
				"include_offlabel": {"type": "boolean", "description": "Include off-label uses", "default": false}
			},
			"required": ["chemical_id"]
		}`),
		Handler: getDiseaseAssociations,
	})

	r.Register(Tool{
		Name:        "search_by_indication",
		Domain:      "biological_context",
		Description: "Search for drugs by therapeutic indication",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"indication": {"type": "string", "description": "Disease or condition to treat"},
				"drug_status": {"type": "string", "description": "Drug approval status filter", "default": "approved", "enum": ["approved", "investigational", "experimental"]},
				"size": {"type": "integer", "description": "Number of results", "default": 20}
			},
			"required": ["indication"]
		}`),
		Handler: searchByIndication,
	})

	r.Register(Tool{
		Name:        "get_mechanism_of_action",
		Domain:      "biological_context",
		Description: "Get detailed mechanism of action information",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"chemical_id": {"type": "string", "description": "Chemical identifier"}
			},
			"required": ["chemical_id"]
		}`),
		Handler: getMechanismOfAction,
	})

	r.Register(Tool{
		Name:        "find_drugs_by_target_class",
		Domain:      "biological_context",
		Description: "Find drugs that act on a specific target class (e.g., 'Kinase', 'GPCR')",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"target_class": {"type": "string", "description": "Target protein class"},
				"include_investigational": {"type": "boolean", "description": "Include investigational drugs", "default": false},
				"size": {"type": "integer", "description": "Number of results", "default": 20}
			},
			"required": ["target_class"]
		}`),
		Handler: findDrugsByTargetClass,
	})
}

func getPathwayAssociations(ctx context.Context, c Client, args map[string]any) (any, error) {
	var in chemicalIDArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.ChemicalID == "" {
		return nil, errMissing("chemical_id")
	}

	result, err := c.Get(ctx, "chem/"+in.ChemicalID, client.Params{
		"fields": "pharmgkb.pathways,drugbank.pathways,chembl.metabolism,drugbank.enzymes,drugbank.transporters,drugbank.carriers",
	})
	if err != nil {
		return nil, err
	}

	pathways := make([]map[string]any, 0)
	for _, raw := range asList(dig(result, "pharmgkb", "pathways")) {
		pathway, _ := raw.(map[string]any)
		pathways = append(pathways, map[string]any{
			"source": "pharmgkb",
			"name":   pathway["name"],
			"id":     pathway["id"],
		})
	}

	pathwayData := map[string]any{
		"chemical_id":  in.ChemicalID,
		"enzymes":      []any{},
		"transporters": []any{},
		"carriers":     []any{},
	}

	if drugbank := getMap(result, "drugbank"); drugbank != nil {
		for _, raw := range asList(drugbank["pathways"]) {
			pathway, _ := raw.(map[string]any)
			pathways = append(pathways, map[string]any{
				"source":   "drugbank",
				"name":     pathway["name"],
				"category": pathway["category"],
			})
		}
		if raw, ok := drugbank["enzymes"]; ok {
			pathwayData["enzymes"] = asList(raw)
		}
		if raw, ok := drugbank["transporters"]; ok {
			pathwayData["transporters"] = asList(raw)
		}
		if raw, ok := drugbank["carriers"]; ok {
			pathwayData["carriers"] = asList(raw)
		}
	}
	pathwayData["pathways"] = pathways

	if metabolism := getMap(getMap(result, "chembl"), "metabolism"); metabolism != nil {
		pathwayData["metabolism"] = metabolism
	}

	return map[string]any{
		"success":              true,
		"pathway_associations": pathwayData,
	}, nil
}

type diseaseAssociationsArgs struct {
	ChemicalID      string `mapstructure:"chemical_id"`
	IncludeOfflabel bool   `mapstructure:"include_offlabel"`
}

func getDiseaseAssociations(ctx context.Context, c Client, args map[string]any) (any, error) {
	var in diseaseAssociationsArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.ChemicalID == "" {
		return nil, errMissing("chemical_id")
	}

	result, err := c.Get(ctx, "chem/"+in.ChemicalID, client.Params{
		"fields": "drugbank.indication,drugbank.pharmacodynamics,chembl.indication_class,pharmgkb.diseases,drugbank.categories",
	})
	if err != nil {
		return nil, err
	}

	approvedIndications := make([]map[string]any, 0)
	diseaseAssociations := make([]map[string]any, 0)
	var therapeuticCategories []any = []any{}
	var pharmacodynamics any

	if drugbank := getMap(result, "drugbank"); drugbank != nil {
		if v, ok := drugbank["indication"]; ok {
			approvedIndications = append(approvedIndications, map[string]any{
				"source":      "drugbank",
				"description": v,
			})
		}
		if v, ok := drugbank["pharmacodynamics"]; ok {
			pharmacodynamics = v
		}
		if v, ok := drugbank["categories"]; ok {
			therapeuticCategories = asList(v)
		}
	}

	for _, indClass := range asList(dig(result, "chembl", "indication_class")) {
		diseaseAssociations = append(diseaseAssociations, map[string]any{
			"source":     "chembl",
			"indication": indClass,
		})
	}
	for _, raw := range asList(dig(result, "pharmgkb", "diseases")) {
		disease, _ := raw.(map[string]any)
		diseaseAssociations = append(diseaseAssociations, map[string]any{
			"source":  "pharmgkb",
			"disease": disease["name"],
			"id":      disease["id"],
		})
	}

	return map[string]any{
		"success": true,
		"disease_associations": map[string]any{
			"chemical_id":            in.ChemicalID,
			"approved_indications":   approvedIndications,
			"disease_associations":   diseaseAssociations,
			"therapeutic_categories": therapeuticCategories,
			"pharmacodynamics":       pharmacodynamics,
		},
	}, nil
}

type searchByIndicationArgs struct {
	Indication string `mapstructure:"indication"`
	DrugStatus string `mapstructure:"drug_status"`
	Size       int    `mapstructure:"size"`
}

func searchByIndication(ctx context.Context, c Client, args map[string]any) (any, error) {
	in := searchByIndicationArgs{DrugStatus: "approved", Size: 20}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.Indication == "" {
		return nil, errMissing("indication")
	}

	queryParts := []string{fmt.Sprintf("drugbank.indication:%q", in.Indication)}
	if in.DrugStatus != "" {
		queryParts = append(queryParts, fmt.Sprintf("drugbank.groups:%q", in.DrugStatus))
	}

	result, err := c.Get(ctx, "query", client.Params{
		"q":      strings.Join(queryParts, " AND "),
		"fields": "inchikey,drugbank.name,drugbank.indication,drugbank.groups,chembl.max_phase",
		"size":   in.Size,
	})
	if err != nil {
		return nil, err
	}

	drugs := make([]map[string]any, 0)
	for _, raw := range asList(dig(result, "hits")) {
		hit, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		drugs = append(drugs, map[string]any{
			"inchikey":   hit["_id"],
			"name":       dig(hit, "drugbank", "name"),
			"indication": dig(hit, "drugbank", "indication"),
			"status":     valueOr(dig(hit, "drugbank", "groups"), []any{}),
			"max_phase":  dig(hit, "chembl", "max_phase"),
		})
	}

	return map[string]any{
		"success":            true,
		"query_indication":   in.Indication,
		"drug_status_filter": in.DrugStatus,
		"total_found":        len(drugs),
		"drugs":              drugs,
	}, nil
}

func getMechanismOfAction(ctx context.Context, c Client, args map[string]any) (any, error) {
	var in chemicalIDArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.ChemicalID == "" {
		return nil, errMissing("chemical_id")
	}

	result, err := c.Get(ctx, "chem/"+in.ChemicalID, client.Params{
		"fields": "drugbank.mechanism_of_action,chembl.drug_mechanisms,drugbank.pharmacodynamics,drugbank.targets",
	})
	if err != nil {
		return nil, err
	}

	mechanisms := make([]map[string]any, 0)
	primaryTargets := make([]map[string]any, 0)

	if drugbank := getMap(result, "drugbank"); drugbank != nil {
		if v, ok := drugbank["mechanism_of_action"]; ok {
			mechanisms = append(mechanisms, map[string]any{
				"source":      "drugbank",
				"description": v,
				"type":        "detailed",
			})
		}
		for _, raw := range asList(drugbank["targets"]) {
			target, ok := raw.(map[string]any)
			if !ok || target["actions"] == nil {
				continue
			}
			primaryTargets = append(primaryTargets, map[string]any{
				"name":      target["name"],
				"gene_name": target["gene_name"],
				"actions":   target["actions"],
				"organism":  target["organism"],
			})
		}
	}

	for _, raw := range asList(dig(result, "chembl", "drug_mechanisms")) {
		mech, _ := raw.(map[string]any)
		mechanisms = append(mechanisms, map[string]any{
			"source":      "chembl",
			"action_type": mech["action_type"],
			"mechanism":   mech["mechanism_of_action"],
			"target":      mech["target_name"],
		})
	}

	return map[string]any{
		"success": true,
		"mechanism_of_action": map[string]any{
			"chemical_id":     in.ChemicalID,
			"mechanisms":      mechanisms,
			"primary_targets": primaryTargets,
		},
	}, nil
}

type drugsByTargetClassArgs struct {
	TargetClass            string `mapstructure:"target_class"`
	IncludeInvestigational bool   `mapstructure:"include_investigational"`
	Size                   int    `mapstructure:"size"`
}

func findDrugsByTargetClass(ctx context.Context, c Client, args map[string]any) (any, error) {
	in := drugsByTargetClassArgs{Size: 20}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.TargetClass == "" {
		return nil, errMissing("target_class")
	}

	queryParts := []string{fmt.Sprintf("chembl.target_class:%q", in.TargetClass)}
	if !in.IncludeInvestigational {
		queryParts = append(queryParts, "chembl.max_phase:4")
	}

	result, err := c.Get(ctx, "query", client.Params{
		"q":      strings.Join(queryParts, " AND "),
		"fields": "inchikey,chembl.pref_name,chembl.target_class,chembl.max_phase,chembl.drug_mechanisms",
		"size":   in.Size,
	})
	if err != nil {
		return nil, err
	}

	drugs := make([]map[string]any, 0)
	for _, raw := range asList(dig(result, "hits")) {
		hit, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		mechanisms := make([]map[string]any, 0)
		for _, mechRaw := range asList(dig(hit, "chembl", "drug_mechanisms")) {
			mech, _ := mechRaw.(map[string]any)
			mechanisms = append(mechanisms, map[string]any{
				"action": mech["action_type"],
				"target": mech["target_name"],
			})
		}

		drugs = append(drugs, map[string]any{
			"inchikey":          hit["_id"],
			"name":              dig(hit, "chembl", "pref_name"),
			"target_classes":    valueOr(dig(hit, "chembl", "target_class"), []any{}),
			"development_phase": dig(hit, "chembl", "max_phase"),
			"mechanisms":        mechanisms,
		})
	}

	return map[string]any{
		"success":                 true,
		"target_class_query":      in.TargetClass,
		"include_investigational": in.IncludeInvestigational,
		"total_found":             len(drugs),
		"drugs":                   drugs,
	}, nil
}
