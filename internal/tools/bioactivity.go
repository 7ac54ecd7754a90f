package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mychem-mcp/mychem-mcp/internal/client"
)

func registerBioactivityTools(r *Registry) {
	r.Register(Tool{
		Name:        "get_bioassay_data",
		Domain:      "bioactivity",
		Description: "Get bioactivity and assay results for a chemical",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"chemical_id": {"type": "string", "description": "Chemical identifier"},
				"activity_type": {"type": "string", "description": "Filter by activity type (e.g., IC50, EC50, Ki)"},
				"target_type": {"type": "string", "description": "Filter by target type (e.g., SINGLE PROTEIN, PROTEIN COMPLEX)"},
				"min_potency": {"type": "number", "description": "Maximum activity value (more potent compounds)"}
			},
			"required": ["chemical_id"]
		}`),
		Handler: getBioassayData,
	})

	r.Register(Tool{
		Name:        "search_active_compounds",
		Domain:      "bioactivity",
		Description: "Search for compounds active against a specific target",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"target_name": {"type": "string", "description": "Target protein name"},
				"activity_type": {"type": "string", "description": "Activity measurement type", "default": "IC50", "enum": ["IC50", "EC50", "Ki", "Kd", "pIC50", "pEC50"]},
				"max_value": {"type": "number", "description": "Maximum activity value (threshold)", "default": 1000},
				"units": {"type": "string", "description": "Units for activity value", "default": "nM", "enum": ["nM", "uM", "M"]},
				"size": {"type": "integer", "description": "Number of results", "default": 10}
			},
			"required": ["target_name"]
		}`),
		Handler: searchActiveCompounds,
	})

	r.Register(Tool{
		Name:        "compare_compound_activities",
		Domain:      "bioactivity",
		Description: "Compare bioactivities across multiple compounds",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"chemical_ids": {"type": "array", "items": {"type": "string"}, "description": "List of chemical identifiers to compare"},
				"target_name": {"type": "string", "description": "Filter by specific target name"},
				"activity_types": {"type": "array", "items": {"type": "string"}, "description": "Activity types to include", "default": ["IC50", "EC50", "Ki", "Kd"]}
			},
			"required": ["chemical_ids"]
		}`),
		Handler: compareCompoundActivities,
	})
}

type bioassayArgs struct {
	ChemicalID   string   `mapstructure:"chemical_id"`
	ActivityType string   `mapstructure:"activity_type"`
	TargetType   string   `mapstructure:"target_type"`
	MinPotency   *float64 `mapstructure:"min_potency"`
}

func getBioassayData(ctx context.Context, c Client, args map[string]any) (any, error) {
	var in bioassayArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.ChemicalID == "" {
		return nil, errMissing("chemical_id")
	}

	result, err := c.Get(ctx, "chem/"+in.ChemicalID, client.Params{
		"fields": "chembl.activities,pubchem.bioassays,drugbank.experimental_properties",
	})
	if err != nil {
		return nil, err
	}

	activities := make([]map[string]any, 0)
	totalAssays := 0
	activeAssays := 0
	targetTypes := map[string]int{}
	activityTypes := map[string]int{}

	for _, raw := range asList(dig(result, "chembl", "activities")) {
		activity, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if in.ActivityType != "" && asString(activity["standard_type"]) != in.ActivityType {
			continue
		}
		if in.TargetType != "" && asString(activity["target_type"]) != in.TargetType {
			continue
		}
		if in.MinPotency != nil {
			value, err := strconv.ParseFloat(fmt.Sprint(activity["standard_value"]), 64)
			if err != nil || value > *in.MinPotency {
				continue
			}
		}

		activities = append(activities, map[string]any{
			"source":           "chembl",
			"assay_id":         activity["assay_chembl_id"],
			"target_name":      activity["target_pref_name"],
			"target_type":      activity["target_type"],
			"activity_type":    activity["standard_type"],
			"value":            activity["standard_value"],
			"units":            activity["standard_units"],
			"relation":         activity["standard_relation"],
			"activity_comment": activity["activity_comment"],
		})

		totalAssays++
		if asString(activity["standard_relation"]) == "=" {
			activeAssays++
		}
		tt := asString(activity["target_type"])
		if tt == "" {
			tt = "Unknown"
		}
		targetTypes[tt]++
		at := asString(activity["standard_type"])
		if at == "" {
			at = "Unknown"
		}
		activityTypes[at]++
	}

	for _, raw := range asList(dig(result, "pubchem", "bioassays")) {
		assay, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		activities = append(activities, map[string]any{
			"source":           "pubchem",
			"assay_id":         fmt.Sprintf("AID%v", assay["aid"]),
			"assay_name":       assay["name"],
			"activity_outcome": assay["activity_outcome"],
			"assay_type":       assay["assay_type"],
		})
		totalAssays++
		if asString(assay["activity_outcome"]) == "Active" {
			activeAssays++
		}
	}

	return map[string]any{
		"success": true,
		"bioassay_data": map[string]any{
			"chemical_id": in.ChemicalID,
			"activities":  activities,
			"assay_summary": map[string]any{
				"total_assays":   totalAssays,
				"active_assays":  activeAssays,
				"target_types":   targetTypes,
				"activity_types": activityTypes,
			},
		},
	}, nil
}

type activeCompoundsArgs struct {
	TargetName   string  `mapstructure:"target_name"`
	ActivityType string  `mapstructure:"activity_type"`
	MaxValue     float64 `mapstructure:"max_value"`
	Units        string  `mapstructure:"units"`
	Size         int     `mapstructure:"size"`
}

func searchActiveCompounds(ctx context.Context, c Client, args map[string]any) (any, error) {
	in := activeCompoundsArgs{ActivityType: "IC50", MaxValue: 1000, Units: "nM", Size: 10}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.TargetName == "" {
		return nil, errMissing("target_name")
	}

	q := fmt.Sprintf(
		"chembl.activities.target_pref_name:%q AND chembl.activities.standard_type:%s AND chembl.activities.standard_units:%s AND chembl.activities.standard_value:[* TO %g]",
		in.TargetName, in.ActivityType, in.Units, in.MaxValue,
	)

	result, err := c.Get(ctx, "query", client.Params{
		"q":      q,
		"fields": "inchikey,chembl,drugbank.name,chembl.activities",
		"size":   in.Size,
	})
	if err != nil {
		return nil, err
	}

	activeCompounds := make([]map[string]any, 0)
	for _, raw := range asList(dig(result, "hits")) {
		hit, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		relevant := make([]map[string]any, 0)
		for _, actRaw := range asList(dig(hit, "chembl", "activities")) {
			activity, ok := actRaw.(map[string]any)
			if !ok {
				continue
			}
			if asString(activity["target_pref_name"]) != in.TargetName ||
				asString(activity["standard_type"]) != in.ActivityType ||
				asString(activity["standard_units"]) != in.Units {
				continue
			}
			value, err := strconv.ParseFloat(fmt.Sprint(activity["standard_value"]), 64)
			if err != nil || value > in.MaxValue {
				continue
			}
			relevant = append(relevant, map[string]any{
				"value":    value,
				"units":    in.Units,
				"assay_id": activity["assay_chembl_id"],
			})
		}

		if len(relevant) == 0 {
			continue
		}
		activeCompounds = append(activeCompounds, map[string]any{
			"inchikey":            hit["_id"],
			"chembl_id":           dig(hit, "chembl", "molecule_chembl_id"),
			"name":                dig(hit, "drugbank", "name"),
			"relevant_activities": relevant,
		})
	}

	return map[string]any{
		"success": true,
		"query": map[string]any{
			"target":        in.TargetName,
			"activity_type": in.ActivityType,
			"threshold":     fmt.Sprintf("%g %s", in.MaxValue, in.Units),
		},
		"total_found":      len(activeCompounds),
		"active_compounds": activeCompounds,
	}, nil
}

type compareActivitiesArgs struct {
	ChemicalIDs   []string `mapstructure:"chemical_ids"`
	TargetName    string   `mapstructure:"target_name"`
	ActivityTypes []string `mapstructure:"activity_types"`
}

func compareCompoundActivities(ctx context.Context, c Client, args map[string]any) (any, error) {
	var in compareActivitiesArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if len(in.ChemicalIDs) == 0 {
		return nil, errMissing("chemical_ids")
	}
	if len(in.ActivityTypes) == 0 {
		in.ActivityTypes = []string{"IC50", "EC50", "Ki", "Kd"}
	}
	wantedTypes := map[string]bool{}
	for _, t := range in.ActivityTypes {
		wantedTypes[t] = true
	}

	compounds := make([]map[string]any, 0, len(in.ChemicalIDs))
	targetSummary := map[string]map[string]any{}
	targetActivityTypes := map[string]map[string]bool{}

	for _, chemID := range in.ChemicalIDs {
		result, err := c.Get(ctx, "chem/"+chemID, client.Params{
			"fields": "chembl.activities,drugbank.name,chembl.pref_name",
		})
		if err != nil {
			return nil, err
		}

		name := dig(result, "drugbank", "name")
		if name == nil {
			name = dig(result, "chembl", "pref_name")
		}

		byTarget := map[string]map[string]any{}
		for _, raw := range asList(dig(result, "chembl", "activities")) {
			activity, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			target := asString(activity["target_pref_name"])
			if in.TargetName != "" && target != in.TargetName {
				continue
			}
			actType := asString(activity["standard_type"])
			if !wantedTypes[actType] {
				continue
			}
			if target == "" {
				target = "Unknown"
			}

			if byTarget[target] == nil {
				byTarget[target] = map[string]any{}
			}
			if actType != "" && activity["standard_value"] != nil {
				byTarget[target][actType] = map[string]any{
					"value":    activity["standard_value"],
					"units":    activity["standard_units"],
					"assay_id": activity["assay_chembl_id"],
				}
			}

			if targetSummary[target] == nil {
				targetSummary[target] = map[string]any{"compounds_tested": 0}
				targetActivityTypes[target] = map[string]bool{}
			}
			targetActivityTypes[target][actType] = true
		}

		compounds = append(compounds, map[string]any{
			"chemical_id":          chemID,
			"name":                 name,
			"activities_by_target": byTarget,
		})
	}

	for target, summary := range targetSummary {
		count := 0
		for _, compound := range compounds {
			byTarget, _ := compound["activities_by_target"].(map[string]map[string]any)
			if _, ok := byTarget[target]; ok {
				count++
			}
		}
		summary["compounds_tested"] = count
		summary["activity_types"] = sortedKeys(targetActivityTypes[target])
	}

	return map[string]any{
		"success": true,
		"comparison": map[string]any{
			"compounds":       compounds,
			"activity_matrix": map[string]any{},
			"target_summary":  targetSummary,
		},
	}, nil
}
