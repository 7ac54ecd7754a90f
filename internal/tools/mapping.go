package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// identifierScopes maps an identifier type to the API fields it lives in.
var identifierScopes = map[string]string{
	"inchikey": "pubchem.inchikey,chembl.inchikey,drugbank.inchikey",
	"pubchem":  "pubchem.cid",
	"chembl":   "chembl.molecule_chembl_id",
	"drugbank": "drugbank.id",
	"unii":     "unii.unii",
	"cas":      "drugbank.cas_number,pubchem.cas",
	"smiles":   "pubchem.smiles.canonical,chembl.smiles",
	"inchi":    "pubchem.inchi,chembl.inchi",
	"name":     "chembl.pref_name,drugbank.name,pubchem.synonyms",
}

func registerMappingTools(r *Registry) {
	r.Register(Tool{
		Name:        "map_identifiers",
		Domain:      "mapping",
		Description: "Map chemical identifiers from one type to others (InChIKey, PubChem CID, ChEMBL ID, etc.)",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"input_ids": {"type": "array", "items": {"type": "string"}, "description": "List of input identifiers"},
				"from_type": {"type": "string", "enum": ["inchikey", "pubchem", "chembl", "drugbank", "unii", "cas", "smiles", "inchi", "name"], "description": "Type of input identifiers"},
				"to_types": {"type": "array", "items": {"type": "string", "enum": ["inchikey", "pubchem", "chembl", "drugbank", "unii", "cas", "smiles", "inchi", "name"]}, "description": "Types to map to"},
				"missing_ok": {"type": "boolean", "description": "Whether to include unmapped IDs in response", "default": true}
			},
			"required": ["input_ids", "from_type", "to_types"]
		}`),
		Handler: mapIdentifiersHandler,
	})

	r.Register(Tool{
		Name:        "validate_identifiers",
		Domain:      "mapping",
		Description: "Validate a list of chemical identifiers",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"identifiers": {"type": "array", "items": {"type": "string"}, "description": "List of identifiers to validate"},
				"identifier_type": {"type": "string", "enum": ["inchikey", "pubchem", "chembl", "drugbank", "unii", "cas", "smiles", "inchi"], "description": "Type of identifiers"}
			},
			"required": ["identifiers", "identifier_type"]
		}`),
		Handler: validateIdentifiers,
	})

	r.Register(Tool{
		Name:        "find_common_identifiers",
		Domain:      "mapping",
		Description: "Find chemicals common across multiple identifier lists",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"identifier_lists": {"type": "object", "description": "Named lists of identifiers (e.g., {'drugbank_ids': [...], 'chembl_ids': [...]})"}
			},
			"required": ["identifier_lists"]
		}`),
		Handler: findCommonIdentifiers,
	})
}

type mapIdentifiersArgs struct {
	InputIDs []string `mapstructure:"input_ids"`
	FromType string   `mapstructure:"from_type"`
	ToTypes  []string `mapstructure:"to_types"`
}

type mapIdentifiersResult struct {
	Mappings   []map[string]any
	UnmappedID []any
}

func mapIdentifiersHandler(ctx context.Context, c Client, args map[string]any) (any, error) {
	var in mapIdentifiersArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if len(in.InputIDs) == 0 {
		return nil, errMissing("input_ids")
	}
	if in.FromType == "" {
		return nil, errMissing("from_type")
	}
	if len(in.ToTypes) == 0 {
		return nil, errMissing("to_types")
	}

	result, err := mapIdentifiers(ctx, c, in)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"success":      true,
		"total_input":  len(in.InputIDs),
		"mapped":       len(result.Mappings),
		"unmapped":     len(result.UnmappedID),
		"mappings":     result.Mappings,
		"unmapped_ids": result.UnmappedID,
	}, nil
}

func mapIdentifiers(ctx context.Context, c Client, in mapIdentifiersArgs) (*mapIdentifiersResult, error) {
	scope, ok := identifierScopes[in.FromType]
	if !ok {
		return nil, fmt.Errorf("unsupported from_type: %s", in.FromType)
	}

	returnFields := []string{"_id"}
	for _, toType := range in.ToTypes {
		if fields, ok := identifierScopes[toType]; ok {
			returnFields = append(returnFields, fields)
		}
	}

	raw, err := c.Post(ctx, "query", map[string]any{
		"ids":    in.InputIDs,
		"scopes": scope,
		"fields": strings.Join(returnFields, ","),
	})
	if err != nil {
		return nil, err
	}

	out := &mapIdentifiersResult{Mappings: make([]map[string]any, 0), UnmappedID: make([]any, 0)}
	for _, item := range asList(raw) {
		entry, _ := item.(map[string]any)
		if found, _ := entry["found"].(bool); !found {
			out.UnmappedID = append(out.UnmappedID, valueOr(entry["query"], "Unknown"))
			continue
		}

		mapped := map[string]any{}
		for _, toType := range in.ToTypes {
			if value := extractIdentifier(entry, toType); value != nil {
				mapped[toType] = value
			}
		}
		out.Mappings = append(out.Mappings, map[string]any{
			"input":     entry["query"],
			"from_type": in.FromType,
			"mappings":  mapped,
		})
	}
	return out, nil
}

// extractIdentifier pulls a single identifier of the requested type out of a
// query hit, preferring sources in a fixed order.
func extractIdentifier(entry map[string]any, idType string) any {
	switch idType {
	case "inchikey":
		return entry["_id"]
	case "pubchem":
		return dig(entry, "pubchem", "cid")
	case "chembl":
		return dig(entry, "chembl", "molecule_chembl_id")
	case "drugbank":
		return dig(entry, "drugbank", "id")
	case "unii":
		return dig(entry, "unii", "unii")
	case "cas":
		if v := dig(entry, "drugbank", "cas_number"); v != nil {
			return v
		}
		return dig(entry, "pubchem", "cas")
	case "smiles":
		if v := dig(entry, "pubchem", "smiles", "canonical"); v != nil {
			return v
		}
		return dig(entry, "chembl", "smiles")
	case "inchi":
		if v := dig(entry, "pubchem", "inchi"); v != nil {
			return v
		}
		return dig(entry, "chembl", "inchi")
	case "name":
		if v := dig(entry, "chembl", "pref_name"); v != nil {
			return v
		}
		if v := dig(entry, "drugbank", "name"); v != nil {
			return v
		}
		if synonyms, ok := dig(entry, "pubchem", "synonyms").([]any); ok && len(synonyms) > 0 {
			return synonyms[0]
		}
		return nil
	default:
		return nil
	}
}

type validateIdentifiersArgs struct {
	Identifiers    []string `mapstructure:"identifiers"`
	IdentifierType string   `mapstructure:"identifier_type"`
}

func validateIdentifiers(ctx context.Context, c Client, args map[string]any) (any, error) {
	var in validateIdentifiersArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if len(in.Identifiers) == 0 {
		return nil, errMissing("identifiers")
	}
	if in.IdentifierType == "" {
		return nil, errMissing("identifier_type")
	}

	result, err := mapIdentifiers(ctx, c, mapIdentifiersArgs{
		InputIDs: in.Identifiers,
		FromType: in.IdentifierType,
		ToTypes:  []string{"inchikey"},
	})
	if err != nil {
		return nil, err
	}

	valid := make([]map[string]any, 0, len(result.Mappings))
	for _, mapping := range result.Mappings {
		mappings, _ := mapping["mappings"].(map[string]any)
		valid = append(valid, map[string]any{
			"identifier": mapping["input"],
			"inchikey":   mappings["inchikey"],
		})
	}

	return map[string]any{
		"success":             true,
		"identifier_type":     in.IdentifierType,
		"total":               len(in.Identifiers),
		"valid_count":         len(valid),
		"invalid_count":       len(result.UnmappedID),
		"valid_identifiers":   valid,
		"invalid_identifiers": result.UnmappedID,
	}, nil
}

type findCommonArgs struct {
	IdentifierLists map[string][]string `mapstructure:"identifier_lists"`
}

func findCommonIdentifiers(ctx context.Context, c Client, args map[string]any) (any, error) {
	var in findCommonArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if len(in.IdentifierLists) == 0 {
		return nil, errMissing("identifier_lists")
	}

	type occurrence struct {
		name    any
		foundIn []map[string]any
	}
	byInchikey := map[string]*occurrence{}
	listNames := sortedKeys(in.IdentifierLists)

	for _, listName := range listNames {
		fromType, err := inferIdentifierType(listName)
		if err != nil {
			return nil, err
		}

		result, err := mapIdentifiers(ctx, c, mapIdentifiersArgs{
			InputIDs: in.IdentifierLists[listName],
			FromType: fromType,
			ToTypes:  []string{"inchikey", "name"},
		})
		if err != nil {
			return nil, err
		}

		for _, mapping := range result.Mappings {
			mappings, _ := mapping["mappings"].(map[string]any)
			inchikey := asString(mappings["inchikey"])
			if inchikey == "" {
				continue
			}
			occ, ok := byInchikey[inchikey]
			if !ok {
				occ = &occurrence{name: mappings["name"]}
				byInchikey[inchikey] = occ
			}
			occ.foundIn = append(occ.foundIn, map[string]any{
				"list":       listName,
				"identifier": mapping["input"],
			})
		}
	}

	common := make([]map[string]any, 0)
	for _, inchikey := range sortedKeys(byInchikey) {
		occ := byInchikey[inchikey]
		seen := map[string]bool{}
		for _, item := range occ.foundIn {
			seen[asString(item["list"])] = true
		}
		inAll := true
		for _, listName := range listNames {
			if !seen[listName] {
				inAll = false
				break
			}
		}
		if inAll {
			common = append(common, map[string]any{
				"inchikey":    inchikey,
				"name":        occ.name,
				"identifiers": occ.foundIn,
			})
		}
	}

	return map[string]any{
		"success":                true,
		"input_lists":            listNames,
		"total_unique_chemicals": len(byInchikey),
		"common_chemicals_count": len(common),
		"common_chemicals":       common,
	}, nil
}

// inferIdentifierType guesses the identifier type from a list name like
// "drugbank_ids" or "chembl_ids".
func inferIdentifierType(listName string) (string, error) {
	lower := strings.ToLower(listName)
	switch {
	case strings.Contains(lower, "drugbank"):
		return "drugbank", nil
	case strings.Contains(lower, "chembl"):
		return "chembl", nil
	case strings.Contains(lower, "pubchem"), strings.Contains(lower, "cid"):
		return "pubchem", nil
	case strings.Contains(lower, "cas"):
		return "cas", nil
	default:
		return "", fmt.Errorf("cannot determine identifier type from: %s", listName)
	}
}
