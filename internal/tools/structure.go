package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mychem-mcp/mychem-mcp/internal/client"
)

// structureFields maps a structure format to the API fields carrying it.
var structureFields = map[string]string{
	"smiles":   "pubchem.smiles.canonical,chembl.smiles,drugbank.smiles",
	"inchi":    "pubchem.inchi,chembl.inchi,drugbank.inchi",
	"inchikey": "pubchem.inchikey,chembl.inchikey,drugbank.inchikey",
	"mol":      "pubchem.sdf,chembl.molecule_structures",
	"all":      "pubchem.smiles,pubchem.inchi,pubchem.inchikey,chembl.smiles,chembl.inchi,chembl.inchikey,drugbank.smiles,drugbank.inchi,drugbank.inchikey",
}

func registerStructureTools(r *Registry) {
	r.Register(Tool{
		Name:        "get_chemical_structure",
		Domain:      "structure",
		Description: "Get chemical structure representations (SMILES, InChI, InChIKey)",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"chemical_id": {"type": "string", "description": "Chemical identifier"},
				"format": {"type": "string", "enum": ["smiles", "inchi", "inchikey", "mol", "all"], "default": "all", "description": "Structure format to retrieve"}
			},
			"required": ["chemical_id"]
		}`),
		Handler: getChemicalStructure,
	})

	r.Register(Tool{
		Name:        "search_by_structure",
		Domain:      "structure",
		Description: "Search for similar chemicals by structure",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"structure": {"type": "string", "description": "Chemical structure string"},
				"structure_type": {"type": "string", "enum": ["smiles", "inchi", "inchikey"], "default": "smiles", "description": "Type of structure input"},
				"similarity": {"type": "number", "description": "Similarity threshold (0-1)", "default": 0.8},
				"size": {"type": "integer", "description": "Number of results", "default": 10}
			},
			"required": ["structure"]
		}`),
		Handler: searchByStructure,
	})

	r.Register(Tool{
		Name:        "convert_structure",
		Domain:      "structure",
		Description: "Convert between chemical structure formats",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"structure": {"type": "string", "description": "Input structure"},
				"from_format": {"type": "string", "enum": ["smiles", "inchi", "inchikey"], "description": "Input format"},
				"to_format": {"type": "string", "enum": ["smiles", "inchi", "inchikey"], "description": "Output format"}
			},
			"required": ["structure", "from_format", "to_format"]
		}`),
		Handler: convertStructure,
	})
}

type chemicalStructureArgs struct {
	ChemicalID string `mapstructure:"chemical_id"`
	Format     string `mapstructure:"format"`
}

func getChemicalStructure(ctx context.Context, c Client, args map[string]any) (any, error) {
	in := chemicalStructureArgs{Format: "all"}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.ChemicalID == "" {
		return nil, errMissing("chemical_id")
	}

	fields, ok := structureFields[in.Format]
	if !ok {
		fields = structureFields["all"]
	}

	result, err := c.Get(ctx, "chem/"+in.ChemicalID, client.Params{"fields": fields})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"success":     true,
		"chemical_id": in.ChemicalID,
		"structures":  result,
	}, nil
}

type searchByStructureArgs struct {
	Structure     string  `mapstructure:"structure"`
	StructureType string  `mapstructure:"structure_type"`
	Similarity    float64 `mapstructure:"similarity"`
	Size          int     `mapstructure:"size"`
}

func searchByStructure(ctx context.Context, c Client, args map[string]any) (any, error) {
	in := searchByStructureArgs{StructureType: "smiles", Similarity: 0.8, Size: 10}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.Structure == "" {
		return nil, errMissing("structure")
	}
	return runStructureSearch(ctx, c, in)
}

func runStructureSearch(ctx context.Context, c Client, in searchByStructureArgs) (map[string]any, error) {
	var q string
	switch in.StructureType {
	case "inchi":
		q = fmt.Sprintf("pubchem.inchi:%s OR chembl.inchi:%s", in.Structure, in.Structure)
	case "inchikey":
		q = fmt.Sprintf("pubchem.inchikey:%s OR chembl.inchikey:%s", in.Structure, in.Structure)
	case "smiles":
		q = fmt.Sprintf("pubchem.smiles.canonical:%s OR chembl.smiles:%s", in.Structure, in.Structure)
	default:
		q = "pubchem.smiles.canonical:" + in.Structure
	}

	result, err := c.Get(ctx, "query", client.Params{"q": q, "size": in.Size})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"success":         true,
		"query_structure": in.Structure,
		"structure_type":  in.StructureType,
		"total":           valueOr(dig(result, "total"), 0),
		"hits":            valueOr(dig(result, "hits"), []any{}),
	}, nil
}

type convertStructureArgs struct {
	Structure  string `mapstructure:"structure"`
	FromFormat string `mapstructure:"from_format"`
	ToFormat   string `mapstructure:"to_format"`
}

func convertStructure(ctx context.Context, c Client, args map[string]any) (any, error) {
	var in convertStructureArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if in.Structure == "" {
		return nil, errMissing("structure")
	}
	if in.FromFormat == "" {
		return nil, errMissing("from_format")
	}
	if in.ToFormat == "" {
		return nil, errMissing("to_format")
	}

	// Resolve the chemical first, then fetch its structures in the target
	// format.
	search, err := runStructureSearch(ctx, c, searchByStructureArgs{
		Structure:     in.Structure,
		StructureType: in.FromFormat,
		Size:          1,
	})
	if err != nil {
		return nil, err
	}

	hits := asList(search["hits"])
	if asFloat(search["total"]) == 0 || len(hits) == 0 {
		return map[string]any{
			"success": false,
			"error":   "Chemical not found with the provided structure",
		}, nil
	}

	chemicalID := asString(dig(hits[0], "_id"))
	structures, err := getChemicalStructure(ctx, c, map[string]any{
		"chemical_id": chemicalID,
		"format":      in.ToFormat,
	})
	if err != nil {
		return nil, err
	}
	structuresMap, _ := structures.(map[string]any)

	return map[string]any{
		"success":             true,
		"input_structure":     in.Structure,
		"from_format":         in.FromFormat,
		"to_format":           in.ToFormat,
		"converted_structure": structuresMap["structures"],
	}, nil
}
