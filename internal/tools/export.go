package tools

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
)

func registerExportTools(r *Registry) {
	r.Register(Tool{
		Name:        "export_chemical_list",
		Domain:      "export",
		Description: "Export chemical data in various formats (TSV, CSV, JSON, SDF)",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"chemical_ids": {"type": "array", "items": {"type": "string"}, "description": "List of chemical IDs to export"},
				"format": {"type": "string", "description": "Export format", "default": "tsv", "enum": ["tsv", "csv", "json", "sdf"]},
				"fields": {"type": "array", "items": {"type": "string"}, "description": "Fields to include in export"}
			},
			"required": ["chemical_ids"]
		}`),
		Handler: exportChemicalList,
	})
}

type exportArgs struct {
	ChemicalIDs []string `mapstructure:"chemical_ids"`
	Format      string   `mapstructure:"format"`
	Fields      []string `mapstructure:"fields"`
}

func exportChemicalList(ctx context.Context, c Client, args map[string]any) (any, error) {
	in := exportArgs{Format: "tsv"}
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	if len(in.ChemicalIDs) == 0 {
		return nil, errMissing("chemical_ids")
	}
	if len(in.Fields) == 0 {
		in.Fields = []string{"inchikey", "name", "pubchem.cid", "chembl.molecule_chembl_id", "drugbank.id", "molecular_formula"}
	}

	raw, err := c.Post(ctx, "chem", map[string]any{
		"ids":    in.ChemicalIDs,
		"fields": strings.Join(in.Fields, ","),
	})
	if err != nil {
		return nil, err
	}
	results := asList(raw)

	switch in.Format {
	case "json":
		encoded, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode export: %w", err)
		}
		return string(encoded), nil

	case "tsv", "csv":
		return renderDelimited(results, in.Fields, in.Format)

	case "sdf":
		return renderSDF(results), nil

	default:
		return nil, fmt.Errorf("unsupported format: %s", in.Format)
	}
}

// renderDelimited flattens dotted fields and renders a CSV or TSV table.
func renderDelimited(results []any, fields []string, format string) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if format == "tsv" {
		w.Comma = '\t'
	}

	if err := w.Write(fields); err != nil {
		return "", fmt.Errorf("failed to render export: %w", err)
	}
	for _, raw := range results {
		row := make([]string, len(fields))
		for i, field := range fields {
			value := dig(raw, strings.Split(field, ".")...)
			if value != nil {
				row[i] = fmt.Sprint(value)
			}
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to render export: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to render export: %w", err)
	}
	return sb.String(), nil
}

func renderSDF(results []any) string {
	lines := make([]string, 0, len(results)*7)
	for _, raw := range results {
		lines = append(lines,
			"> <INCHIKEY>",
			asString(dig(raw, "inchikey")),
			"",
			"> <NAME>",
			asString(dig(raw, "name")),
			"",
			"$$$$",
		)
	}
	return strings.Join(lines, "\n")
}
