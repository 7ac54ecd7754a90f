package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mychem-mcp/mychem-mcp/internal/client"
)

type apiCall struct {
	method   string
	endpoint string
	params   client.Params
	body     any
}

type stubClient struct {
	calls    []apiCall
	response any
	err      error

	// respond overrides response per call when set.
	respond func(call apiCall) (any, error)
}

func (s *stubClient) Get(_ context.Context, endpoint string, params client.Params) (any, error) {
	call := apiCall{method: "GET", endpoint: endpoint, params: params}
	s.calls = append(s.calls, call)
	if s.respond != nil {
		return s.respond(call)
	}
	return s.response, s.err
}

func (s *stubClient) Post(_ context.Context, endpoint string, body any) (any, error) {
	call := apiCall{method: "POST", endpoint: endpoint, body: body}
	s.calls = append(s.calls, call)
	if s.respond != nil {
		return s.respond(call)
	}
	return s.response, s.err
}

func callTool(t *testing.T, c Client, name string, args map[string]any) map[string]any {
	t.Helper()
	result, err := NewRegistry().Call(context.Background(), c, name, args)
	require.NoError(t, err)
	m, ok := result.(map[string]any)
	require.True(t, ok, "tool %s should return an object", name)
	return m
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, 33, r.Len())

	// Registration order is stable and starts with the query domain.
	all := r.All()
	assert.Equal(t, "search_chemical", all[0].Name)

	for _, tool := range all {
		assert.NotEmpty(t, tool.Description, "tool %s missing description", tool.Name)
		assert.NotEmpty(t, tool.Domain, "tool %s missing domain", tool.Name)
		assert.NotNil(t, tool.Handler, "tool %s missing handler", tool.Name)
		assert.True(t, len(tool.Schema) > 0, "tool %s missing schema", tool.Name)
	}

	_, ok := r.Get("get_chemical_by_id")
	assert.True(t, ok)

	_, err := r.Call(context.Background(), &stubClient{}, "no_such_tool", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestSearchChemical(t *testing.T) {
	stub := &stubClient{response: map[string]any{
		"total": float64(2),
		"took":  float64(3),
		"hits":  []any{map[string]any{"_id": "a"}, map[string]any{"_id": "b"}},
	}}

	result := callTool(t, stub, "search_chemical", map[string]any{"q": "aspirin"})

	require.Len(t, stub.calls, 1)
	call := stub.calls[0]
	assert.Equal(t, "query", call.endpoint)
	assert.Equal(t, "aspirin", call.params["q"])
	assert.Equal(t, defaultChemFields, call.params["fields"])
	assert.Equal(t, 10, call.params["size"])
	assert.NotContains(t, call.params, "from")
	assert.NotContains(t, call.params, "facets")

	assert.Equal(t, true, result["success"])
	assert.Equal(t, float64(2), result["total"])
	assert.Len(t, result["hits"], 2)
}

func TestSearchChemicalMissingQuery(t *testing.T) {
	_, err := NewRegistry().Call(context.Background(), &stubClient{}, "search_chemical", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"q"`)
}

func TestSearchByFieldBuildsQuery(t *testing.T) {
	stub := &stubClient{response: map[string]any{"hits": []any{}}}

	callTool(t, stub, "search_by_field", map[string]any{
		"field_queries": map[string]any{
			"chembl.molecule_chembl_id": "CHEMBL25",
			"drugbank.name":             "acetylsalicylic acid",
		},
		"operator": "OR",
	})

	require.Len(t, stub.calls, 1)
	q := stub.calls[0].params["q"].(string)
	assert.Equal(t, `chembl.molecule_chembl_id:CHEMBL25 OR drugbank.name:"acetylsalicylic acid"`, q)
}

func TestBatchQueryChemicals(t *testing.T) {
	stub := &stubClient{response: []any{
		map[string]any{"query": "CHEMBL25", "found": true, "_id": "BSYNRYMUTXBXSQ-UHFFFAOYSA-N"},
		map[string]any{"query": "BOGUS", "notfound": true},
	}}

	result := callTool(t, stub, "batch_query_chemicals", map[string]any{
		"chemical_ids": []any{"CHEMBL25", "BOGUS"},
	})

	require.Len(t, stub.calls, 1)
	call := stub.calls[0]
	assert.Equal(t, "POST", call.method)
	assert.Equal(t, "query", call.endpoint)
	body := call.body.(map[string]any)
	assert.Equal(t, []string{"CHEMBL25", "BOGUS"}, body["ids"])
	assert.Equal(t, true, body["returnall"])

	assert.Equal(t, 2, result["total"])
	assert.Equal(t, 1, result["found"])
	assert.Equal(t, 1, result["missing"])
	assert.Equal(t, []any{"BOGUS"}, result["missing_ids"])
}

func TestBatchSizeLimit(t *testing.T) {
	ids := make([]any, MaxBatchSize+1)
	for i := range ids {
		ids[i] = "id"
	}

	for _, name := range []string{"batch_query_chemicals", "batch_get_chemicals"} {
		_, err := NewRegistry().Call(context.Background(), &stubClient{}, name, map[string]any{
			"chemical_ids": ids,
		})
		require.Error(t, err, name)
		assert.Contains(t, err.Error(), "1000")
	}
}

func TestSearchDrugFiltersWithdrawn(t *testing.T) {
	stub := &stubClient{response: map[string]any{
		"hits": []any{
			map[string]any{"_id": "a", "drugbank": map[string]any{"groups": []any{"approved"}}},
			map[string]any{"_id": "b", "drugbank": map[string]any{"groups": []any{"approved", "withdrawn"}}},
			map[string]any{"_id": "c"},
		},
	}}

	result := callTool(t, stub, "search_drug", map[string]any{"query": "aspirin"})

	assert.Equal(t, 2, result["total"])
	hits := result["hits"].([]any)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", dig(hits[0], "_id"))
	assert.Equal(t, "c", dig(hits[1], "_id"))
}

func TestSearchDrugIncludeWithdrawn(t *testing.T) {
	stub := &stubClient{response: map[string]any{
		"hits": []any{
			map[string]any{"_id": "b", "drugbank": map[string]any{"groups": []any{"withdrawn"}}},
		},
	}}

	result := callTool(t, stub, "search_drug", map[string]any{
		"query":             "aspirin",
		"include_withdrawn": true,
	})
	assert.Equal(t, 1, result["total"])
}

func TestGetDrugInteractionsNormalizesSingleValue(t *testing.T) {
	// A single interaction arrives as an object, not a one-element list.
	stub := &stubClient{response: map[string]any{
		"drugbank": map[string]any{
			"drug_interactions": map[string]any{
				"name":        "Warfarin",
				"drugbank-id": "DB00682",
				"description": "Increased bleeding risk",
			},
		},
	}}

	result := callTool(t, stub, "get_drug_interactions", map[string]any{"drug_id": "CHEMBL25"})

	assert.Equal(t, 1, result["total_interactions"])
	interactions := result["interactions"].([]map[string]any)
	require.Len(t, interactions, 1)
	assert.Equal(t, "Warfarin", interactions[0]["drug"])
	assert.Equal(t, "drugbank", interactions[0]["source"])
}

func TestGetFieldStatistics(t *testing.T) {
	stub := &stubClient{response: map[string]any{
		"total": float64(200),
		"facets": map[string]any{
			"drugbank.groups": map[string]any{
				"total": float64(5),
				"terms": []any{
					map[string]any{"term": "approved", "count": float64(150)},
					map[string]any{"term": "experimental", "count": float64(50)},
				},
			},
		},
	}}

	result := callTool(t, stub, "get_field_statistics", map[string]any{"field": "drugbank.groups"})

	require.Len(t, stub.calls, 1)
	params := stub.calls[0].params
	assert.Equal(t, "*", params["q"])
	assert.Equal(t, "drugbank.groups", params["facets"])
	assert.Equal(t, 0, params["size"])

	top := result["top_values"].([]map[string]any)
	require.Len(t, top, 2)
	assert.Equal(t, "approved", top[0]["value"])
	assert.Equal(t, 75.0, top[0]["percentage"])
}

func TestMapIdentifiers(t *testing.T) {
	stub := &stubClient{response: []any{
		map[string]any{
			"query": "CHEMBL25",
			"found": true,
			"_id":   "BSYNRYMUTXBXSQ-UHFFFAOYSA-N",
			"pubchem": map[string]any{
				"cid": float64(2244),
			},
		},
		map[string]any{"query": "BOGUS"},
	}}

	result := callTool(t, stub, "map_identifiers", map[string]any{
		"input_ids": []any{"CHEMBL25", "BOGUS"},
		"from_type": "chembl",
		"to_types":  []any{"inchikey", "pubchem"},
	})

	require.Len(t, stub.calls, 1)
	body := stub.calls[0].body.(map[string]any)
	assert.Equal(t, "chembl.molecule_chembl_id", body["scopes"])
	assert.Contains(t, body["fields"], "pubchem.cid")

	assert.Equal(t, 2, result["total_input"])
	assert.Equal(t, 1, result["mapped"])
	assert.Equal(t, 1, result["unmapped"])

	mappings := result["mappings"].([]map[string]any)
	require.Len(t, mappings, 1)
	mapped := mappings[0]["mappings"].(map[string]any)
	assert.Equal(t, "BSYNRYMUTXBXSQ-UHFFFAOYSA-N", mapped["inchikey"])
	assert.Equal(t, float64(2244), mapped["pubchem"])
}

func TestMapIdentifiersUnsupportedType(t *testing.T) {
	_, err := NewRegistry().Call(context.Background(), &stubClient{}, "map_identifiers", map[string]any{
		"input_ids": []any{"x"},
		"from_type": "sdf",
		"to_types":  []any{"inchikey"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported from_type")
}

func TestValidateIdentifiers(t *testing.T) {
	stub := &stubClient{response: []any{
		map[string]any{"query": "DB00945", "found": true, "_id": "KEY1"},
		map[string]any{"query": "DB99999"},
	}}

	result := callTool(t, stub, "validate_identifiers", map[string]any{
		"identifiers":     []any{"DB00945", "DB99999"},
		"identifier_type": "drugbank",
	})

	assert.Equal(t, 1, result["valid_count"])
	assert.Equal(t, 1, result["invalid_count"])
	assert.Equal(t, []any{"DB99999"}, result["invalid_identifiers"])
}

func TestExportChemicalListTSV(t *testing.T) {
	stub := &stubClient{response: []any{
		map[string]any{
			"inchikey": "KEY1",
			"name":     "aspirin",
			"pubchem":  map[string]any{"cid": float64(2244)},
		},
	}}

	result, err := NewRegistry().Call(context.Background(), stub, "export_chemical_list", map[string]any{
		"chemical_ids": []any{"KEY1"},
		"fields":       []any{"inchikey", "name", "pubchem.cid"},
	})
	require.NoError(t, err)

	text, ok := result.(string)
	require.True(t, ok, "export should return a string")
	assert.Equal(t, "inchikey\tname\tpubchem.cid\nKEY1\taspirin\t2244\n", text)
}

func TestExportChemicalListUnsupportedFormat(t *testing.T) {
	stub := &stubClient{response: []any{}}
	_, err := NewRegistry().Call(context.Background(), stub, "export_chemical_list", map[string]any{
		"chemical_ids": []any{"KEY1"},
		"format":       "xlsx",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestGetDatabaseStatistics(t *testing.T) {
	stub := &stubClient{response: map[string]any{
		"build_date":    "2024-01-15",
		"build_version": "20240115",
		"stats":         map[string]any{"total": float64(100000)},
		"src": map[string]any{
			"chembl": map[string]any{
				"version": "33",
				"stats":   map[string]any{"total": float64(50000)},
			},
		},
	}}

	result := callTool(t, stub, "get_database_statistics", nil)

	stats := result["statistics"].(map[string]any)
	assert.Equal(t, float64(100000), stats["total_chemicals"])
	assert.Equal(t, "2024-01-15", stats["last_updated"])
	sources := stats["sources"].(map[string]any)
	chembl := sources["chembl"].(map[string]any)
	assert.Equal(t, "33", chembl["version"])
	assert.Equal(t, float64(50000), chembl["total"])
}

func TestHandlerPropagatesClientError(t *testing.T) {
	apiErr := errors.New("HTTP error 500")
	stub := &stubClient{err: apiErr}

	_, err := NewRegistry().Call(context.Background(), stub, "get_chemical_by_id", map[string]any{
		"chemical_id": "CHEMBL25",
	})
	require.ErrorIs(t, err, apiErr)
}

func TestConvertStructure(t *testing.T) {
	stub := &stubClient{respond: func(call apiCall) (any, error) {
		if call.endpoint == "query" {
			return map[string]any{
				"total": float64(1),
				"hits":  []any{map[string]any{"_id": "KEY1"}},
			}, nil
		}
		return map[string]any{
			"pubchem": map[string]any{"inchi": "InChI=1S/..."},
		}, nil
	}}

	result := callTool(t, stub, "convert_structure", map[string]any{
		"structure":   "CC(=O)OC1=CC=CC=C1C(=O)O",
		"from_format": "smiles",
		"to_format":   "inchi",
	})

	require.Len(t, stub.calls, 2)
	assert.Equal(t, "query", stub.calls[0].endpoint)
	assert.Equal(t, "chem/KEY1", stub.calls[1].endpoint)
	assert.Equal(t, true, result["success"])
	assert.NotNil(t, result["converted_structure"])
}

func TestConvertStructureNotFound(t *testing.T) {
	stub := &stubClient{response: map[string]any{"total": float64(0), "hits": []any{}}}

	result := callTool(t, stub, "convert_structure", map[string]any{
		"structure":   "XXX",
		"from_format": "smiles",
		"to_format":   "inchi",
	})

	assert.Equal(t, false, result["success"])
	assert.Contains(t, result["error"], "not found")
}

func TestGetFDAApprovalPhases(t *testing.T) {
	t.Run("phase 4 approved", func(t *testing.T) {
		stub := &stubClient{response: map[string]any{
			"chembl": map[string]any{"max_phase": float64(4)},
		}}
		result := callTool(t, stub, "get_fda_approval", map[string]any{"chemical_id": "CHEMBL25"})
		fda := result["fda_data"].(map[string]any)
		assert.Equal(t, "Approved", fda["approval_status"])
	})

	t.Run("phase 2 in trials", func(t *testing.T) {
		stub := &stubClient{response: map[string]any{
			"chembl": map[string]any{"max_phase": float64(2)},
		}}
		result := callTool(t, stub, "get_fda_approval", map[string]any{"chemical_id": "CHEMBLX"})
		fda := result["fda_data"].(map[string]any)
		assert.Equal(t, "Phase 2", fda["approval_status"])
	})
}
