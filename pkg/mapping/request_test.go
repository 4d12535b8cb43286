package mapping

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequest_StationID(t *testing.T) {
	action := &ActionDescriptor{
		Operation: "getStations",
		Mapping: &Mapping{
			Request: map[string]string{"stationId": "searchQuery[stationID]"},
		},
	}

	p, err := BuildRequest(action, map[string]any{"stationId": "1:87063"})
	require.NoError(t, err)
	require.False(t, p.IsRaw())

	assert.Equal(t, map[string]any{
		"searchQuery": map[string]any{
			"stationID": map[string]any{"$value": "1:87063"},
		},
	}, p.Tree.Wire())

	data, err := json.Marshal(p.Tree)
	require.NoError(t, err)
	assert.JSONEq(t, `{"searchQuery":{"stationID":{"$value":"1:87063"}}}`, string(data))
}

func TestBuildRequest_AttributesAndValues(t *testing.T) {
	action := &ActionDescriptor{
		Mapping: &Mapping{
			Request: map[string]string{
				"version": "searchQuery[@version]",
				"id":      "searchQuery[ns1:stationID]",
				"root":    "@mode",
				"port":    "searchQuery[Port][portNumber]",
			},
		},
	}

	p, err := BuildRequest(action, map[string]any{
		"version": "2",
		"id":      "1:87063",
		"root":    "full",
		"port":    float64(1),
		"extra":   "ignored",
	})
	require.NoError(t, err)

	root := p.Tree
	assert.Equal(t, map[string]string{"mode": "full"}, root.Attrs)
	assert.Empty(t, root.Text)

	q := root.Children["searchQuery"]
	require.NotNil(t, q)
	assert.Equal(t, map[string]string{"version": "2"}, q.Attrs)
	assert.Empty(t, q.Text)
	assert.Equal(t, []string{"Port", "ns1:stationID"}, q.ChildNames())
	assert.Equal(t, "1:87063", q.Children["ns1:stationID"].Text)
	assert.Nil(t, q.Children["ns1:stationID"].Attrs)
	assert.Equal(t, "1", q.Children["Port"].Children["portNumber"].Text)

	assert.Equal(t, []string{"ns1"}, root.Prefixes())
}

func TestBuildRequest_FalsyValues(t *testing.T) {
	action := &ActionDescriptor{
		Mapping: &Mapping{
			Request: map[string]string{
				"empty": "query[empty]",
				"zero":  "query[@zero]",
				"off":   "flag",
				"none":  "query[none]",
			},
		},
	}

	p, err := BuildRequest(action, map[string]any{
		"empty": "",
		"zero":  0,
		"off":   false,
		"none":  nil,
	})
	require.NoError(t, err)

	// Intermediate nodes exist, terminal values do not.
	q := p.Tree.Children["query"]
	require.NotNil(t, q)
	assert.True(t, q.IsEmpty())
	assert.NotContains(t, p.Tree.Children, "flag")
	assert.Equal(t, map[string]any{"query": map[string]any{}}, p.Tree.Wire())
}

func TestBuildRequest_MalformedAndUnsetKeys(t *testing.T) {
	action := &ActionDescriptor{
		Mapping: &Mapping{
			Request: map[string]string{
				"bad":   "a[b",
				"good":  "a[c]",
				"unset": "a[d]",
			},
		},
	}

	p, err := BuildRequest(action, map[string]any{"bad": "x", "good": "y"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a": map[string]any{"c": map[string]any{"$value": "y"}},
	}, p.Tree.Wire())
}

func TestBuildRequest_NoRequestTable(t *testing.T) {
	for name, action := range map[string]*ActionDescriptor{
		"no mapping":    {Operation: "getStations"},
		"response only": {Mapping: &Mapping{Response: map[string]string{"id": "./id"}}},
		"empty table":   {Mapping: &Mapping{Request: map[string]string{}}},
	} {
		t.Run(name, func(t *testing.T) {
			p, err := BuildRequest(action, map[string]any{"a": 1, "b": "two"})
			require.NoError(t, err)
			require.False(t, p.IsRaw())
			assert.True(t, p.Tree.IsEmpty())
		})
	}
}

func TestBuildRequest_TemplateOverridesTable(t *testing.T) {
	action := &ActionDescriptor{
		Mapping: &Mapping{
			Request: map[string]string{"organizationId": "searchQuery[orgID]"},
		},
		BodyPayloadTemplate: `<tns:getStations xmlns:tns="urn:dictionary:com.chargepoint.webservices"><searchQuery><orgID>{{organizationId}}</orgID></searchQuery></tns:getStations>`,
	}

	p, err := BuildRequest(action, map[string]any{"organizationId": "1:ORG07919"})
	require.NoError(t, err)
	require.True(t, p.IsRaw())
	assert.Nil(t, p.Tree)
	assert.Equal(t, `<tns:getStations xmlns:tns="urn:dictionary:com.chargepoint.webservices"><searchQuery><orgID>1:ORG07919</orgID></searchQuery></tns:getStations>`, p.Raw)
}

func TestBuildRequest_TemplateWithDefaults(t *testing.T) {
	action := &ActionDescriptor{
		BodyPayloadTemplate: `<searchQuery><stationModel>{{stationModel}}</stationModel><orgID>{{org}}</orgID></searchQuery>`,
		DefaultParameters:   map[string]any{"stationModel": "EV230PDRACG", "org": "default"},
	}

	p, err := BuildRequest(action, map[string]any{"org": "1:ORG07919"})
	require.NoError(t, err)
	assert.Equal(t, `<searchQuery><stationModel>EV230PDRACG</stationModel><orgID>1:ORG07919</orgID></searchQuery>`, p.Raw)

	// Defaults are not modified by a call.
	assert.Equal(t, "default", action.DefaultParameters["org"])
}

func TestBuildRequest_TemplateWithoutPlaceholders(t *testing.T) {
	action := &ActionDescriptor{BodyPayloadTemplate: "<ping/>"}
	p, err := BuildRequest(action, nil)
	require.NoError(t, err)
	assert.Equal(t, "<ping/>", p.Raw)
}

func TestMergeDefaults(t *testing.T) {
	defaults := map[string]any{
		"model": "EV230PDRACG",
		"query": map[string]any{
			"page":  float64(1),
			"limit": float64(50),
			"sort":  map[string]any{"by": "id", "dir": "asc"},
		},
		"tags": []any{"a", "b", "c"},
	}
	args := map[string]any{
		"query": map[string]any{
			"page": float64(3),
			"sort": map[string]any{"dir": "desc"},
		},
		"tags":  []any{"x"},
		"extra": true,
	}

	got := MergeDefaults(defaults, args)
	assert.Equal(t, map[string]any{
		"model": "EV230PDRACG",
		"query": map[string]any{
			"page":  float64(3),
			"limit": float64(50),
			"sort":  map[string]any{"by": "id", "dir": "desc"},
		},
		"tags":  []any{"x", "b", "c"},
		"extra": true,
	}, got)

	// Inputs are untouched.
	assert.Equal(t, float64(1), defaults["query"].(map[string]any)["page"])
	assert.Equal(t, []any{"a", "b", "c"}, defaults["tags"])
	assert.NotContains(t, args["query"].(map[string]any), "limit")
}

func TestMergeDefaults_ScalarReplacesMap(t *testing.T) {
	got := MergeDefaults(
		map[string]any{"a": map[string]any{"b": 1}},
		map[string]any{"a": "flat"},
	)
	assert.Equal(t, map[string]any{"a": "flat"}, got)

	got = MergeDefaults(nil, map[string]any{"a": 1})
	assert.Equal(t, map[string]any{"a": 1}, got)
}

func TestMergeDefaults_NilKeepsDefault(t *testing.T) {
	got := MergeDefaults(
		map[string]any{"s": "dflt", "q": map[string]any{"page": 1}},
		map[string]any{"s": nil, "q": map[string]any{"page": nil}, "n": nil},
	)
	assert.Equal(t, map[string]any{
		"s": "dflt",
		"q": map[string]any{"page": 1},
		"n": nil,
	}, got)

	action := &ActionDescriptor{
		DefaultParameters: map[string]any{"s": "dflt"},
		Mapping:           &Mapping{Request: map[string]string{"s": "q[s]"}},
	}
	p, err := BuildRequest(action, map[string]any{"s": nil})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"q": map[string]any{"s": map[string]any{"$value": "dflt"}}}, p.Tree.Wire())
}

func TestTruthy(t *testing.T) {
	truthy := []any{"x", "0", "false", true, 1, float64(-1), []any{}, map[string]any{}}
	falsy := []any{nil, "", false, 0, float64(0), int64(0)}

	for _, v := range truthy {
		assert.True(t, Truthy(v), "%#v", v)
	}
	for _, v := range falsy {
		assert.False(t, Truthy(v), "%#v", v)
	}
}
