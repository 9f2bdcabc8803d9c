// Package openapi hand-builds the OpenAPI 3 document for the rankings HTTP
// API. The document is assembled from typed structs so the marshaled output
// is deterministic and reviewable in diffs.
package openapi

import (
	"encoding/json"
	"net/http"
)

// Document is the root OpenAPI object.
type Document struct {
	OpenAPI    string              `json:"openapi"`
	Info       Info                `json:"info"`
	Paths      map[string]PathItem `json:"paths"`
	Components Components          `json:"components"`
}

// Info describes the API.
type Info struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
}

// PathItem holds the operations available on one path.
type PathItem struct {
	Get  *Operation `json:"get,omitempty"`
	Post *Operation `json:"post,omitempty"`
}

// Operation describes one HTTP operation.
type Operation struct {
	Summary     string              `json:"summary"`
	OperationID string              `json:"operationId"`
	Parameters  []Parameter         `json:"parameters,omitempty"`
	RequestBody *RequestBody        `json:"requestBody,omitempty"`
	Responses   map[string]Response `json:"responses"`
}

// Parameter describes a query or path parameter.
type Parameter struct {
	Name        string  `json:"name"`
	In          string  `json:"in"`
	Required    bool    `json:"required,omitempty"`
	Description string  `json:"description,omitempty"`
	Schema      *Schema `json:"schema,omitempty"`
}

// RequestBody describes an operation's request payload.
type RequestBody struct {
	Required bool                 `json:"required,omitempty"`
	Content  map[string]MediaType `json:"content"`
}

// MediaType binds a content type to its schema.
type MediaType struct {
	Schema *Schema `json:"schema,omitempty"`
}

// Response describes one response status.
type Response struct {
	Description string               `json:"description"`
	Content     map[string]MediaType `json:"content,omitempty"`
}

// Components holds the reusable schema definitions.
type Components struct {
	Schemas map[string]*Schema `json:"schemas"`
}

// Schema is a JSON schema node.
type Schema struct {
	Ref                  string             `json:"$ref,omitempty"`
	Type                 string             `json:"type,omitempty"`
	Format               string             `json:"format,omitempty"`
	Description          string             `json:"description,omitempty"`
	Enum                 []string           `json:"enum,omitempty"`
	Items                *Schema            `json:"items,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	Nullable             bool               `json:"nullable,omitempty"`
	AdditionalProperties *Schema            `json:"additionalProperties,omitempty"`
}

const (
	typeArray   = "array"
	typeInteger = "integer"
	typeObject  = "object"
	typeString  = "string"
)

func ref(name string) *Schema { return &Schema{Ref: "#/components/schemas/" + name} }

func str() *Schema { return &Schema{Type: typeString} }

func integer() *Schema { return &Schema{Type: typeInteger} }

func arrayOf(items *Schema) *Schema { return &Schema{Type: typeArray, Items: items} }

func object(props map[string]*Schema, required ...string) *Schema {
	return &Schema{Type: typeObject, Properties: props, Required: required}
}

func jsonResponse(description string, schema *Schema) Response {
	return Response{
		Description: description,
		Content:     map[string]MediaType{"application/json": {Schema: schema}},
	}
}

var errorResponse = jsonResponse("error", ref("Error"))

func sourceParam() Parameter {
	return Parameter{
		Name:     "source",
		In:       "query",
		Required: true,
		Schema:   &Schema{Type: typeString, Enum: []string{"times", "qs", "usnews", "washington"}},
	}
}

func selectionParams() []Parameter {
	return []Parameter{
		{
			Name:        "periods",
			In:          "query",
			Description: "Comma-separated publication years. Defaults to every known period.",
			Schema:      str(),
		},
		{
			Name:        "comparator",
			In:          "query",
			Description: "Comparator institution. Defaults to the built-in pairing.",
			Schema:      str(),
		},
	}
}

// Spec assembles the full API document.
func Spec() Document {
	return Document{
		OpenAPI: "3.1.0",
		Info: Info{
			Title:       "Rankcore Rankings API",
			Description: "Comparative university ranking queries over the four agency tables.",
			Version:     "1.0.0",
		},
		Paths:      buildPaths(),
		Components: Components{Schemas: buildSchemas()},
	}
}

func buildPaths() map[string]PathItem {
	return map[string]PathItem{
		"/api/v1/rankings/sources": {Get: &Operation{
			Summary:     "List sources and their profiles",
			OperationID: "listSources",
			Responses: map[string]Response{
				"200": jsonResponse("sources", object(map[string]*Schema{
					"anchor":  str(),
					"sources": arrayOf(ref("Profile")),
				})),
			},
		}},
		"/api/v1/rankings/common": {Get: &Operation{
			Summary:     "Institutions ranked by every source",
			OperationID: "listCommonInstitutions",
			Parameters: []Parameter{{
				Name:   "region",
				In:     "query",
				Schema: &Schema{Type: typeString, Enum: []string{"all", "in", "out"}},
			}},
			Responses: map[string]Response{
				"200": jsonResponse("common institutions", object(map[string]*Schema{
					"anchor":       str(),
					"region":       str(),
					"institutions": arrayOf(str()),
				})),
				"400": errorResponse,
			},
		}},
		"/api/v1/rankings/extras": {Get: &Operation{
			Summary:     "Institutions only this source ranks",
			OperationID: "listExtras",
			Parameters:  []Parameter{sourceParam()},
			Responses: map[string]Response{
				"200": jsonResponse("extras", object(map[string]*Schema{
					"source": str(),
					"extras": arrayOf(str()),
				})),
				"400": errorResponse,
				"404": errorResponse,
			},
		}},
		"/api/v1/rankings/periods": {Get: &Operation{
			Summary:     "Sorted union of publication years",
			OperationID: "listPeriods",
			Responses: map[string]Response{
				"200": jsonResponse("periods", object(map[string]*Schema{
					"periods": arrayOf(integer()),
				})),
			},
		}},
		"/api/v1/rankings/view": {Get: &Operation{
			Summary:     "Filtered rows for the anchor/comparator pair",
			OperationID: "getView",
			Parameters: append([]Parameter{sourceParam()}, append(selectionParams(), Parameter{
				Name:        "format",
				In:          "query",
				Description: "csv or json. Accept: text/csv also selects CSV.",
				Schema:      &Schema{Type: typeString, Enum: []string{"json", "csv"}},
			})...),
			Responses: map[string]Response{
				"200": {
					Description: "filtered rows",
					Content: map[string]MediaType{
						"application/json": {Schema: object(map[string]*Schema{
							"source":    str(),
							"selection": ref("Selection"),
							"rows":      arrayOf(ref("Record")),
						})},
						"text/csv": {Schema: str()},
					},
				},
				"400": errorResponse,
				"404": errorResponse,
			},
		}},
		"/api/v1/rankings/ranks": {Get: &Operation{
			Summary:     "Rank ranges with midpoints for the pair",
			OperationID: "getRankRanges",
			Parameters:  append([]Parameter{sourceParam()}, selectionParams()...),
			Responses: map[string]Response{
				"200": jsonResponse("rank rows", object(map[string]*Schema{
					"source": str(),
					"rows":   arrayOf(ref("RankRow")),
				})),
				"400": errorResponse,
				"404": errorResponse,
			},
		}},
		"/api/v1/rankings/metric": {Get: &Operation{
			Summary:     "One metric resolved for the pair at the latest period",
			OperationID: "getMetricPair",
			Parameters: append([]Parameter{sourceParam(), {
				Name:     "metric",
				In:       "query",
				Required: true,
				Schema:   str(),
			}}, selectionParams()...),
			Responses: map[string]Response{
				"200": jsonResponse("metric pair", object(map[string]*Schema{
					"pair":               ref("MetricPair"),
					"anchor_display":     str(),
					"comparator_display": str(),
				})),
				"400": errorResponse,
				"404": errorResponse,
			},
		}},
		"/api/v1/rankings/kpis": {Get: &Operation{
			Summary:     "Full KPI catalog resolved for the pair",
			OperationID: "getKPIPanel",
			Parameters:  append([]Parameter{sourceParam()}, selectionParams()...),
			Responses: map[string]Response{
				"200": jsonResponse("kpi report", object(map[string]*Schema{
					"report": ref("KPIReport"),
				})),
				"400": errorResponse,
				"404": errorResponse,
			},
		}},
		"/api/v1/rankings/overview": {Get: &Operation{
			Summary:     "Latest rank pair from every source",
			OperationID: "getOverview",
			Parameters:  selectionParams(),
			Responses: map[string]Response{
				"200": jsonResponse("overview", object(map[string]*Schema{
					"selection": ref("Selection"),
					"entries":   arrayOf(ref("OverviewEntry")),
				})),
				"400": errorResponse,
			},
		}},
		"/api/v1/rankings/trend": {Get: &Operation{
			Summary:     "Chart-ready series for one metric",
			OperationID: "getTrend",
			Parameters: append([]Parameter{sourceParam(), {
				Name:     "metric",
				In:       "query",
				Required: true,
				Schema:   str(),
			}}, selectionParams()...),
			Responses: map[string]Response{
				"200": jsonResponse("trend lines", object(map[string]*Schema{
					"source": str(),
					"metric": str(),
					"lines":  arrayOf(ref("TrendLine")),
				})),
				"400": errorResponse,
				"404": errorResponse,
			},
		}},
		"/api/v1/rankings/peers": {Get: &Operation{
			Summary:     "Peer groups and their members",
			OperationID: "listPeers",
			Parameters: []Parameter{{
				Name:        "group",
				In:          "query",
				Description: "Return a single group's members.",
				Schema:      str(),
			}},
			Responses: map[string]Response{
				"200": jsonResponse("peer groups", object(map[string]*Schema{
					"groups":  arrayOf(ref("PeerGroup")),
					"group":   str(),
					"members": arrayOf(str()),
				})),
				"404": errorResponse,
			},
		}},
		"/api/v1/rankings/stats": {Get: &Operation{
			Summary:     "Snapshot counters for diagnostics",
			OperationID: "getStats",
			Responses: map[string]Response{
				"200": jsonResponse("stats", object(map[string]*Schema{
					"stats": ref("Stats"),
				})),
			},
		}},
		"/api/v1/rankings/refresh": {Post: &Operation{
			Summary:     "Queue a table reload",
			OperationID: "enqueueRefresh",
			RequestBody: &RequestBody{
				Content: map[string]MediaType{"application/json": {Schema: object(map[string]*Schema{
					"requested_by": str(),
					"reason":       str(),
				})}},
			},
			Responses: map[string]Response{
				"202": jsonResponse("queued", object(map[string]*Schema{
					"refresh": ref("RefreshRecord"),
				})),
				"400": errorResponse,
			},
		}},
		"/api/v1/rankings/refresh/{id}": {Get: &Operation{
			Summary:     "Refresh job status",
			OperationID: "getRefresh",
			Parameters: []Parameter{{
				Name:     "id",
				In:       "path",
				Required: true,
				Schema:   str(),
			}},
			Responses: map[string]Response{
				"200": jsonResponse("job", object(map[string]*Schema{
					"refresh": ref("RefreshRecord"),
				})),
				"404": errorResponse,
			},
		}},
	}
}

func buildSchemas() map[string]*Schema {
	value := &Schema{
		Description: "Metric value: a number, a raw text token such as a bucketed rank, or null when absent.",
		Nullable:    true,
	}
	return map[string]*Schema{
		"Error": object(map[string]*Schema{"error": str()}, "error"),
		"Value": value,
		"Record": object(map[string]*Schema{
			"institution": str(),
			"period":      integer(),
			"region":      str(),
			"metrics":     {Type: typeObject, AdditionalProperties: ref("Value")},
		}, "institution", "period"),
		"Selection": object(map[string]*Schema{
			"periods":    arrayOf(integer()),
			"comparator": str(),
		}),
		"MetricSpec": object(map[string]*Schema{
			"key":    str(),
			"column": str(),
			"label":  str(),
		}, "key", "column"),
		"Profile": object(map[string]*Schema{
			"source":           str(),
			"display_name":     str(),
			"table_name":       str(),
			"file_name":        str(),
			"rank_column":      str(),
			"region_column":    str(),
			"in_region_token":  str(),
			"out_region_token": str(),
			"metrics":          arrayOf(ref("MetricSpec")),
		}, "source"),
		"RankRow": object(map[string]*Schema{
			"institution": str(),
			"period":      integer(),
			"raw":         str(),
			"low":         integer(),
			"high":        integer(),
			"mid":         integer(),
		}, "institution", "period", "raw", "low", "high", "mid"),
		"MetricPair": object(map[string]*Schema{
			"source":     str(),
			"key":        str(),
			"label":      str(),
			"column":     str(),
			"period":     {Type: typeInteger, Nullable: true},
			"anchor":     ref("Value"),
			"comparator": ref("Value"),
		}, "source", "key", "column"),
		"KPI": object(map[string]*Schema{
			"key":        str(),
			"label":      str(),
			"column":     str(),
			"anchor":     ref("Value"),
			"comparator": ref("Value"),
		}, "key", "column"),
		"KPIReport": object(map[string]*Schema{
			"source":     str(),
			"period":     {Type: typeInteger, Nullable: true},
			"anchor":     str(),
			"comparator": str(),
			"kpis":       arrayOf(ref("KPI")),
		}, "source", "kpis"),
		"OverviewEntry": object(map[string]*Schema{
			"source":       str(),
			"display_name": str(),
			"period":       {Type: typeInteger, Nullable: true},
			"anchor":       ref("Value"),
			"comparator":   ref("Value"),
		}, "source"),
		"TrendPoint": object(map[string]*Schema{
			"period": integer(),
			"value":  ref("Value"),
		}, "period"),
		"TrendLine": object(map[string]*Schema{
			"institution": str(),
			"points":      arrayOf(ref("TrendPoint")),
		}, "institution"),
		"PeerGroup": object(map[string]*Schema{
			"name":    str(),
			"members": arrayOf(str()),
		}, "name"),
		"Stats": object(map[string]*Schema{
			"version":             {Type: typeInteger, Format: "int64"},
			"fingerprint":         str(),
			"row_counts":          {Type: typeObject, AdditionalProperties: integer()},
			"peer_groups":         integer(),
			"periods":             arrayOf(integer()),
			"common_institutions": integer(),
		}),
		"RefreshRecord": object(map[string]*Schema{
			"id":             str(),
			"status":         {Type: typeString, Enum: []string{"pending", "running", "succeeded", "failed"}},
			"requested_by":   str(),
			"reason":         str(),
			"version_before": {Type: typeInteger, Format: "int64"},
			"version_after":  {Type: typeInteger, Format: "int64"},
			"fingerprint":    str(),
			"error":          str(),
			"created_at":     {Type: typeString, Format: "date-time"},
			"updated_at":     {Type: typeString, Format: "date-time"},
			"completed_at":   {Type: typeString, Format: "date-time", Nullable: true},
		}, "id", "status"),
	}
}

// JSON returns the document marshaled with stable key ordering.
func JSON() ([]byte, error) {
	return json.MarshalIndent(Spec(), "", "  ")
}

// NewHTTPHandler serves the document as JSON for wiring into admin or debug
// endpoints.
func NewHTTPHandler() http.Handler {
	payload, err := JSON()
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if err != nil {
			http.Error(w, "openapi document unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
	})
}
