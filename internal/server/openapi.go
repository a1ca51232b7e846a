package server

import (
	"github.com/morezero/playfab-sdk/pkg/catalog"
	"github.com/morezero/playfab-sdk/pkg/playfab"
)

// openAPI3 types for generating a document from the descriptor table.
type openAPI3Spec struct {
	OpenAPI    string                      `json:"openapi"`
	Info       openAPI3Info                `json:"info"`
	Paths      map[string]openAPI3PathItem `json:"paths"`
	Components openAPI3Components          `json:"components"`
}

type openAPI3Info struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
}

type openAPI3PathItem struct {
	Post *openAPI3Operation `json:"post,omitempty"`
}

type openAPI3Operation struct {
	Summary     string                      `json:"summary"`
	Description string                      `json:"description,omitempty"`
	OperationID string                      `json:"operationId"`
	Tags        []string                    `json:"tags,omitempty"`
	Security    []map[string][]string       `json:"security"`
	RequestBody *openAPI3RequestBody        `json:"requestBody,omitempty"`
	Responses   map[string]openAPI3Response `json:"responses"`
}

type openAPI3RequestBody struct {
	Content map[string]openAPI3MediaType `json:"content"`
}

type openAPI3Response struct {
	Description string                       `json:"description"`
	Content     map[string]openAPI3MediaType `json:"content,omitempty"`
}

type openAPI3MediaType struct {
	Schema map[string]interface{} `json:"schema,omitempty"`
}

type openAPI3Components struct {
	SecuritySchemes map[string]openAPI3SecurityScheme `json:"securitySchemes"`
}

type openAPI3SecurityScheme struct {
	Type string `json:"type"`
	In   string `json:"in"`
	Name string `json:"name"`
}

var (
	successSchema = map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"code":   map[string]interface{}{"type": "integer"},
			"status": map[string]interface{}{"type": "string"},
			"data":   map[string]interface{}{"type": "object"},
		},
		"required": []string{"data"},
	}
	errorSchema = map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"code":         map[string]interface{}{"type": "integer"},
			"status":       map[string]interface{}{"type": "string"},
			"error":        map[string]interface{}{"type": "string"},
			"errorCode":    map[string]interface{}{"type": "integer"},
			"errorMessage": map[string]interface{}{"type": "string"},
			"errorDetails": map[string]interface{}{"type": "object"},
		},
	}
)

// buildOpenAPISpec builds an OpenAPI 3.0 document with one POST per descriptor.
// A non-empty api restricts it to that API family.
func buildOpenAPISpec(rc *catalog.ResolvedCatalog, api string) *openAPI3Spec {
	paths := make(map[string]openAPI3PathItem)
	schemes := make(map[string]openAPI3SecurityScheme)

	for _, d := range rc.List() {
		if api != "" && d.API != api {
			continue
		}
		security := []map[string][]string{}
		if d.Auth.Required() {
			schemes[d.Auth.String()] = openAPI3SecurityScheme{Type: "apiKey", In: "header", Name: d.Auth.HeaderName()}
			security = append(security, map[string][]string{d.Auth.String(): {}})
		}
		paths[d.Path] = openAPI3PathItem{
			Post: &openAPI3Operation{
				Summary:     d.Name,
				Description: d.Description,
				OperationID: d.API + "_" + d.Name,
				Tags:        []string{d.API},
				Security:    security,
				RequestBody: &openAPI3RequestBody{
					Content: map[string]openAPI3MediaType{
						"application/json": {Schema: map[string]interface{}{"type": "object"}},
					},
				},
				Responses: map[string]openAPI3Response{
					"200": {
						Description: "Success",
						Content: map[string]openAPI3MediaType{
							"application/json": {Schema: successSchema},
						},
					},
					"default": {
						Description: "Error",
						Content: map[string]openAPI3MediaType{
							"application/json": {Schema: errorSchema},
						},
					},
				},
			},
		}
	}

	title := rc.Name()
	if api != "" {
		title += " " + api
	}
	return &openAPI3Spec{
		OpenAPI: "3.0.0",
		Info: openAPI3Info{
			Title:       title,
			Description: "Generated from the endpoint descriptor table (" + playfab.SDKHeaderValue() + ")",
			Version:     rc.Version(),
		},
		Paths:      paths,
		Components: openAPI3Components{SecuritySchemes: schemes},
	}
}
