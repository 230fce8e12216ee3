// Package openapi builds an OpenAPI 3.0 document from the operations the
// domain handlers declare and serves it alongside a Swagger UI page.
package openapi

import (
	"encoding/json"
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// Param describes a query parameter. Path parameters are derived from the
// route itself.
type Param struct {
	Name        string
	Description string
	Type        string
	Enum        []string
	Required    bool
}

// Operation describes one route.
type Operation struct {
	Method      string
	Path        string // echo syntax, e.g. /patient/:id
	Summary     string
	OperationID string
	Tag         string
	Query       []Param
	RequestBody string // component schema name, if the route takes a body
	Response    string // component schema name of the success body
	Responses   map[int]string
}

// Generator accumulates operations and component schemas.
type Generator struct {
	title   string
	version string
	ops     []Operation
	schemas map[string]interface{}
}

// NewGenerator creates a new OpenAPI document generator.
func NewGenerator(title, version string) *Generator {
	return &Generator{title: title, version: version, schemas: make(map[string]interface{})}
}

func (g *Generator) AddOperations(ops ...Operation) {
	g.ops = append(g.ops, ops...)
}

// AddSchema registers the JSON shape of model under name.
func (g *Generator) AddSchema(name string, model interface{}) {
	g.schemas[name] = SchemaFor(model)
}

// GenerateSpec produces the OpenAPI 3.0 document as a map.
func (g *Generator) GenerateSpec() map[string]interface{} {
	paths := make(map[string]map[string]interface{})
	for _, op := range g.ops {
		path, pathParams := convertPath(op.Path)
		if paths[path] == nil {
			paths[path] = make(map[string]interface{})
		}

		params := make([]map[string]interface{}, 0, len(pathParams)+len(op.Query))
		for _, name := range pathParams {
			params = append(params, map[string]interface{}{
				"name":     name,
				"in":       "path",
				"required": true,
				"schema":   map[string]string{"type": "string"},
			})
		}
		for _, q := range op.Query {
			schema := map[string]interface{}{"type": q.Type}
			if len(q.Enum) > 0 {
				schema["enum"] = q.Enum
			}
			params = append(params, map[string]interface{}{
				"name":        q.Name,
				"in":          "query",
				"required":    q.Required,
				"description": q.Description,
				"schema":      schema,
			})
		}

		entry := map[string]interface{}{
			"summary":     op.Summary,
			"operationId": op.OperationID,
			"tags":        []string{op.Tag},
			"responses":   g.buildResponses(op),
		}
		if len(params) > 0 {
			entry["parameters"] = params
		}
		if op.RequestBody != "" {
			entry["requestBody"] = map[string]interface{}{
				"required": true,
				"content":  jsonContent("#/components/schemas/" + op.RequestBody),
			}
		}
		paths[path][strings.ToLower(op.Method)] = entry
	}

	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":   g.title,
			"version": g.version,
		},
		"paths": paths,
		"components": map[string]interface{}{
			"schemas": g.schemas,
		},
	}
}

func (g *Generator) buildResponses(op Operation) map[string]interface{} {
	out := make(map[string]interface{}, len(op.Responses))
	codes := make([]int, 0, len(op.Responses))
	for code := range op.Responses {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	for i, code := range codes {
		resp := map[string]interface{}{"description": op.Responses[code]}
		// The first (lowest) status is the success response.
		if i == 0 && op.Response != "" {
			resp["content"] = jsonContent("#/components/schemas/" + op.Response)
		}
		out[strconv.Itoa(code)] = resp
	}
	return out
}

func jsonContent(ref string) map[string]interface{} {
	return map[string]interface{}{
		"application/json": map[string]interface{}{
			"schema": map[string]interface{}{"$ref": ref},
		},
	}
}

// convertPath rewrites /patient/:id as /patient/{id} and returns the
// parameter names in order.
func convertPath(path string) (string, []string) {
	segments := strings.Split(path, "/")
	var params []string
	for i, s := range segments {
		if strings.HasPrefix(s, ":") {
			params = append(params, s[1:])
			segments[i] = "{" + s[1:] + "}"
		}
	}
	return strings.Join(segments, "/"), params
}

var marshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()

// SchemaFor describes model's JSON encoding. Field names come from json
// tags, embedded structs are flattened and validate tags become
// constraints. Structs with a custom encoding and a Value field are
// described by that field, as nullable.
func SchemaFor(model interface{}) map[string]interface{} {
	return typeSchema(reflect.TypeOf(model))
}

func typeSchema(t reflect.Type) map[string]interface{} {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return map[string]interface{}{"type": "string"}
	case reflect.Bool:
		return map[string]interface{}{"type": "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]interface{}{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]interface{}{"type": "number"}
	case reflect.Slice, reflect.Array:
		return map[string]interface{}{"type": "array", "items": typeSchema(t.Elem())}
	case reflect.Map:
		return map[string]interface{}{"type": "object", "additionalProperties": typeSchema(t.Elem())}
	case reflect.Struct:
		if wrapped, ok := t.FieldByName("Value"); ok && implementsMarshaler(t) {
			s := typeSchema(wrapped.Type)
			s["nullable"] = true
			return s
		}
		props := make(map[string]interface{})
		var required []string
		collectFields(t, props, &required)
		s := map[string]interface{}{"type": "object", "properties": props}
		if len(required) > 0 {
			sort.Strings(required)
			s["required"] = required
		}
		return s
	}
	return map[string]interface{}{}
}

func implementsMarshaler(t reflect.Type) bool {
	return t.Implements(marshalerType) || reflect.PointerTo(t).Implements(marshalerType)
}

func collectFields(t reflect.Type, props map[string]interface{}, required *[]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct && f.Tag.Get("json") == "" {
			collectFields(f.Type, props, required)
			continue
		}
		if !f.IsExported() {
			continue
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}

		s := typeSchema(f.Type)
		if applyRules(s, f.Tag.Get("validate")) {
			*required = append(*required, name)
		}
		props[name] = s
	}
}

// applyRules copies validate constraints onto s and reports whether the
// field is required.
func applyRules(s map[string]interface{}, tag string) bool {
	if tag == "" {
		return false
	}
	required := true
	for _, rule := range strings.Split(tag, ",") {
		key, param, _ := strings.Cut(rule, "=")
		switch key {
		case "omitempty":
			required = false
		case "gt":
			s["minimum"] = number(param)
			s["exclusiveMinimum"] = true
		case "gte":
			s["minimum"] = number(param)
		case "lt":
			s["maximum"] = number(param)
			s["exclusiveMaximum"] = true
		case "lte":
			s["maximum"] = number(param)
		case "max":
			if s["type"] == "array" {
				s["maxItems"] = number(param)
			} else {
				s["maxLength"] = number(param)
			}
		case "oneof":
			s["enum"] = strings.Fields(param)
		case "email":
			s["format"] = "email"
		case "url":
			s["format"] = "uri"
		}
	}
	return required
}

func number(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// RegisterRoutes registers the OpenAPI endpoints.
func (g *Generator) RegisterRoutes(group *echo.Group) {
	group.GET("/openapi.json", func(c echo.Context) error {
		return c.JSON(http.StatusOK, g.GenerateSpec())
	})
	group.GET("/docs", func(c echo.Context) error {
		// The UI is served from unpkg and bootstraps with an inline script.
		c.Response().Header().Set("Content-Security-Policy", docsCSP)
		return c.HTML(http.StatusOK, strings.Replace(swaggerUIHTML, "{{title}}", g.title, 1))
	})
}

const docsCSP = "default-src 'self'; script-src 'self' 'unsafe-inline' https://unpkg.com; " +
	"style-src 'self' 'unsafe-inline' https://unpkg.com; img-src 'self' data:"

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{title}} - Swagger UI</title>
  <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" >
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: "/openapi.json",
      dom_id: '#swagger-ui',
      deepLinking: true,
      presets: [SwaggerUIBundle.presets.apis],
      layout: "BaseLayout"
    })
  </script>
</body>
</html>`
