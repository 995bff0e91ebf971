package contract

import (
	"errors"
	"testing"
)

const petstoreJSON = `{
  "openapi": "3.0.0",
  "paths": {
    "/pets/{petId}": {
      "parameters": [{"name": "petId", "in": "path", "schema": {"type": "string"}}],
      "get": {
        "summary": "Get a pet",
        "parameters": [{"name": "verbose", "in": "query", "required": true, "schema": {"type": "boolean"}}],
        "responses": {"200": {"description": "ok"}}
      },
      "delete": {"responses": {"204": {"description": "gone"}}}
    },
    "/pets": {
      "summary": "not an operation",
      "post": {
        "operationId": "createPet",
        "requestBody": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/Pet"}}}},
        "responses": {"201": {"description": "created"}, "400": {"description": "bad"}}
      },
      "head": {"responses": {"200": {"description": "ok"}}}
    }
  },
  "components": {
    "schemas": {
      "Pet": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "tags": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

const swaggerYAML = `
swagger: "2.0"
paths:
  /orders:
    post:
      summary: Create order
      parameters:
        - name: body
          in: body
          schema:
            $ref: '#/definitions/Order'
      responses:
        200:
          description: ok
definitions:
  Order:
    type: object
    required: [amount]
    properties:
      amount:
        type: number
        minimum: 1
`

func TestParse_JSON(t *testing.T) {
	doc, err := Parse([]byte(petstoreJSON))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if doc.Resolver() == nil {
		t.Fatal("Resolver() should not be nil")
	}
}

func TestParse_YAML(t *testing.T) {
	doc, err := Parse([]byte(swaggerYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	ops := doc.Operations()
	if len(ops) != 1 {
		t.Fatalf("len(Operations()) = %d, want 1", len(ops))
	}
	// YAML integer response keys must still be recognised
	if got := ops[0].ExpectedStatus(); got != 200 {
		t.Errorf("ExpectedStatus() = %d, want 200", got)
	}

	body, err := doc.Resolver().RequestBody(ops[0])
	if err != nil {
		t.Fatalf("RequestBody() error = %v", err)
	}
	if body == nil || body.Kind != KindRef || body.Ref != "#/definitions/Order" {
		t.Fatalf("RequestBody() = %+v, want ref to Order", body)
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", "   "},
		{"bad json", `{"paths": `},
		{"bad yaml", "paths: [unclosed"},
		{"scalar", "42"},
		{"no paths", `{"openapi": "3.0.0"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("Parse() should fail")
			}
			if !errors.Is(err, ErrMalformedDocument) {
				t.Errorf("error %v should match ErrMalformedDocument", err)
			}
			var mde *MalformedDocumentError
			if !errors.As(err, &mde) {
				t.Errorf("error %T should be *MalformedDocumentError", err)
			}
		})
	}
}

func TestOperations_OrderAndFiltering(t *testing.T) {
	doc, err := Parse([]byte(petstoreJSON))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	ops := doc.Operations()
	var keys []string
	for _, op := range ops {
		keys = append(keys, op.Key())
	}

	want := []string{"POST /pets", "GET /pets/{petId}", "DELETE /pets/{petId}"}
	if len(keys) != len(want) {
		t.Fatalf("Operations() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Operations()[%d] = %s, want %s", i, keys[i], want[i])
		}
	}
}

func TestOperation_ExpectedStatus(t *testing.T) {
	doc, _ := Parse([]byte(petstoreJSON))
	ops := doc.Operations()

	want := map[string]int{
		"POST /pets":           201,
		"GET /pets/{petId}":    200,
		"DELETE /pets/{petId}": 204,
	}
	for _, op := range ops {
		if got := op.ExpectedStatus(); got != want[op.Key()] {
			t.Errorf("%s ExpectedStatus() = %d, want %d", op.Key(), got, want[op.Key()])
		}
	}
}

func TestOperation_Title(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{Operation{Method: "GET", Path: "/a", Summary: "Sum", OperationID: "id"}, "Sum"},
		{Operation{Method: "GET", Path: "/a", Description: "Desc"}, "Desc"},
		{Operation{Method: "GET", Path: "/a", OperationID: "getA"}, "getA"},
		{Operation{Method: "GET", Path: "/a"}, "GET /a"},
	}
	for _, tt := range tests {
		if got := tt.op.Title(); got != tt.want {
			t.Errorf("Title() = %s, want %s", got, tt.want)
		}
	}
}

func TestParameters_MergesPathLevel(t *testing.T) {
	doc, _ := Parse([]byte(petstoreJSON))

	var get Operation
	for _, op := range doc.Operations() {
		if op.Key() == "GET /pets/{petId}" {
			get = op
		}
	}

	params, err := doc.Resolver().Parameters(get)
	if err != nil {
		t.Fatalf("Parameters() error = %v", err)
	}
	if len(params) != 2 {
		t.Fatalf("len(Parameters()) = %d, want 2", len(params))
	}
	if params[0].Name != "petId" || params[0].In != "path" || !params[0].Required {
		t.Errorf("params[0] = %+v, want required path petId", params[0])
	}
	if params[1].Name != "verbose" || params[1].In != "query" {
		t.Errorf("params[1] = %+v, want query verbose", params[1])
	}
}

func TestParameters_RefResolution(t *testing.T) {
	doc, err := Parse([]byte(`{
	  "paths": {"/x/{id}": {"get": {"parameters": [{"$ref": "#/parameters/Id"}]}}},
	  "parameters": {"Id": {"name": "id", "in": "path", "type": "integer"}}
	}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	params, err := doc.Resolver().Parameters(doc.Operations()[0])
	if err != nil {
		t.Fatalf("Parameters() error = %v", err)
	}
	if len(params) != 1 || params[0].Name != "id" {
		t.Fatalf("Parameters() = %+v", params)
	}
	if params[0].Schema == nil || params[0].Schema.Kind != KindInteger {
		t.Errorf("Swagger 2 parameter type should become an integer schema")
	}
}

func TestRequestBody_None(t *testing.T) {
	doc, _ := Parse([]byte(petstoreJSON))
	for _, op := range doc.Operations() {
		if op.Method != "GET" {
			continue
		}
		body, err := doc.Resolver().RequestBody(op)
		if err != nil {
			t.Fatalf("RequestBody() error = %v", err)
		}
		if body != nil {
			t.Errorf("GET should have no body, got %+v", body)
		}
	}
}

func TestRequestBody_RefToRequestBodies(t *testing.T) {
	doc, err := Parse([]byte(`{
	  "paths": {"/x": {"post": {"requestBody": {"$ref": "#/components/requestBodies/X"}}}},
	  "components": {"requestBodies": {"X": {"content": {"application/vnd.api+json": {"schema": {"type": "integer"}}}}}}
	}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	body, err := doc.Resolver().RequestBody(doc.Operations()[0])
	if err != nil {
		t.Fatalf("RequestBody() error = %v", err)
	}
	if body == nil || body.Kind != KindInteger {
		t.Errorf("RequestBody() = %+v, want integer schema", body)
	}
}

func TestRequestBody_BrokenRef(t *testing.T) {
	doc, err := Parse([]byte(`{"paths": {"/x": {"post": {"requestBody": {"$ref": "#/components/requestBodies/Missing"}}}}}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	_, err = doc.Resolver().RequestBody(doc.Operations()[0])
	if !errors.Is(err, ErrSchemaResolution) {
		t.Errorf("RequestBody() error = %v, want ErrSchemaResolution", err)
	}
}
