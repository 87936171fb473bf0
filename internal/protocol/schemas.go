package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var clientSchemas = mustCompileSchemas(map[string]string{
	TypeHello:  "hello.schema.json",
	TypeInput:  "input.schema.json",
	TypePickup: "pickup.schema.json",
})

func mustCompileSchemas(files map[string]string) map[string]*jsonschema.Schema {
	c := jsonschema.NewCompiler()
	out := make(map[string]*jsonschema.Schema, len(files))
	for typ, name := range files {
		raw, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			panic(fmt.Sprintf("protocol: read %s: %v", name, err))
		}
		if err := c.AddResource(name, bytes.NewReader(raw)); err != nil {
			panic(fmt.Sprintf("protocol: add %s: %v", name, err))
		}
		s, err := c.Compile(name)
		if err != nil {
			panic(fmt.Sprintf("protocol: compile %s: %v", name, err))
		}
		out[typ] = s
	}
	return out
}

// ValidateClientMessage checks raw against the schema of its message type.
func ValidateClientMessage(msgType string, raw []byte) error {
	s, ok := clientSchemas[msgType]
	if !ok {
		return fmt.Errorf("unknown message type %q", msgType)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return s.Validate(doc)
}
