package nodetype

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/botflow/internal/maputil"
)

//go:embed catalog.yaml
var builtinCatalog []byte

// Catalog is the on-disk layout of a node type library.
type Catalog struct {
	Version   string       `yaml:"version"`
	NodeTypes []Definition `yaml:"node_types"`
}

// LoadCatalog decodes a YAML catalog into definitions.
func LoadCatalog(data []byte) ([]Definition, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse node type catalog: %w", err)
	}
	for i := range cat.NodeTypes {
		normalizeDefinition(&cat.NodeTypes[i])
	}
	return cat.NodeTypes, nil
}

// LoadCatalogFile reads and decodes a catalog file.
func LoadCatalogFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return LoadCatalog(data)
}

// Builtin returns a registry populated with the embedded chat-bot node library.
func Builtin() (*Registry, error) {
	defs, err := LoadCatalog(builtinCatalog)
	if err != nil {
		return nil, err
	}
	return NewRegistry(defs...)
}

// MustBuiltin is like Builtin but panics on error.
func MustBuiltin() *Registry {
	reg, err := Builtin()
	if err != nil {
		panic(err)
	}
	return reg
}

// NewRegistryFromFile builds a registry from a catalog file, or the embedded
// catalog when path is empty.
func NewRegistryFromFile(path string) (*Registry, error) {
	if path == "" {
		return Builtin()
	}
	defs, err := LoadCatalogFile(path)
	if err != nil {
		return nil, err
	}
	return NewRegistry(defs...)
}

func normalizeDefinition(def *Definition) {
	for i := range def.Inputs {
		def.Inputs[i].Default = maputil.Normalize(def.Inputs[i].Default)
		for j := range def.Inputs[i].Enum {
			def.Inputs[i].Enum[j] = maputil.Normalize(def.Inputs[i].Enum[j])
		}
	}
	for k, v := range def.Template.Parameters {
		def.Template.Parameters[k] = maputil.Normalize(v)
	}
	for k, v := range def.Template.Credentials {
		def.Template.Credentials[k] = maputil.Normalize(v)
	}
}
