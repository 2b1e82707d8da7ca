package blueprint

// DefaultBranch is the output handle used when an edge does not name one.
const DefaultBranch = "main"

// Blueprint is a portable, user-editable workflow description.
type Blueprint struct {
	// OwnerID identifies the user or tenant the blueprint belongs to
	OwnerID string `json:"owner_id" yaml:"owner_id"`
	// Version identifies this revision of the blueprint
	Version string `json:"version" yaml:"version"`
	// Name is the human readable workflow name
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Description describes what the workflow does
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Nodes contains all nodes in authoring order
	Nodes []Node `json:"nodes" yaml:"nodes"`
	// Edges contains all connections in authoring order
	Edges []Edge `json:"edges" yaml:"edges"`
}

// Node is a single step of a blueprint.
type Node struct {
	// ID is assigned by the caller and must be unique within the blueprint
	ID string `json:"id" yaml:"id"`
	// Type is a node-type registry key
	Type string `json:"type" yaml:"type"`
	// Name is an optional display name
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Config holds free-form parameters. Dotted keys address nested parameters.
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
	// Position is an advisory canvas position
	Position *Position `json:"position,omitempty" yaml:"position,omitempty"`
}

// Edge connects an output branch of one node to another node.
type Edge struct {
	ID     string `json:"id,omitempty" yaml:"id,omitempty"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	// SourceHandle selects the output branch, e.g. "true"/"false". Empty means "main".
	SourceHandle string `json:"source_handle,omitempty" yaml:"source_handle,omitempty"`
	// Condition is a free-form label shown on the canvas
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`
}

// Position represents node position in the visual canvas.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Branch returns the output branch the edge originates from.
func (e Edge) Branch() string {
	if e.SourceHandle == "" {
		return DefaultBranch
	}
	return e.SourceHandle
}

// DisplayName returns the node name, falling back to its id.
func (n Node) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

// NodeIDs returns node ids in blueprint order. Duplicates are kept.
func (b *Blueprint) NodeIDs() []string {
	if b == nil {
		return nil
	}
	ids := make([]string, 0, len(b.Nodes))
	for _, n := range b.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

// FindNode returns the first node with the given id.
func (b *Blueprint) FindNode(id string) (*Node, bool) {
	if b == nil {
		return nil, false
	}
	for i := range b.Nodes {
		if b.Nodes[i].ID == id {
			return &b.Nodes[i], true
		}
	}
	return nil, false
}
