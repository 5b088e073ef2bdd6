package group

import "fmt"

// Descriptor is a tagged-union configuration value identifying a concrete
// Group and its construction parameters. It is what GlobalParams stores and
// what a byte-tree-encoded or info-file-parsed group description decodes
// into; no dynamic class loading is involved, only a lookup in Registry.
type Descriptor struct {
	// Algorithm is a stable identifier such as "modp" or "bn254-g1".
	Algorithm string
	// Params are algorithm-specific construction parameters, e.g. the
	// hex-encoded (p, q, g) triple for "modp".
	Params map[string]string
}

// Constructor builds a Group from a Descriptor's Params.
type Constructor func(params map[string]string) (Group, error)

// Registry maps stable algorithm identifiers to Group constructors. It
// replaces runtime reflection / dynamic loading of group implementations
// with an explicit, closed lookup table populated at init time by each
// group/* subpackage.
type Registry struct {
	constructors map[string]Constructor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// Register associates algorithm with a Constructor. It panics on duplicate
// registration, since that indicates two group packages claiming the same
// stable identifier.
func (r *Registry) Register(algorithm string, ctor Constructor) {
	if _, exists := r.constructors[algorithm]; exists {
		panic(fmt.Sprintf("group: duplicate registration for algorithm %q", algorithm))
	}
	r.constructors[algorithm] = ctor
}

// Build instantiates the Group described by d.
func (r *Registry) Build(d Descriptor) (Group, error) {
	ctor, ok := r.constructors[d.Algorithm]
	if !ok {
		return nil, fmt.Errorf("group: unknown algorithm %q", d.Algorithm)
	}
	g, err := ctor(d.Params)
	if err != nil {
		return nil, fmt.Errorf("group: building %q: %w", d.Algorithm, err)
	}
	return g, nil
}

// Default is the process-wide registry that group/modp and group/bn254
// register themselves into via their package init functions.
var Default = NewRegistry()
