package fixtures

import (
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"
)

// BuildOptions describes a single build of the interpreter binary.
type BuildOptions struct {
	// SourceRoot is the directory the build runs in.
	SourceRoot string
	// OutputDir receives the binary; nothing is written outside of it.
	OutputDir string
	// Package is the entry point, relative to SourceRoot (e.g. cmd/funk).
	Package string
	// BinaryName is the file name of the produced binary.
	BinaryName string
	// Command is a build command template, used by toolchains that shell out.
	Command string
}

// Toolchain is the external capability the harness drives: building the
// interpreter once and running it against fixture inputs.
type Toolchain interface {
	// Name returns the identifier used in configuration (e.g. "go", "command")
	Name() string

	// Build produces the interpreter binary and returns its path
	Build(opts BuildOptions) (string, error)

	// Run executes binary with args, waiting for it to exit
	Run(binary string, args ...string) ExecResult
}

// Registry manages the registration and retrieval of toolchains.
// It provides thread-safe access to registered implementations.
type Registry struct {
	mu         sync.RWMutex
	toolchains map[string]Toolchain
}

// NewRegistry creates a new toolchain registry
func NewRegistry() *Registry {
	return &Registry{
		toolchains: make(map[string]Toolchain),
	}
}

// Register adds a toolchain to the registry
func (r *Registry) Register(toolchain Toolchain) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := toolchain.Name()
	if _, exists := r.toolchains[name]; exists {
		return fmt.Errorf("toolchain '%s' already registered", name)
	}

	r.toolchains[name] = toolchain
	return nil
}

// Get retrieves a toolchain by name
func (r *Registry) Get(name string) (Toolchain, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tc, ok := r.toolchains[name]
	return tc, ok
}

// Resolve is Get with an error naming the registered alternatives.
func (r *Registry) Resolve(name string) (Toolchain, error) {
	if tc, ok := r.Get(name); ok {
		return tc, nil
	}
	return nil, fmt.Errorf("unknown toolchain '%s' (available: %v)", name, r.List())
}

// List returns all registered toolchain names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := lo.Keys(r.toolchains)
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global toolchain registry
var DefaultRegistry = NewRegistry()

// Register adds a toolchain to the default registry
func Register(toolchain Toolchain) error {
	return DefaultRegistry.Register(toolchain)
}

// Get retrieves a toolchain from the default registry
func Get(name string) (Toolchain, bool) {
	return DefaultRegistry.Get(name)
}
