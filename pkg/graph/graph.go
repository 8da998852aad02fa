// Package graph models the workspace dependency graph and answers the one
// planning question that matters: given a set of packages being released,
// which other packages must be released with them, and in what order.
package graph

import "fmt"

// Package is one node of the workspace graph.
type Package struct {
	Name    string
	Version string
	// Path is the package root relative to the repository root.
	Path string
	// Dependencies names other workspace packages this one depends on.
	// Names not present in the graph are external and ignored.
	Dependencies []string
}

// Graph is a directed dependency graph over workspace packages. Iteration
// order throughout is the order packages were added, so results are
// deterministic for a given roster.
type Graph struct {
	order    []string
	packages map[string]*Package
}

// New builds a graph from the given packages. Duplicate names are an error.
func New(packages []*Package) (*Graph, error) {
	g := &Graph{packages: make(map[string]*Package, len(packages))}
	for _, pkg := range packages {
		if _, dup := g.packages[pkg.Name]; dup {
			return nil, fmt.Errorf("duplicate package %q", pkg.Name)
		}
		g.packages[pkg.Name] = pkg
		g.order = append(g.order, pkg.Name)
	}
	return g, nil
}

// Package returns the named package, or nil.
func (g *Graph) Package(name string) *Package {
	return g.packages[name]
}

// Packages returns all packages in insertion order.
func (g *Graph) Packages() []*Package {
	out := make([]*Package, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.packages[name])
	}
	return out
}

// dependents inverts the edges: for each package, which packages depend on it.
func (g *Graph) dependents() map[string][]string {
	rev := make(map[string][]string, len(g.order))
	for _, name := range g.order {
		for _, dep := range g.packages[name].Dependencies {
			if _, known := g.packages[dep]; !known {
				continue
			}
			rev[dep] = append(rev[dep], name)
		}
	}
	return rev
}

// Closure expands seeds to every package that transitively depends on one of
// them and returns the expanded set in topological order: a package always
// appears after the workspace packages it depends on. Ties break toward
// insertion order. Unknown seed names are an error, dependency cycles too.
func (g *Graph) Closure(seeds []string) ([]*Package, error) {
	inScope := make(map[string]bool)
	queue := make([]string, 0, len(seeds))
	for _, name := range seeds {
		if _, known := g.packages[name]; !known {
			return nil, fmt.Errorf("unknown package %q", name)
		}
		if !inScope[name] {
			inScope[name] = true
			queue = append(queue, name)
		}
	}

	rev := g.dependents()
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, dependent := range rev[name] {
			if !inScope[dependent] {
				inScope[dependent] = true
				queue = append(queue, dependent)
			}
		}
	}

	return g.sort(inScope)
}

// sort runs Kahn's algorithm over the in-scope subgraph, always picking the
// ready package that was inserted earliest.
func (g *Graph) sort(inScope map[string]bool) ([]*Package, error) {
	remaining := make(map[string]int, len(inScope))
	for name := range inScope {
		count := 0
		for _, dep := range g.packages[name].Dependencies {
			if inScope[dep] {
				count++
			}
		}
		remaining[name] = count
	}

	out := make([]*Package, 0, len(inScope))
	done := make(map[string]bool, len(inScope))
	for len(out) < len(inScope) {
		picked := ""
		for _, name := range g.order {
			if inScope[name] && !done[name] && remaining[name] == 0 {
				picked = name
				break
			}
		}
		if picked == "" {
			return nil, fmt.Errorf("dependency cycle among %d remaining packages", len(inScope)-len(out))
		}
		done[picked] = true
		out = append(out, g.packages[picked])
		for name := range inScope {
			if done[name] {
				continue
			}
			for _, dep := range g.packages[name].Dependencies {
				if dep == picked {
					remaining[name]--
				}
			}
		}
	}
	return out, nil
}
