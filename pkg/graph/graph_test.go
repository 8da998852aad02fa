package graph

import "testing"

func pkg(name string, deps ...string) *Package {
	return &Package{Name: name, Version: "1.0.0", Path: "crates/" + name, Dependencies: deps}
}

func names(pkgs []*Package) []string {
	out := make([]string, len(pkgs))
	for i, p := range pkgs {
		out[i] = p.Name
	}
	return out
}

func equalNames(a []string, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New([]*Package{pkg("a"), pkg("a")})
	if err == nil {
		t.Fatal("expected duplicate package error")
	}
}

func TestClosure(t *testing.T) {
	// c depends on b depends on a; d is unrelated.
	g, err := New([]*Package{
		pkg("d"),
		pkg("c", "b"),
		pkg("b", "a"),
		pkg("a"),
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		seeds []string
		want  []string
	}{
		{"leaf pulls in dependents", []string{"a"}, []string{"a", "b", "c"}},
		{"middle of the chain", []string{"b"}, []string{"b", "c"}},
		{"root alone", []string{"c"}, []string{"c"}},
		{"unrelated package", []string{"d"}, []string{"d"}},
		{"duplicate seeds collapse", []string{"a", "a", "b"}, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.Closure(tt.seeds)
			if err != nil {
				t.Fatal(err)
			}
			if !equalNames(names(got), tt.want) {
				t.Errorf("Closure(%v) = %v, want %v", tt.seeds, names(got), tt.want)
			}
		})
	}
}

func TestClosureUnknownSeed(t *testing.T) {
	g, err := New([]*Package{pkg("a")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Closure([]string{"missing"}); err == nil {
		t.Fatal("expected unknown package error")
	}
}

func TestClosureExternalDepsIgnored(t *testing.T) {
	g, err := New([]*Package{pkg("a", "serde"), pkg("b", "a", "tokio")})
	if err != nil {
		t.Fatal(err)
	}
	got, err := g.Closure([]string{"a"})
	if err != nil {
		t.Fatal(err)
	}
	if !equalNames(names(got), []string{"a", "b"}) {
		t.Errorf("Closure(a) = %v, want [a b]", names(got))
	}
}

func TestClosureCycle(t *testing.T) {
	g, err := New([]*Package{pkg("a", "b"), pkg("b", "a")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Closure([]string{"a"}); err == nil {
		t.Fatal("expected cycle error")
	}
}

func TestClosureInsertionOrderTieBreak(t *testing.T) {
	// x and y are independent roots of the in-scope set; the one added
	// first comes first.
	g, err := New([]*Package{pkg("y", "base"), pkg("x", "base"), pkg("base")})
	if err != nil {
		t.Fatal(err)
	}
	got, err := g.Closure([]string{"base"})
	if err != nil {
		t.Fatal(err)
	}
	if !equalNames(names(got), []string{"base", "y", "x"}) {
		t.Errorf("Closure(base) = %v, want [base y x]", names(got))
	}
}
