package depgraph

import (
	"errors"
	"reflect"
	"testing"
)

func TestOrderLinear(t *testing.T) {
	nodes := []Node{
		{Name: "web", DependsOn: []string{"db"}},
		{Name: "db"},
		{Name: "cache", DependsOn: []string{"db"}},
	}
	order, err := Order(nodes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pos := map[string]int{}
	for i, n := range order {
		pos[n] = i
	}
	if pos["db"] > pos["web"] || pos["db"] > pos["cache"] {
		t.Fatalf("db must precede its dependents, got %v", order)
	}
}

func TestOrderDeterministicDeclarationTieBreak(t *testing.T) {
	nodes := []Node{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	order, err := Order(nodes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("want %v got %v", want, order)
	}
}

func TestOrderCycleReturnsFullPath(t *testing.T) {
	nodes := []Node{
		{Name: "a", DependsOn: []string{"b"}},
		{Name: "b", DependsOn: []string{"c"}},
		{Name: "c", DependsOn: []string{"a"}},
	}
	_, err := Order(nodes)
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected CycleError, got %v", err)
	}
	if len(cycleErr.Path) < 3 {
		t.Fatalf("expected full cycle path, got %v", cycleErr.Path)
	}
}

func TestOrderUnknownDependency(t *testing.T) {
	nodes := []Node{{Name: "a", DependsOn: []string{"ghost"}}}
	_, err := Order(nodes)
	var missing *UnknownDependencyError
	if !errors.As(err, &missing) {
		t.Fatalf("expected UnknownDependencyError, got %v", err)
	}
	if missing.Missing != "ghost" || missing.Name != "a" {
		t.Fatalf("unexpected error contents: %+v", missing)
	}
}

func TestOrderSelfDependencyIsCycle(t *testing.T) {
	nodes := []Node{{Name: "a", DependsOn: []string{"a"}}}
	_, err := Order(nodes)
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected CycleError for self-dependency, got %v", err)
	}
}
