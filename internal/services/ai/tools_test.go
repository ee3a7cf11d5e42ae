package ai

import (
	"testing"
)

func TestToolNames(t *testing.T) {
	t.Parallel()

	want := []string{
		"createListWithTasks",
		"createTodosInList",
		"renameList",
		"updateTodo",
		"deleteTodo",
		"deleteList",
	}

	got := ToolNames()
	if len(got) != len(want) {
		t.Fatalf("expected %d tool names, got %d", len(want), len(got))
	}
	for i, name := range want {
		if got[i] != name {
			t.Errorf("position %d: expected %s, got %s", i, name, got[i])
		}
	}
}

func TestToolSchema_CoversEveryName(t *testing.T) {
	t.Parallel()

	schema := toolSchema()
	if len(schema) != len(ToolNames()) {
		t.Fatalf("expected %d schema entries, got %d", len(ToolNames()), len(schema))
	}

	seen := make(map[string]bool)
	for _, tool := range schema {
		if tool.OfFunction == nil {
			t.Fatal("expected function tool entry")
		}
		seen[tool.OfFunction.Function.Name] = true
	}
	for _, name := range ToolNames() {
		if !seen[name] {
			t.Errorf("schema missing tool %s", name)
		}
	}
}
