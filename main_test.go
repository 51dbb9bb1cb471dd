package main

import (
	"reflect"
	"testing"

	"github.com/lepinkainen/readingwrapped/cmd"
)

func TestExecuteIsCLIEntrypoint(t *testing.T) {
	if reflect.ValueOf(execute).Pointer() != reflect.ValueOf(cmd.Execute).Pointer() {
		t.Fatalf("expected execute to default to cmd.Execute")
	}
}

func TestMainRunsExecuteOnce(t *testing.T) {
	calls := 0
	orig := execute
	execute = func() { calls++ }
	t.Cleanup(func() { execute = orig })

	main()

	if calls != 1 {
		t.Fatalf("execute called %d times, want 1", calls)
	}
}
