package csvutil

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/lepinkainen/readingwrapped/internal/testutil"
)

type person struct {
	Name string
	Age  string
	City string
}

func parsePerson(row Row) (person, error) {
	return person{Name: row.Get("name"), Age: row.Get("age"), City: row.Get("city")}, nil
}

func TestProcessFile(t *testing.T) {
	// Create a sandboxed test environment
	env := testutil.NewTestEnv(t)

	// Columns are matched by name, not position
	csvContent := `city,name,age
NYC,Alice,30
LA, Bob ,25
Chicago,Charlie,35
`
	env.WriteFileString("test.csv", csvContent)

	header, people, err := ProcessFile(env.Path("test.csv"), parsePerson, ProcessorOptions{})
	if err != nil {
		t.Fatalf("ProcessFile() error = %v", err)
	}

	if len(header) != 3 || header[0] != "city" {
		t.Errorf("header = %v", header)
	}

	expected := []person{
		{"Alice", "30", "NYC"},
		{"Bob", "25", "LA"},
		{"Charlie", "35", "Chicago"},
	}

	if len(people) != len(expected) {
		t.Fatalf("expected %d people, got %d", len(expected), len(people))
	}
	for i, p := range people {
		if p != expected[i] {
			t.Errorf("people[%d] = %v, want %v", i, p, expected[i])
		}
	}
}

func TestProcess_ShortRecordsAndBOM(t *testing.T) {
	input := "\ufeffname,age,city\nAlice,30\n"

	header, people, err := Process(strings.NewReader(input), parsePerson, ProcessorOptions{})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if header[0] != "name" {
		t.Errorf("header[0] = %q, want BOM stripped", header[0])
	}
	if len(people) != 1 || people[0].City != "" {
		t.Errorf("people = %v, want one record with empty city", people)
	}
}

func TestProcess_SkipInvalid(t *testing.T) {
	input := "name,age\nAlice,30\nBob,x\n"
	parser := func(row Row) (string, error) {
		if row.Get("age") == "x" {
			return "", errors.New("bad age")
		}
		return row.Get("name"), nil
	}

	_, names, err := Process(strings.NewReader(input), parser, ProcessorOptions{SkipInvalid: true})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(names) != 1 || names[0] != "Alice" {
		t.Errorf("names = %v, want [Alice]", names)
	}

	_, _, err = Process(strings.NewReader(input), parser, ProcessorOptions{})
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected line 2 error, got %v", err)
	}
}

func TestHeaderMissing(t *testing.T) {
	header := Header{"Title", "Author", "ISBN"}

	missing := header.Missing("Title", "My Rating", "ISBN", "Date Read")
	if strings.Join(missing, ",") != "My Rating,Date Read" {
		t.Errorf("Missing() = %v", missing)
	}
	if len(header.Missing("Title")) != 0 {
		t.Error("expected no missing columns")
	}
}

func TestProcessFile_EmptyFile(t *testing.T) {
	env := testutil.NewTestEnv(t)

	env.WriteFileString("empty.csv", "")

	_, _, err := ProcessFile(env.Path("empty.csv"), parsePerson, ProcessorOptions{})
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
}

func TestProcessFile_FileNotFound(t *testing.T) {
	_, _, err := ProcessFile("/nonexistent/file.csv", parsePerson, ProcessorOptions{})
	if err == nil {
		t.Error("expected error for nonexistent file, got nil")
	}
}

func TestProcess_MalformedRecordSkipped(t *testing.T) {
	input := "name,age,city\nAlice,30,Oulu\nBo\"b,40,Turku\nCarol,50,Espoo\n"

	_, people, err := Process(strings.NewReader(input), parsePerson, ProcessorOptions{})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(people) != 2 || people[0].Name != "Alice" || people[1].Name != "Carol" {
		t.Errorf("people = %v, want Alice and Carol", people)
	}
}

func TestProcess_ReadErrorStops(t *testing.T) {
	diskGone := errors.New("disk gone")
	r := io.MultiReader(strings.NewReader("name,age,city\n"), iotest.ErrReader(diskGone))

	_, people, err := Process(r, parsePerson, ProcessorOptions{SkipInvalid: true})
	if !errors.Is(err, diskGone) {
		t.Fatalf("Process() error = %v, want %v", err, diskGone)
	}
	if !strings.Contains(err.Error(), "failed to read record 1") {
		t.Errorf("error = %q, want record number", err)
	}
	if people != nil {
		t.Errorf("people = %v, want nil", people)
	}
}
