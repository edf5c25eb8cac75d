package paths

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type gameFormat struct {
	Name string
}

type cardDefinition struct {
	Name   string
	Cmc    int
	Format gameFormat
	Colors []string
}

type card struct {
	cardDefinition
	DisplayName string
	Rating      float64
}

type cardView struct {
	Name   func() (string, error)
	Cmc    func() (int, error)
	Format func() (string, error)
}

func registerCardFixtures() {
	Register(cardDefinition{}, map[string]string{
		"Name":   "Name",
		"Cmc":    "Cmc",
		"Format": "Format",
		"Colors": "Colors",
	})
	Register(card{}, map[string]string{
		"Name": "DisplayName",
	})
}

func TestBatchable_IntersectsAndFiltersScalars(t *testing.T) {
	registerCardFixtures()

	got, err := Batchable(reflect.TypeOf(cardDefinition{}), reflect.TypeOf(cardView{}))
	if err != nil {
		t.Fatalf("paths:analyzer_test - Batchable failed: %v", err)
	}

	// Format is declared structured on the wrapper, so it must be excluded
	// even though the capability declares a scalar result for it.
	if len(got) != 2 {
		t.Fatalf("paths:analyzer_test - expected 2 paths, got %d (%v)", len(got), got)
	}
	if got[0].Member != "Cmc" || got[0].Target != "Cmc" {
		t.Errorf("paths:analyzer_test - paths[0] = %+v, want member Cmc -> Cmc", got[0])
	}
	if got[1].Member != "Name" || got[1].Target != "Name" {
		t.Errorf("paths:analyzer_test - paths[1] = %+v, want member Name -> Name", got[1])
	}
	if got[0].DeclaredType != reflect.TypeOf(0) {
		t.Errorf("paths:analyzer_test - Cmc declared type = %v, want int", got[0].DeclaredType)
	}
}

func TestBatchable_DerivedOverridesBase(t *testing.T) {
	registerCardFixtures()

	got, err := Batchable(reflect.TypeOf(card{}), reflect.TypeOf(cardView{}))
	if err != nil {
		t.Fatalf("paths:analyzer_test - Batchable failed: %v", err)
	}

	byMember := map[string]Path{}
	for _, p := range got {
		byMember[p.Member] = p
	}
	name, ok := byMember["Name"]
	if !ok {
		t.Fatal("paths:analyzer_test - expected Name path")
	}
	if name.Target != "DisplayName" {
		t.Errorf("paths:analyzer_test - Name target = %q, want derived %q", name.Target, "DisplayName")
	}
	if cmc, ok := byMember["Cmc"]; !ok || cmc.Target != "Cmc" {
		t.Errorf("paths:analyzer_test - Cmc path = %+v, want inherited Cmc", cmc)
	}
}

type scalarWrapper struct {
	Seen     time.Time
	Age      time.Duration
	ID       uuid.UUID
	Tags     []string
	Flag     bool
	Extra    map[string]string
	Pointer  *int
	Matrix   [][]int
	Fraction float64
}

type scalarCapability struct {
	Seen     func() (time.Time, error)
	Age      func() (time.Duration, error)
	ID       func() (uuid.UUID, error)
	Tags     func() ([]string, error)
	Flag     func() (bool, error)
	Extra    func() (string, error)
	Pointer  func() (int, error)
	Matrix   func() ([]int, error)
	Fraction func() (float64, error)
}

func TestBatchable_ScalarKinds(t *testing.T) {
	Register(scalarWrapper{}, map[string]string{
		"Seen":     "Seen",
		"Age":      "Age",
		"ID":       "ID",
		"Tags":     "Tags",
		"Flag":     "Flag",
		"Extra":    "Extra",
		"Pointer":  "Pointer",
		"Matrix":   "Matrix",
		"Fraction": "Fraction",
	})

	got, err := Batchable(reflect.TypeOf(scalarWrapper{}), reflect.TypeOf(scalarCapability{}))
	if err != nil {
		t.Fatalf("paths:analyzer_test - Batchable failed: %v", err)
	}

	want := map[string]bool{"Seen": true, "Age": true, "ID": true, "Tags": true, "Flag": true, "Fraction": true}
	for _, p := range got {
		if !want[p.Member] {
			t.Errorf("paths:analyzer_test - member %s should have been excluded", p.Member)
		}
		delete(want, p.Member)
	}
	for member := range want {
		t.Errorf("paths:analyzer_test - member %s missing from batchable set", member)
	}
}

func TestReverse_MapsPathsToMembers(t *testing.T) {
	registerCardFixtures()

	rev, err := Reverse(reflect.TypeOf(card{}), reflect.TypeOf(cardView{}))
	if err != nil {
		t.Fatalf("paths:analyzer_test - Reverse failed: %v", err)
	}
	if rev["DisplayName"] != "Name" {
		t.Errorf("paths:analyzer_test - rev[DisplayName] = %q, want Name", rev["DisplayName"])
	}
	if rev["Cmc"] != "Cmc" {
		t.Errorf("paths:analyzer_test - rev[Cmc] = %q, want Cmc", rev["Cmc"])
	}
}

func TestLookupType_ByRuntimeName(t *testing.T) {
	registerCardFixtures()

	got, ok := LookupType("card")
	if !ok {
		t.Fatal("paths:analyzer_test - expected card to be registered")
	}
	if got != reflect.TypeOf(card{}) {
		t.Errorf("paths:analyzer_test - LookupType(card) = %v, want card", got)
	}
	if _, ok := LookupType("unknown"); ok {
		t.Error("paths:analyzer_test - LookupType(unknown) should miss")
	}
}

func TestBatchable_ConcurrentPopulation(t *testing.T) {
	registerCardFixtures()

	var wg sync.WaitGroup
	results := make([][]Path, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := Batchable(reflect.TypeOf(card{}), reflect.TypeOf(cardView{}))
			if err != nil {
				t.Errorf("paths:analyzer_test - concurrent Batchable failed: %v", err)
				return
			}
			results[i] = got
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		if !reflect.DeepEqual(results[0], results[i]) {
			t.Fatalf("paths:analyzer_test - divergent analysis: %v vs %v", results[0], results[i])
		}
	}
}
