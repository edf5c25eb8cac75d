package coerce

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/videre-project/mtgosdk-go/pkg/construct"
	"github.com/videre-project/mtgosdk-go/pkg/handle"
)

type cardColor int

const (
	colorWhite cardColor = iota
	colorBlue
	colorBlack
)

func init() {
	RegisterEnum(map[string]cardColor{
		"White": colorWhite,
		"Blue":  colorBlue,
		"Black": colorBlack,
	})
}

func TestAs_DirectAndNumeric(t *testing.T) {
	s, err := As[string]("island")
	if err != nil || s != "island" {
		t.Fatalf("coerce:coerce_test - As[string] = %q, %v", s, err)
	}

	n, err := As[int64](int32(7))
	if err != nil || n != 7 {
		t.Fatalf("coerce:coerce_test - As[int64] = %d, %v", n, err)
	}

	f, err := As[float64](3)
	if err != nil || f != 3.0 {
		t.Fatalf("coerce:coerce_test - As[float64] = %v, %v", f, err)
	}
}

func TestAs_StringRoundTrip(t *testing.T) {
	n, err := As[int]("42")
	if err != nil || n != 42 {
		t.Fatalf("coerce:coerce_test - As[int] from string = %d, %v", n, err)
	}

	b, err := As[bool]("true")
	if err != nil || !b {
		t.Fatalf("coerce:coerce_test - As[bool] from string = %v, %v", b, err)
	}

	s, err := As[string](42)
	if err != nil || s != "42" {
		t.Fatalf("coerce:coerce_test - As[string] from int = %q, %v", s, err)
	}
}

func TestAs_EnumByName(t *testing.T) {
	c, err := As[cardColor]("Blue")
	if err != nil {
		t.Fatalf("coerce:coerce_test - enum parse failed: %v", err)
	}
	if c != colorBlue {
		t.Errorf("coerce:coerce_test - got %v, want colorBlue", c)
	}

	if _, err := As[cardColor]("Chartreuse"); err == nil {
		t.Error("coerce:coerce_test - unknown enum name should fail")
	}
}

func TestAs_TextUnmarshaler(t *testing.T) {
	ts, err := As[time.Time]("2024-06-01T12:00:00Z")
	if err != nil {
		t.Fatalf("coerce:coerce_test - time parse failed: %v", err)
	}
	if ts.Year() != 2024 || ts.Month() != time.June {
		t.Errorf("coerce:coerce_test - parsed %v, want 2024-06-01", ts)
	}
}

type boundCard struct {
	Handle *handle.Handle
}

func newBoundCard(h *handle.Handle) boundCard {
	return boundCard{Handle: h}
}

func TestAs_ConstructFromHandle(t *testing.T) {
	construct.RegisterFactory(newBoundCard)

	h := &handle.Handle{ID: "h-1", RuntimeType: "Card"}
	card, err := As[boundCard](h)
	if err != nil {
		t.Fatalf("coerce:coerce_test - construct step failed: %v", err)
	}
	if card.Handle != h {
		t.Errorf("coerce:coerce_test - constructed card holds %v, want %v", card.Handle, h)
	}
}

func TestAs_ExhaustedChainCarriesBothTypes(t *testing.T) {
	type opaque struct{ inner chan int }

	_, err := As[opaque]("nope")
	if err == nil {
		t.Fatal("coerce:coerce_test - expected coercion error")
	}
	var cErr *Error
	if !errors.As(err, &cErr) {
		t.Fatalf("coerce:coerce_test - expected *coerce.Error, got %T", err)
	}
	if cErr.SourceType != "string" {
		t.Errorf("coerce:coerce_test - SourceType = %q, want string", cErr.SourceType)
	}
	if cErr.TargetType == "" {
		t.Error("coerce:coerce_test - TargetType must be carried")
	}
}

func TestAs_Deterministic(t *testing.T) {
	first, err1 := As[int]("17")
	second, err2 := As[int]("17")
	if first != second || (err1 == nil) != (err2 == nil) {
		t.Fatalf("coerce:coerce_test - nondeterministic: (%d,%v) vs (%d,%v)", first, err1, second, err2)
	}

	_, errA := As[time.Duration]([]int{1})
	_, errB := As[time.Duration]([]int{1})
	if (errA == nil) != (errB == nil) {
		t.Fatal("coerce:coerce_test - error determinism violated")
	}
}

func TestSlice_AllOrNothing(t *testing.T) {
	out, err := Slice[int]([]any{int32(1), "2", 3.0})
	if err != nil {
		t.Fatalf("coerce:coerce_test - Slice failed: %v", err)
	}
	if !reflect.DeepEqual(out, []int{1, 2, 3}) {
		t.Errorf("coerce:coerce_test - Slice = %v, want [1 2 3]", out)
	}

	if _, err := Slice[int]([]any{1, "not a number"}); err == nil {
		t.Error("coerce:coerce_test - partial success must not happen")
	}
}

func TestTo_SliceElementwise(t *testing.T) {
	out, err := To([]any{"4", "5"}, reflect.TypeOf([]int{}))
	if err != nil {
		t.Fatalf("coerce:coerce_test - elementwise slice failed: %v", err)
	}
	if got := out.Interface().([]int); !reflect.DeepEqual(got, []int{4, 5}) {
		t.Errorf("coerce:coerce_test - got %v, want [4 5]", got)
	}
}
