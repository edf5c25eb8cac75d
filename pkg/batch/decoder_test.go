package batch

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/videre-project/mtgosdk-go/pkg/handle"
)

func TestDecode_Scalars(t *testing.T) {
	tests := []struct {
		name string
		raw  handle.RawValue
		want any
	}{
		{"string", handle.RawValue{Data: []byte(`"Island"`), TypeTag: "string"}, "Island"},
		{"bool", handle.RawValue{Data: []byte(`true`), TypeTag: "bool"}, true},
		{"int32", handle.RawValue{Data: []byte(`3`), TypeTag: "int32"}, int32(3)},
		{"int64", handle.RawValue{Data: []byte(`-9`), TypeTag: "int64"}, int64(-9)},
		{"uint16", handle.RawValue{Data: []byte(`60`), TypeTag: "uint16"}, uint16(60)},
		{"float64", handle.RawValue{Data: []byte(`2.5`), TypeTag: "float64"}, 2.5},
		{"enum", handle.RawValue{Data: []byte(`"Blue"`), TypeTag: "enum:cardColor"}, "Blue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.raw)
			if err != nil {
				t.Fatalf("batch:decoder_test - Decode failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("batch:decoder_test - Decode = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestDecode_TimeDurationUUID(t *testing.T) {
	ts, err := Decode(handle.RawValue{Data: []byte(`"2024-06-01T12:00:00Z"`), TypeTag: "time"})
	if err != nil {
		t.Fatalf("batch:decoder_test - time decode failed: %v", err)
	}
	if ts.(time.Time).Year() != 2024 {
		t.Errorf("batch:decoder_test - time = %v", ts)
	}

	d, err := Decode(handle.RawValue{Data: []byte(`"90m"`), TypeTag: "duration"})
	if err != nil {
		t.Fatalf("batch:decoder_test - duration decode failed: %v", err)
	}
	if d.(time.Duration) != 90*time.Minute {
		t.Errorf("batch:decoder_test - duration = %v", d)
	}

	want := uuid.MustParse("8a6e0804-2bd0-4672-b79d-d97027f9071a")
	id, err := Decode(handle.RawValue{Data: []byte(`"8a6e0804-2bd0-4672-b79d-d97027f9071a"`), TypeTag: "uuid"})
	if err != nil {
		t.Fatalf("batch:decoder_test - uuid decode failed: %v", err)
	}
	if id.(uuid.UUID) != want {
		t.Errorf("batch:decoder_test - uuid = %v", id)
	}
}

func TestDecode_NullAndLists(t *testing.T) {
	v, err := Decode(handle.RawValue{TypeTag: "null"})
	if err != nil || v != nil {
		t.Fatalf("batch:decoder_test - null decode = %v, %v", v, err)
	}

	list, err := Decode(handle.RawValue{Data: []byte(`["W","U"]`), TypeTag: "[]string"})
	if err != nil {
		t.Fatalf("batch:decoder_test - list decode failed: %v", err)
	}
	if got := list.([]any); !reflect.DeepEqual(got, []any{"W", "U"}) {
		t.Errorf("batch:decoder_test - list = %v", got)
	}

	// Empty lists stay empty, never nil.
	empty, err := Decode(handle.RawValue{Data: []byte(`[]`), TypeTag: "[]int32"})
	if err != nil {
		t.Fatalf("batch:decoder_test - empty list decode failed: %v", err)
	}
	if got := empty.([]any); got == nil || len(got) != 0 {
		t.Errorf("batch:decoder_test - empty list = %#v", got)
	}
}

func TestDecode_HandleTag(t *testing.T) {
	v, err := Decode(handle.RawValue{Data: []byte(`{"id":"h-9","runtimeType":"GameFormat","isCollection":false}`), TypeTag: "handle"})
	if err != nil {
		t.Fatalf("batch:decoder_test - handle decode failed: %v", err)
	}
	h := v.(*handle.Handle)
	if h.ID != "h-9" || h.RuntimeType != "GameFormat" {
		t.Errorf("batch:decoder_test - handle = %+v", h)
	}
}

func TestDecode_UnknownTag(t *testing.T) {
	_, err := Decode(handle.RawValue{Data: []byte(`"?"`), TypeTag: "hologram"})
	if !errors.Is(err, ErrUnknownTag) {
		t.Fatalf("batch:decoder_test - expected ErrUnknownTag, got %v", err)
	}
}
