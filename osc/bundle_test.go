package osc

import (
	"reflect"
	"testing"
)

func TestBundle_MarshalBinary(t *testing.T) {
	for _, tt := range bundleTestCases {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.obj.MarshalBinary()
			if (err != nil) != tt.wantErr {
				t.Errorf("MarshalBinary() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !reflect.DeepEqual(got, tt.raw) {
				t.Errorf("MarshalBinary() got = %q, want %q", got, tt.raw)
			}
		})
	}
}

func TestBundle_UnmarshalBinary(t *testing.T) {
	for _, tt := range bundleTestCases {
		t.Run(tt.name, func(t *testing.T) {
			m := new(Bundle)
			if err := m.UnmarshalBinary(tt.raw); (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalBinary() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(m, tt.obj) {
				t.Errorf("UnmarshalBinary() got = %v, want %v", m, tt.obj)
			}
		})
	}
}

func TestBundle_Size(t *testing.T) {
	for _, tt := range bundleTestCases {
		got, err := tt.obj.Size()
		if err != nil || got != len(tt.raw) {
			t.Errorf("%s: Size() = %d, %v, want %d", tt.name, got, err, len(tt.raw))
		}
	}
}

func TestWalkBundle(t *testing.T) {
	raw := bundleTestCases[2].raw
	var sizes []int
	err := walkBundle(raw, func(elem []byte) error {
		sizes = append(sizes, len(elem))
		return nil
	})
	if err != nil {
		t.Fatalf("walkBundle() error = %v", err)
	}
	if want := []int{8, 12}; !reflect.DeepEqual(sizes, want) {
		t.Errorf("walkBundle() sizes = %v, want %v", sizes, want)
	}
}
