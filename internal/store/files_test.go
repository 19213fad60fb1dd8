package store

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriteReadJSON_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "doc.json")

	in := map[string][]float64{"rewards": {1.5, -2.0, 3.25}}
	if err := WriteJSON(path, in); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !Exists(path) {
		t.Fatal("Exists = false after write")
	}

	var out map[string][]float64
	if err := ReadJSON(path, &out); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-in +out):\n%s", diff)
	}
}

func TestWriteJSON_OverwritesInFull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")

	if err := WriteJSON(path, []int{1, 2, 3, 4, 5}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if err := WriteJSON(path, []int{9}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var out []int
	if err := ReadJSON(path, &out); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if diff := cmp.Diff([]int{9}, out); diff != "" {
		t.Errorf("second write not authoritative (-want +got):\n%s", diff)
	}
}

func TestReadJSON_MissingFile(t *testing.T) {
	var out map[string]int
	if err := ReadJSON(filepath.Join(t.TempDir(), "absent.json"), &out); err == nil {
		t.Error("ReadJSON succeeded on a missing file")
	}
}

func TestFiles_Layout(t *testing.T) {
	f := NewFiles("/data")
	cases := map[string]string{
		f.QTablePath():      filepath.Join("/data", "q_table.json"),
		f.OuterPolicyPath(): filepath.Join("/data", "outer_policy.json"),
		f.ErrorLogPath():    filepath.Join("/data", "error_log.json"),
		f.RecoveryLogPath(): filepath.Join("/data", "recovery_log.json"),
	}
	for got, want := range cases {
		if got != want {
			t.Errorf("path = %s, want %s", got, want)
		}
	}
}
