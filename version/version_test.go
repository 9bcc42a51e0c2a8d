package version

import "testing"

func TestParseAndString(t *testing.T) {
	tests := []struct {
		in      string
		want    SemanticVersion
		wantStr string
	}{
		{"1.2.3", SemanticVersion{1, 2, 3, ""}, "1.2.3"},
		{"1.2.3-beta1", SemanticVersion{1, 2, 3, "beta1"}, "1.2.3-beta1"},
		{"0.0.1", SemanticVersion{0, 0, 1, ""}, "0.0.1"},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
		if got.String() != tt.wantStr {
			t.Fatalf("String() = %q, want %q", got.String(), tt.wantStr)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, in := range []string{"1.2", "1.2.3.4", "a.b.c", ""} {
		if _, err := Parse(in); err == nil {
			t.Fatalf("Parse(%q): expected error", in)
		}
	}
}

func TestCompareAndLess(t *testing.T) {
	v1 := SemanticVersion{Major: 1, Minor: 0, Patch: 0}
	v2 := SemanticVersion{Major: 1, Minor: 1, Patch: 0}
	v3 := SemanticVersion{Major: 2, Minor: 0, Patch: 0}

	if v1.Compare(v1) != 0 {
		t.Fatalf("expected equal version to compare 0")
	}
	if !v1.Less(v2) || v1.Compare(v2) != -1 {
		t.Fatalf("expected v1 < v2")
	}
	if !v2.Less(v3) || v2.Compare(v3) != -1 {
		t.Fatalf("expected v2 < v3")
	}
	if v3.Less(v1) == false && v3.Compare(v1) <= 0 {
		t.Fatalf("expected v3 > v1")
	}
}

func TestMajorChanged(t *testing.T) {
	v1 := SemanticVersion{Major: 1, Minor: 9, Patch: 9}
	v1Patch := SemanticVersion{Major: 1, Minor: 9, Patch: 10}
	v2 := SemanticVersion{Major: 2, Minor: 0, Patch: 0}

	if MajorChanged(v1, v1Patch) {
		t.Fatalf("expected no major change between %+v and %+v", v1, v1Patch)
	}
	if !MajorChanged(v1, v2) {
		t.Fatalf("expected major change between %+v and %+v", v1, v2)
	}
}
