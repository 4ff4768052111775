package ckey

import "testing"

func TestNormalizeDefaultsBlankGroup(t *testing.T) {
	k := Normalize("d", "  ", "ns")
	if k.Group != DefaultGroup {
		t.Fatalf("got group %q, want %q", k.Group, DefaultGroup)
	}
}

func TestValidRejectsBadCharacters(t *testing.T) {
	k := Key{DataID: "bad id!", Group: "g"}
	if k.Valid() {
		t.Fatalf("expected invalid dataId to fail validation")
	}
}

func TestValidAcceptsAllowedCharacters(t *testing.T) {
	k := Key{DataID: "app.config-v1:2", Group: "GROUP_1"}
	if !k.Valid() {
		t.Fatalf("expected key to be valid")
	}
}

func TestStringRoundTripsThroughParse(t *testing.T) {
	k := Key{DataID: "d", Group: "g", Namespace: "ns"}
	parsed, ok := Parse(k.String())
	if !ok || parsed != k {
		t.Fatalf("got (%+v, %v), want (%+v, true)", parsed, ok, k)
	}
}

func TestParseTwoFieldPadsEmptyNamespace(t *testing.T) {
	parsed, ok := Parse("d+g")
	if !ok || parsed.Namespace != "" {
		t.Fatalf("got (%+v, %v)", parsed, ok)
	}
}

func TestParseRejectsSingleField(t *testing.T) {
	if _, ok := Parse("d"); ok {
		t.Fatalf("expected single-field string to fail parsing")
	}
}
