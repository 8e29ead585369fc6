package settlement

import "testing"

func TestAdvisoryKey_DeterministicAndDistinct(t *testing.T) {
	a := advisoryKey("session-1")
	b := advisoryKey("session-1")
	c := advisoryKey("session-2")
	if a != b {
		t.Fatalf("same session id must hash to the same key: %d != %d", a, b)
	}
	if a == c {
		t.Fatalf("different session ids collided: %d", a)
	}
}
