package ledger

import "testing"

func TestChainHash_DeterministicAndOrderSensitive(t *testing.T) {
	a := chainHash("", "wallet_debit", []byte(`{"reason":"stake"}`), []byte(`{"wallet:u1":"-10"}`))
	b := chainHash("", "wallet_debit", []byte(`{"reason":"stake"}`), []byte(`{"wallet:u1":"-10"}`))
	if a != b {
		t.Fatalf("expected deterministic hash, got %s vs %s", a, b)
	}

	c := chainHash(a, "wallet_credit", []byte(`{"reason":"claim"}`), []byte(`{"wallet:u1":"10"}`))
	if c == a {
		t.Fatalf("chained hash must differ from its predecessor")
	}

	d := chainHash("", "wallet_credit", []byte(`{"reason":"claim"}`), []byte(`{"wallet:u1":"10"}`))
	if c == d {
		t.Fatalf("hash must depend on prevHash, identical tails with different prevHash collided")
	}
}
