package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestHexIsOrderIndependent(t *testing.T) {
	a := Hex(map[string]string{"client_id": "C00001", "status": "ACTIVE"})
	b := Hex(map[string]string{"status": "ACTIVE", "client_id": "C00001"})
	if a != b {
		t.Fatalf("same fields hashed differently: %s vs %s", a, b)
	}
}

func TestHexSerialization(t *testing.T) {
	got := Hex(map[string]string{"b": "2", "a": "1"})
	sum := sha256.Sum256([]byte("a=1|b=2"))
	if want := hex.EncodeToString(sum[:]); got != want {
		t.Fatalf("Hex = %s, want %s", got, want)
	}
}

func TestHexMissingEqualsEmpty(t *testing.T) {
	a := Hex(map[string]string{"client_id": "C00001", "tier": ""})
	b := Hex(map[string]string{"client_id": "C00001", "tier": ""})
	if a != b {
		t.Fatal("identical maps must hash identically")
	}
	if a == Hex(map[string]string{"client_id": "C00001"}) {
		// A missing field serializes the field name with an empty value, so
		// it still participates in the digest.
		t.Fatal("explicit empty field should change the digest when the field set differs")
	}
}

func TestKeySeparatesParts(t *testing.T) {
	if Key("ab", "c") == Key("a", "bc") {
		t.Fatal("parts must be separated before hashing")
	}
	if Key("INV-1001") != Key("INV-1001") {
		t.Fatal("Key must be deterministic")
	}
}
