package identity

import "testing"

func TestParseStringRoundtrip(t *testing.T) {
	var a Address
	for i := range a {
		a[i] = byte(i)
	}

	s := a.String()
	got, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got != a {
		t.Fatalf("Parse(String()) = %v, want %v", got, a)
	}
}

func TestFromBytesWrongLength(t *testing.T) {
	if _, err := FromBytes(make([]byte, Size-1)); err == nil {
		t.Fatal("FromBytes() with short input should fail")
	}
	if _, err := FromBytes(make([]byte, Size+1)); err == nil {
		t.Fatal("FromBytes() with long input should fail")
	}
}

func TestIsZero(t *testing.T) {
	var a Address
	if !a.IsZero() {
		t.Fatal("zero-valued Address.IsZero() = false, want true")
	}
	a[5] = 1
	if a.IsZero() {
		t.Fatal("non-zero Address.IsZero() = true, want false")
	}
}

func TestJSONRoundtrip(t *testing.T) {
	var a Address
	for i := range a {
		a[i] = byte(i * 3)
	}

	data, err := a.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}

	var got Address
	if err := got.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	if got != a {
		t.Fatalf("UnmarshalJSON(MarshalJSON()) = %v, want %v", got, a)
	}
}

func TestParseInvalidBase58(t *testing.T) {
	if _, err := Parse("not-valid-base58-!!!"); err == nil {
		t.Fatal("Parse() of invalid base58 should fail")
	}
}
