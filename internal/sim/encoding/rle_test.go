package encoding

import "testing"

func TestMask_RoundTrip(t *testing.T) {
	in := make([]bool, 0, 200)
	in = append(in, true, true, true, false, false, true)
	for i := 0; i < 50; i++ {
		in = append(in, false)
	}
	in = append(in, true, false, false, false)

	enc := EncodeMask(in)
	out, err := DecodeMask(enc)
	if err != nil {
		t.Fatalf("DecodeMask: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len mismatch: got %d want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("mismatch at %d: got %v want %v", i, out[i], in[i])
		}
	}
}

func TestMask_Empty(t *testing.T) {
	enc := EncodeMask(nil)
	if enc != "" {
		t.Fatalf("empty mask should encode empty, got %q", enc)
	}
	out, err := DecodeMask("")
	if err != nil {
		t.Fatalf("DecodeMask: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty decode, got %d cells", len(out))
	}
}

func TestMask_BadInput(t *testing.T) {
	if _, err := DecodeMask("!!!not-base64!!!"); err == nil {
		t.Fatalf("expected error for invalid base64")
	}
	// A varint pair (2, 1): bit value out of range.
	if _, err := DecodeMask("AgE="); err == nil {
		t.Fatalf("expected error for out of range bit")
	}
}
