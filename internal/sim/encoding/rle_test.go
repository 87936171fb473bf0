package encoding

import "testing"

func TestRLE_RoundTrip(t *testing.T) {
	in := make([]uint8, 0, 200)
	in = append(in, 1, 1, 1, 2, 2, 3)
	for i := 0; i < 50; i++ {
		in = append(in, 7)
	}
	in = append(in, 9, 10, 10, 10, 0xF8)

	enc := EncodeRLE(in)
	out, err := DecodeRLE(enc, 0)
	if err != nil {
		t.Fatalf("DecodeRLE: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len mismatch: got %d want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("mismatch at %d: got %d want %d", i, out[i], in[i])
		}
	}
}

func TestRLE_Limit(t *testing.T) {
	enc := EncodeRLE(make([]uint8, 1024))
	if _, err := DecodeRLE(enc, 1023); err == nil {
		t.Fatalf("expected limit error")
	}
	out, err := DecodeRLE(enc, 1024)
	if err != nil || len(out) != 1024 {
		t.Fatalf("decode at limit: %d %v", len(out), err)
	}
	if _, err := DecodeRLE("not base64!", 0); err == nil {
		t.Fatalf("expected base64 error")
	}
}
