// Package encoding holds the compact text form used to ship whole chunks of
// tile codes in JSON.
package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// EncodeRLE encodes a sequence of tile codes into base64(varint pairs).
// The pairs are (code, run_len) repeated.
func EncodeRLE(codes []uint8) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	i := 0
	for i < len(codes) {
		b := codes[i]
		run := 1
		for j := i + 1; j < len(codes) && codes[j] == b; j++ {
			run++
		}

		n := binary.PutUvarint(tmp[:], uint64(b))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])

		i += run
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// DecodeRLE reverses EncodeRLE. limit caps the decoded length; zero means no cap.
func DecodeRLE(b64 string, limit int) ([]uint8, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	var out []uint8
	for i := 0; i < len(raw); {
		b, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if b > 0xFF {
			return nil, fmt.Errorf("tile code too large: %d", b)
		}
		if limit > 0 && uint64(len(out))+run > uint64(limit) {
			return nil, fmt.Errorf("decoded length exceeds %d", limit)
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, uint8(b))
		}
	}
	return out, nil
}
