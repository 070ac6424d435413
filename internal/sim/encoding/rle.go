package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// EncodeTiles encodes a tile id sequence into base64(varint pairs).
// The pairs are (tile_id, run_len) repeated. Chunk planes are long runs
// of air and fill tiles, which this collapses well.
func EncodeTiles(ids []uint16) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	i := 0
	for i < len(ids) {
		v := ids[i]
		run := 1
		for j := i + 1; j < len(ids) && ids[j] == v; j++ {
			run++
		}

		n := binary.PutUvarint(tmp[:], uint64(v))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])

		i += run
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func DecodeTiles(b64 string) ([]uint16, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	var out []uint16
	for i := 0; i < len(raw); {
		v, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if v > 0xFFFF {
			return nil, fmt.Errorf("tile id too large: %d", v)
		}
		for k := 0; k < int(run); k++ {
			out = append(out, uint16(v))
		}
	}
	return out, nil
}

// EncodeBytes is the byte-valued variant, used for autotile mask planes.
func EncodeBytes(vals []uint8) string {
	wide := make([]uint16, len(vals))
	for i, v := range vals {
		wide[i] = uint16(v)
	}
	return EncodeTiles(wide)
}

func DecodeBytes(b64 string) ([]uint8, error) {
	wide, err := DecodeTiles(b64)
	if err != nil {
		return nil, err
	}
	out := make([]uint8, len(wide))
	for i, v := range wide {
		if v > 0xFF {
			return nil, fmt.Errorf("byte value too large: %d", v)
		}
		out[i] = uint8(v)
	}
	return out, nil
}

// EncodeRGB run-length encodes light triples. Each run is four varints:
// r, g, b, run_len. Light fields are dominated by full-dark and full-sun
// runs, so the same scheme applies.
func EncodeRGB(vals [][3]uint8) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	i := 0
	for i < len(vals) {
		v := vals[i]
		run := 1
		for j := i + 1; j < len(vals) && vals[j] == v; j++ {
			run++
		}

		for c := 0; c < 3; c++ {
			n := binary.PutUvarint(tmp[:], uint64(v[c]))
			buf.Write(tmp[:n])
		}
		n := binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])

		i += run
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func DecodeRGB(b64 string) ([][3]uint8, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	var out [][3]uint8
	for i := 0; i < len(raw); {
		var v [3]uint8
		for c := 0; c < 3; c++ {
			ch, n := binary.Uvarint(raw[i:])
			if n <= 0 {
				return nil, fmt.Errorf("bad varint at %d", i)
			}
			if ch > 0xFF {
				return nil, fmt.Errorf("channel value too large: %d", ch)
			}
			i += n
			v[c] = uint8(ch)
		}
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		for k := 0; k < int(run); k++ {
			out = append(out, v)
		}
	}
	return out, nil
}
