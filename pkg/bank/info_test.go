package bank

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func chunk(id string, data []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(id)
	binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)
	if len(data)%2 == 1 {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

func zdata(s string) []byte {
	return append([]byte(s), 0)
}

// makeSF2 builds a minimal bank header: an INFO list and an empty sdta list.
func makeSF2(subchunks ...[]byte) []byte {
	info := []byte("INFO")
	info = append(info, chunk("ifil", []byte{2, 0, 1, 0})...)
	for _, c := range subchunks {
		info = append(info, c...)
	}
	body := []byte("sfbk")
	body = append(body, chunk("LIST", info)...)
	body = append(body, chunk("LIST", []byte("sdta"))...)
	return chunk("RIFF", body)
}

func TestReadInfo(t *testing.T) {
	t.Run("reads INFO strings", func(t *testing.T) {
		data := makeSF2(
			chunk("isng", zdata("EMU8000")),
			chunk("INAM", zdata("Grand Piano")),
			chunk("ICOP", zdata("Public Domain")),
			chunk("ICMT", zdata("Dry")),
		)
		info, err := ReadInfo(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("ReadInfo failed: %v", err)
		}
		want := Info{Version: "2.01", Engine: "EMU8000", INAM: "Grand Piano", ICOP: "Public Domain", ICMT: "Dry"}
		if *info != want {
			t.Errorf("info = %+v, want %+v", *info, want)
		}
	})

	t.Run("decodes Shift-JIS names", func(t *testing.T) {
		// "ピアノ" in Shift-JIS
		sjis := []byte{0x83, 0x73, 0x83, 0x41, 0x83, 0x6d, 0}
		info, err := ReadInfo(bytes.NewReader(makeSF2(chunk("INAM", sjis))))
		if err != nil {
			t.Fatal(err)
		}
		if info.INAM != "ピアノ" {
			t.Errorf("INAM = %q, want ピアノ", info.INAM)
		}
	})

	t.Run("rejects other RIFF forms", func(t *testing.T) {
		wav := chunk("RIFF", append([]byte("WAVE"), chunk("fmt ", make([]byte, 16))...))
		if _, err := ReadInfo(bytes.NewReader(wav)); !errors.Is(err, ErrNotSoundFont) {
			t.Errorf("err = %v, want ErrNotSoundFont", err)
		}
	})

	t.Run("rejects non-RIFF data", func(t *testing.T) {
		if _, err := ReadInfo(bytes.NewReader([]byte("not a bank at all"))); !errors.Is(err, ErrNotSoundFont) {
			t.Errorf("err = %v, want ErrNotSoundFont", err)
		}
	})

	t.Run("rejects a missing INFO list", func(t *testing.T) {
		data := chunk("RIFF", append([]byte("sfbk"), chunk("LIST", []byte("sdta"))...))
		if _, err := ReadInfo(bytes.NewReader(data)); !errors.Is(err, ErrNotSoundFont) {
			t.Errorf("err = %v, want ErrNotSoundFont", err)
		}
	})
}
