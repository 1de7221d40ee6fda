package bank

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/go-audio/riff"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// ErrNotSoundFont is returned by ReadInfo for data that is not an SF2 file.
var ErrNotSoundFont = errors.New("not a SoundFont 2 file")

var (
	sfbkID = [4]byte{'s', 'f', 'b', 'k'}
	listID = [4]byte{'L', 'I', 'S', 'T'}
	infoID = [4]byte{'I', 'N', 'F', 'O'}
)

// maxInfoSize caps the INFO list read from a bank header.
const maxInfoSize = 1 << 20

// Info is the INFO list of an SF2 file.
type Info struct {
	Version string // ifil, "major.minor"
	Engine  string // isng
	INAM    string // bank name
	IENG    string // sound designer
	ICOP    string // copyright
	ICMT    string // comment
	ISFT    string // authoring tool
}

// ReadInfo reads the INFO list at the head of an SF2 stream. Only the header
// is consumed; sample data is never read.
func ReadInfo(r io.Reader) (*Info, error) {
	p := riff.New(r)
	if err := p.ParseHeaders(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotSoundFont, err)
	}
	if p.Format != sfbkID {
		return nil, fmt.Errorf("%w: form type %q", ErrNotSoundFont, p.Format[:])
	}

	ch, err := p.NextChunk()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotSoundFont, err)
	}
	var form [4]byte
	if ch.ID != listID || ch.ReadLE(&form) != nil || form != infoID {
		return nil, fmt.Errorf("%w: missing INFO list", ErrNotSoundFont)
	}
	size := ch.Size - 4
	if size < 0 || size > maxInfoSize {
		return nil, fmt.Errorf("%w: INFO list of %d bytes", ErrNotSoundFont, size)
	}
	payload := make([]byte, size)
	n, _ := io.ReadFull(ch, payload)

	return parseInfo(payload[:n]), nil
}

func parseInfo(payload []byte) *Info {
	info := &Info{}
	sub := riff.New(bytes.NewReader(payload))
	for {
		ch, err := sub.NextChunk()
		if err != nil {
			break
		}
		data := make([]byte, ch.Size)
		n, _ := io.ReadFull(ch, data)
		data = data[:n]

		switch string(ch.ID[:]) {
		case "ifil":
			if len(data) >= 4 {
				major := int(data[0]) | int(data[1])<<8
				minor := int(data[2]) | int(data[3])<<8
				info.Version = fmt.Sprintf("%d.%02d", major, minor)
			}
		case "isng":
			info.Engine = zstr(data)
		case "INAM":
			info.INAM = zstr(data)
		case "IENG":
			info.IENG = zstr(data)
		case "ICOP":
			info.ICOP = zstr(data)
		case "ICMT":
			info.ICMT = zstr(data)
		case "ISFT":
			info.ISFT = zstr(data)
		}
	}
	return info
}

// zstr decodes a zero-terminated INFO string. Older banks authored on
// Japanese systems store Shift-JIS here, so invalid UTF-8 is converted.
func zstr(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	s := strings.TrimSpace(string(data))
	if utf8.ValidString(s) {
		return s
	}
	return convertToUTF8(s)
}

func convertToUTF8(s string) string {
	decoder := japanese.ShiftJIS.NewDecoder()
	out, _, err := transform.String(decoder, s)
	if err != nil {
		return s
	}
	return out
}
