package utils

import (
	"bytes"
	"encoding/binary"

	"github.com/mogaika/phyre_browser/config"
	"github.com/pkg/errors"
	"golang.org/x/text/transform"
)

// BytesToString decodes bytes up to the first zero using the configured charmap.
func BytesToString(bs []byte) string {
	n := bytes.IndexByte(bs, 0)
	if n < 0 {
		n = len(bs)
	}

	s, _, err := transform.Bytes(config.GetEncoding().NewDecoder(), bs[0:n])
	if err != nil {
		// single byte charmaps decode every byte
		return string(bs[0:n])
	}
	return string(s)
}

func StringToBytes(s string, nilTerminate bool) ([]byte, error) {
	bs, _, err := transform.Bytes(config.GetEncoding().NewEncoder(), []byte(s))
	if err != nil {
		return nil, errors.Wrapf(err, "encoding %q as %v", s, config.GetEncoding())
	}

	if nilTerminate {
		bs = append(bs, 0)
	}
	return bs, nil
}

func ReadBytes(out interface{}, raw []byte) error {
	return binary.Read(bytes.NewReader(raw), binary.LittleEndian, out)
}

func AsBytes(data interface{}) []byte {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, data); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func Align(v, alignment int) int {
	return (v + alignment - 1) / alignment * alignment
}
