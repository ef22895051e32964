package metrics

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
)

const (
	maxStringLen = 255
)

const (
	mtCounter = uint8(1)
	mtTimer   = uint8(2)
	mtGauge   = uint8(3)
)

var (
	ErrNameTooLong   = errors.New("<prefix>.<name> must be shorter than 256 bytes")
	ErrTooManyTags   = errors.New("tag count must be smaller than 256")
	ErrStringTooLong = errors.New("tag key and value must be shorter than 256 bytes")
)

// formatCommon writes one item: type byte, length-prefixed name, little-endian float64
// value, tag count, then length-prefixed key/value pairs.
func formatCommon(buf *bytes.Buffer, mt uint8, prefix string, name string, value float64, tags []tag) error {
	buf.WriteByte(mt)
	if err := writeName(buf, prefix, name); err != nil {
		return err
	}
	writeFloat64(buf, value)
	return writeTags(buf, tags)
}

func writeName(buf *bytes.Buffer, prefix string, name string) error {
	if prefix == "" {
		if len(name) > maxStringLen {
			return ErrNameTooLong
		}
		return writeString(buf, name)
	}
	length := len(prefix) + len(name) + 1
	if length > maxStringLen {
		return ErrNameTooLong
	}
	buf.WriteByte(uint8(length))
	buf.WriteString(prefix)
	buf.WriteByte('.')
	buf.WriteString(name)
	return nil
}

func writeTags(buf *bytes.Buffer, tags []tag) error {
	if len(tags) > maxStringLen {
		return ErrTooManyTags
	}
	buf.WriteByte(uint8(len(tags)))
	for _, tg := range tags {
		if err := writeString(buf, tg.key); err != nil {
			return err
		}
		if err := writeString(buf, tg.value); err != nil {
			return err
		}
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > maxStringLen {
		return ErrStringTooLong
	}
	buf.WriteByte(uint8(len(s)))
	buf.WriteString(s)
	return nil
}

func writeFloat64(buf *bytes.Buffer, value float64) {
	vv := [8]byte{}
	binary.LittleEndian.PutUint64(vv[:], math.Float64bits(value))
	buf.Write(vv[:])
}
