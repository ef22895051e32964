package metrics

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decoded struct {
	mt    uint8
	name  string
	value float64
	tags  map[string]string
}

func readString(t *testing.T, r *bytes.Reader) string {
	t.Helper()
	n, err := r.ReadByte()
	require.NoError(t, err)
	b := make([]byte, n)
	_, err = r.Read(b)
	require.NoError(t, err)
	return string(b)
}

// decodePacket splits a datagram back into items.
func decodePacket(t *testing.T, packet []byte) []decoded {
	t.Helper()
	r := bytes.NewReader(packet)
	out := make([]decoded, 0)
	for r.Len() > 0 {
		var d decoded
		mt, err := r.ReadByte()
		require.NoError(t, err)
		d.mt = mt
		d.name = readString(t, r)
		var v [8]byte
		_, err = r.Read(v[:])
		require.NoError(t, err)
		d.value = math.Float64frombits(binary.LittleEndian.Uint64(v[:]))
		n, err := r.ReadByte()
		require.NoError(t, err)
		d.tags = make(map[string]string, n)
		for i := 0; i < int(n); i++ {
			k := readString(t, r)
			d.tags[k] = readString(t, r)
		}
		out = append(out, d)
	}
	return out
}

func TestFormatCommon(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	err := formatCommon(buf, mtTimer, "profdemo", "route.latency_us", 1500, []tag{{key: "route", value: "/issue"}})
	require.NoError(t, err)

	items := decodePacket(t, buf.Bytes())
	require.Len(t, items, 1)
	assert.Equal(t, decoded{
		mt:    mtTimer,
		name:  "profdemo.route.latency_us",
		value: 1500,
		tags:  map[string]string{"route": "/issue"},
	}, items[0])
}

func TestFormatLimits(t *testing.T) {
	long := strings.Repeat("x", 256)

	assert.ErrorIs(t, formatCommon(bytes.NewBuffer(nil), mtCounter, "", long, 1, nil), ErrNameTooLong)
	assert.ErrorIs(t, formatCommon(bytes.NewBuffer(nil), mtCounter, "p", long[:254], 1, nil), ErrNameTooLong)
	assert.ErrorIs(t, formatCommon(bytes.NewBuffer(nil), mtCounter, "", "n", 1, []tag{{key: long, value: "v"}}), ErrStringTooLong)
	assert.ErrorIs(t, formatCommon(bytes.NewBuffer(nil), mtCounter, "", "n", 1, make([]tag, 256)), ErrTooManyTags)
}
