package vector

import (
	"encoding/binary"
	"math"
)

// ComponentSize is the encoded size of one component in bytes.
const ComponentSize = 4

// AppendBytes appends the little-endian float32 encoding of c to dst.
func AppendBytes(dst []byte, c []float32) []byte {
	for _, v := range c {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}

// Bytes returns the little-endian float32 encoding of v.
func (v Vector) Bytes() []byte {
	return AppendBytes(make([]byte, 0, len(v.components)*ComponentSize), v.components)
}

// FromBytes decodes little-endian float32 components. Trailing bytes that do
// not make up a whole component are ignored.
func FromBytes(b []byte) Vector {
	c := make([]float32, len(b)/ComponentSize)
	for i := range c {
		c[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*ComponentSize:]))
	}
	return wrap(c)
}
