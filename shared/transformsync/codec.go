package transformsync

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/automoto/openworld-mp/shared/gamemath"
	"github.com/automoto/openworld-mp/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
)

var ErrMalformedPayload = errors.New("malformed transform payload")

// Payload layout, little endian:
//
//	[0]      flags (reserved, always 0)
//	[1:4]    reserved, zero
//	[4:16]   position x, y, z as float32
//	[16:28]  rotation as Euler degrees x, y, z as float32
const (
	flagsNone   byte = 0
	posOffset        = 4
	eulerOffset      = 16
)

// Encode writes a pose into a new payload.
func Encode(pos mgl64.Vec3, rot mgl64.Quat) []byte {
	buf := make([]byte, netconfig.PayloadSize)
	buf[0] = flagsNone
	euler := gamemath.QuatToEuler(rot)
	for i := 0; i < 3; i++ {
		binary.LittleEndian.PutUint32(buf[posOffset+4*i:], math.Float32bits(float32(pos[i])))
		binary.LittleEndian.PutUint32(buf[eulerOffset+4*i:], math.Float32bits(float32(euler[i])))
	}
	return buf
}

// Decode parses a payload produced by Encode.
func Decode(payload []byte) (mgl64.Vec3, mgl64.Quat, error) {
	if len(payload) != netconfig.PayloadSize {
		return mgl64.Vec3{}, mgl64.Quat{}, fmt.Errorf("%w: %d bytes, want %d", ErrMalformedPayload, len(payload), netconfig.PayloadSize)
	}

	var pos, euler mgl64.Vec3
	for i := 0; i < 3; i++ {
		pos[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(payload[posOffset+4*i:])))
		euler[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(payload[eulerOffset+4*i:])))
	}
	for i := 0; i < 3; i++ {
		if math.IsNaN(pos[i]) || math.IsInf(pos[i], 0) || math.IsNaN(euler[i]) || math.IsInf(euler[i], 0) {
			return mgl64.Vec3{}, mgl64.Quat{}, fmt.Errorf("%w: non-finite component", ErrMalformedPayload)
		}
	}
	return pos, gamemath.EulerToQuat(euler), nil
}
