// Package testing provides small helpers shared by the device and blockfs
// test suites so each test doesn't have to re-derive how to stand up a
// backing image.
package testing

import (
	"testing"

	"github.com/amityahav/blockfs/device"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

// NewMemoryDevice builds a Device over an in-memory buffer instead of a
// real file, so tests don't touch the filesystem.
func NewMemoryDevice(t *testing.T, nblocks uint32) *device.Device {
	backing := make([]byte, uint64(nblocks)*device.BlockSize)
	stream := bytesextra.NewReadWriteSeeker(backing)

	dev, err := device.NewFromStream(stream, nblocks)
	require.NoError(t, err)
	return dev
}
