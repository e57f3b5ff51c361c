package device_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/amityahav/blockfs/device"
	"github.com/amityahav/blockfs/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

func tempImagePath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "image.bin")
}

func TestOpenCreatesImageOfExactSize(t *testing.T) {
	path := tempImagePath(t)

	dev, err := device.Open(path, 10)
	require.NoError(t, err)
	defer dev.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.EqualValues(t, 10*device.BlockSize, info.Size())
	assert.EqualValues(t, 10, dev.TotalBlocks())
	assert.False(t, dev.Mounted())
}

func TestFreshImageReadsAsZero(t *testing.T) {
	dev, err := device.Open(tempImagePath(t), 4)
	require.NoError(t, err)
	defer dev.Close()

	buf, err := dev.Read(2)
	require.NoError(t, err)

	var zero [device.BlockSize]byte
	assert.Equal(t, zero, buf)
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	dev, err := device.Open(tempImagePath(t), 4)
	require.NoError(t, err)
	defer dev.Close()

	var buf [device.BlockSize]byte
	for i := range buf {
		buf[i] = byte(i)
	}

	require.NoError(t, dev.Write(1, buf))
	got, err := dev.Read(1)
	require.NoError(t, err)
	assert.Equal(t, buf, got)

	// Writing to block 1 must not disturb block 0 or block 2.
	var zero [device.BlockSize]byte
	other, err := dev.Read(0)
	require.NoError(t, err)
	assert.Equal(t, zero, other)

	other, err = dev.Read(2)
	require.NoError(t, err)
	assert.Equal(t, zero, other)
}

func TestReadOutOfRange(t *testing.T) {
	dev, err := device.Open(tempImagePath(t), 4)
	require.NoError(t, err)
	defer dev.Close()

	_, err = dev.Read(4)
	assert.ErrorIs(t, err, errors.ErrIoRange)
}

func TestWriteOutOfRange(t *testing.T) {
	dev, err := device.Open(tempImagePath(t), 4)
	require.NoError(t, err)
	defer dev.Close()

	var buf [device.BlockSize]byte
	err = dev.Write(4, buf)
	assert.ErrorIs(t, err, errors.ErrIoRange)
}

func TestReopenPreservesContents(t *testing.T) {
	path := tempImagePath(t)

	dev, err := device.Open(path, 2)
	require.NoError(t, err)

	var buf [device.BlockSize]byte
	buf[0] = 0xAB
	require.NoError(t, dev.Write(0, buf))
	require.NoError(t, dev.Close())

	dev2, err := device.Open(path, 2)
	require.NoError(t, err)
	defer dev2.Close()

	got, err := dev2.Read(0)
	require.NoError(t, err)
	assert.Equal(t, buf, got)
}

func TestNewFromStreamOverInMemoryBuffer(t *testing.T) {
	backing := make([]byte, 4*device.BlockSize)
	stream := bytesextra.NewReadWriteSeeker(backing)

	dev, err := device.NewFromStream(stream, 4)
	require.NoError(t, err)

	var buf [device.BlockSize]byte
	buf[10] = 0x7F
	require.NoError(t, dev.Write(3, buf))

	got, err := dev.Read(3)
	require.NoError(t, err)
	assert.Equal(t, buf, got)

	// The backing slice itself was mutated in place.
	assert.EqualValues(t, 0x7F, backing[3*device.BlockSize+10])
}

func TestMarkMounted(t *testing.T) {
	dev, err := device.Open(tempImagePath(t), 2)
	require.NoError(t, err)
	defer dev.Close()

	assert.False(t, dev.Mounted())
	dev.MarkMounted(true)
	assert.True(t, dev.Mounted())
}
