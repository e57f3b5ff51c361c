package blockfs_test

import (
	"bytes"
	"testing"

	"github.com/amityahav/blockfs/blockfs"
	"github.com/amityahav/blockfs/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWriteReadRemoveRoundTrip(t *testing.T) {
	fs := formatAndMount(t, 100)

	ino, err := fs.CreateInode()
	require.NoError(t, err)
	assert.EqualValues(t, 0, ino)

	size, err := fs.StatInode(ino)
	require.NoError(t, err)
	assert.EqualValues(t, 0, size)

	n, err := fs.WriteToInode(ino, []byte("hello"), 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	size, err = fs.StatInode(ino)
	require.NoError(t, err)
	assert.EqualValues(t, 5, size)

	buf := make([]byte, 5)
	n, err = fs.ReadFromInode(ino, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))

	require.NoError(t, fs.RemoveInode(ino))

	_, err = fs.ReadFromInode(ino, buf, 0)
	assert.ErrorIs(t, err, errors.ErrInvalid)

	ino2, err := fs.CreateInode()
	require.NoError(t, err)
	assert.EqualValues(t, 0, ino2)

	size, err = fs.StatInode(ino2)
	require.NoError(t, err)
	assert.EqualValues(t, 0, size)
}

func TestWriteCrossesIntoIndirectBlock(t *testing.T) {
	fs := formatAndMount(t, 200)

	ino, err := fs.CreateInode()
	require.NoError(t, err)

	data := make([]byte, 6*blockfs.BlockSize)
	for i := range data {
		data[i] = byte(i % 251)
	}

	n, err := fs.WriteToInode(ino, data, 0)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)

	before := fs.Info()

	got := make([]byte, len(data))
	n, err = fs.ReadFromInode(ino, got, 0)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.True(t, bytes.Equal(data, got))

	require.NoError(t, fs.RemoveInode(ino))
	after := fs.Info()

	// 5 direct data blocks + 1 data block reached through the indirect
	// pointer + the indirect block itself.
	assert.EqualValues(t, 7, after.FreeBlocks-before.FreeBlocks)
}

func TestWriteFillsDeviceToCapacity(t *testing.T) {
	fs := formatAndMount(t, 20)

	ino, err := fs.CreateInode()
	require.NoError(t, err)

	info := fs.Info()
	require.EqualValues(t, 17, info.FreeBlocks)

	block := bytes.Repeat([]byte{0x42}, blockfs.BlockSize)

	// Of the 17 free data blocks, one is consumed by the indirect block
	// itself once the write crosses past the 5 direct pointers, so only
	// 16 whole-block writes succeed before the pool is exhausted.
	for i := uint32(0); i < 16; i++ {
		n, err := fs.WriteToInode(ino, block, i*blockfs.BlockSize)
		require.NoError(t, err)
		assert.Equal(t, blockfs.BlockSize, n)
	}

	n, err := fs.WriteToInode(ino, block, 16*blockfs.BlockSize)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	assert.EqualValues(t, 0, fs.Info().FreeBlocks)
}

func TestReadOffsetAtOrPastSizeIsOutOfRange(t *testing.T) {
	fs := formatAndMount(t, 100)

	ino, err := fs.CreateInode()
	require.NoError(t, err)

	_, err = fs.WriteToInode(ino, []byte("abc"), 0)
	require.NoError(t, err)

	buf := make([]byte, 10)
	_, err = fs.ReadFromInode(ino, buf, 3)
	assert.ErrorIs(t, err, errors.ErrOutOfRange)
}

func TestReadTruncatesToAvailableSize(t *testing.T) {
	fs := formatAndMount(t, 100)

	ino, err := fs.CreateInode()
	require.NoError(t, err)

	_, err = fs.WriteToInode(ino, []byte("abcdefgh"), 0)
	require.NoError(t, err)

	buf := make([]byte, 100)
	n, err := fs.ReadFromInode(ino, buf, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "efgh", string(buf[:n]))
}

func TestPartialWritePreservesSurroundingBytes(t *testing.T) {
	fs := formatAndMount(t, 100)

	ino, err := fs.CreateInode()
	require.NoError(t, err)

	full := bytes.Repeat([]byte{0xAA}, blockfs.BlockSize)
	_, err = fs.WriteToInode(ino, full, 0)
	require.NoError(t, err)

	_, err = fs.WriteToInode(ino, []byte{0xBB, 0xBB}, 10)
	require.NoError(t, err)

	buf := make([]byte, blockfs.BlockSize)
	n, err := fs.ReadFromInode(ino, buf, 0)
	require.NoError(t, err)
	require.Equal(t, blockfs.BlockSize, n)

	assert.Equal(t, byte(0xAA), buf[9])
	assert.Equal(t, byte(0xBB), buf[10])
	assert.Equal(t, byte(0xBB), buf[11])
	assert.Equal(t, byte(0xAA), buf[12])
}

func TestStatOnFreeOrOutOfRangeInode(t *testing.T) {
	fs := formatAndMount(t, 100)
	info := fs.Info()

	_, err := fs.StatInode(info.TotalInodes)
	assert.ErrorIs(t, err, errors.ErrOutOfRange)

	_, err = fs.StatInode(0)
	assert.ErrorIs(t, err, errors.ErrInvalid)
}

func TestRemoveInodeIsIdempotent(t *testing.T) {
	fs := formatAndMount(t, 100)

	ino, err := fs.CreateInode()
	require.NoError(t, err)
	require.NoError(t, fs.RemoveInode(ino))

	assert.NoError(t, fs.RemoveInode(ino))
}
