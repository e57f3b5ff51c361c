package blockfs

import (
	"bytes"
	"encoding/binary"

	"github.com/amityahav/blockfs/errors"
	"github.com/noxer/bytewriter"
)

// Superblock is block 0 of a formatted image. Only the first 16 bytes are
// significant; the rest of the block is reserved and must read as zero.
type Superblock struct {
	Magic       uint32
	NBlocks     uint32
	InBlocks    uint32
	InodesCount uint32
}

// dataBlockCount returns the number of data blocks available once the
// superblock and inode table have claimed their share of the image.
func (s Superblock) dataBlockCount() uint32 {
	return s.NBlocks - s.InBlocks - 1
}

// firstDataBlock returns the absolute block number of the first data block.
func (s Superblock) firstDataBlock() uint32 {
	return firstInodeBlock + s.InBlocks
}

// encode serializes the superblock into a full BlockSize-byte block image,
// following the teacher's pattern of writing a fixed packed record through
// a bytewriter-wrapped slice with encoding/binary.
func (s Superblock) encode() [BlockSize]byte {
	var block [BlockSize]byte
	writer := bytewriter.New(block[:])
	binary.Write(writer, binary.LittleEndian, s)
	return block
}

// decodeSuperblock reads the first 16 bytes of a block-0 image back into a
// Superblock.
func decodeSuperblock(block [BlockSize]byte) (Superblock, error) {
	var s Superblock
	reader := bytes.NewReader(block[:16])
	if err := binary.Read(reader, binary.LittleEndian, &s); err != nil {
		return Superblock{}, errors.ErrIoRead.WrapError(err)
	}
	return s, nil
}

// computeInBlocks applies the open-question resolution from spec.md §9:
// inblocks = nblocks / 10 using integer arithmetic, never a floating-point
// 0.1 * nblocks.
func computeInBlocks(nblocks uint32) uint32 {
	return nblocks / 10
}
