package blockfs

import "github.com/amityahav/blockfs/device"

// On-disk layout constants. These are part of the compatibility surface: any
// image whose superblock matches the formula in Format is a valid volume.
const (
	// BlockSize is the fixed block size in bytes, inherited from the device
	// layer.
	BlockSize = device.BlockSize

	// Magic identifies a formatted blockfs image.
	Magic = 0xF0F03410

	// InodeSize is the packed, on-disk size of a single inode record in
	// bytes: one u32 valid flag, one u32 size, five u32 direct pointers, one
	// u32 indirect pointer.
	InodeSize = 32

	// InodesPerBlock is the number of inode records packed into one block.
	InodesPerBlock = BlockSize / InodeSize

	// PointersPerInode is the number of direct block pointers an inode
	// carries.
	PointersPerInode = 5

	// PointersPerBlock is the number of u32 block pointers that fit in a
	// single indirect block.
	PointersPerBlock = BlockSize / 4

	// MaxAddressableBytes is the largest byte offset a file's data can span:
	// direct pointers plus the one level of indirection.
	MaxAddressableBytes = (PointersPerInode + PointersPerBlock) * BlockSize

	// superBlockNum is the fixed block number of the superblock.
	superBlockNum = 0

	// firstInodeBlock is the fixed block number of the first inode-table
	// block.
	firstInodeBlock = 1
)
