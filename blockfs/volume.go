// Volume manager: the superblock and inode-table layout, the in-memory
// free-inode and free-block bitmaps rebuilt at mount, the block allocator,
// and inode load/save.
package blockfs

import (
	"github.com/amityahav/blockfs/device"
	"github.com/amityahav/blockfs/errors"
	"github.com/boljen/go-bitmap"
)

// FileSystem is the in-memory handle returned by Mount. It owns the device
// for the duration of the mount; the two bitmaps are rebuilt from scratch on
// every mount and are never themselves persisted.
type FileSystem struct {
	dev        *device.Device
	super      Superblock
	freeInodes bitmap.Bitmap // 1 = free, indexed by inode number
	freeBlocks bitmap.Bitmap // 1 = free, indexed by (blockNum - firstDataBlock)
}

// Format zeroes the entire image and writes a fresh superblock. It refuses
// to run on a device that's already mounted.
func Format(dev *device.Device) error {
	if dev.Mounted() {
		return errors.ErrAlreadyMounted
	}

	var zero [BlockSize]byte
	for i := uint32(0); i < dev.TotalBlocks(); i++ {
		if err := dev.Write(i, zero); err != nil {
			return err
		}
	}

	inBlocks := computeInBlocks(dev.TotalBlocks())
	super := Superblock{
		Magic:       Magic,
		NBlocks:     dev.TotalBlocks(),
		InBlocks:    inBlocks,
		InodesCount: inBlocks * InodesPerBlock,
	}

	return dev.Write(superBlockNum, super.encode())
}

// Mount validates the superblock and rebuilds the free-inode and free-block
// bitmaps by scanning every inode and every indirect block it references.
// The scan is strictly read-only.
func Mount(dev *device.Device) (*FileSystem, error) {
	block0, err := dev.Read(superBlockNum)
	if err != nil {
		return nil, err
	}

	super, err := decodeSuperblock(block0)
	if err != nil {
		return nil, err
	}
	if super.Magic != Magic {
		return nil, errors.ErrBadMagic
	}

	fs := &FileSystem{
		dev:        dev,
		super:      super,
		freeInodes: bitmap.New(int(super.InodesCount)),
		freeBlocks: bitmap.New(int(super.dataBlockCount())),
	}

	// Start with every data block marked free, then clear bits as in-use
	// references are discovered below.
	for i := 0; i < int(super.dataBlockCount()); i++ {
		fs.freeBlocks.Set(i, true)
	}

	for i := uint32(0); i < super.InBlocks; i++ {
		blockNum := firstInodeBlock + i
		raw, err := dev.Read(blockNum)
		if err != nil {
			return nil, errors.ErrMountScan.WrapError(err)
		}

		inodes, err := decodeInodeBlock(raw)
		if err != nil {
			return nil, errors.ErrMountScan.WrapError(err)
		}

		for j, inode := range inodes {
			inodeNum := i*InodesPerBlock + uint32(j)
			fs.freeInodes.Set(int(inodeNum), !inode.inUse())
			if !inode.inUse() {
				continue
			}

			for _, ptr := range inode.Direct {
				fs.markBlockInUse(ptr)
			}
			if inode.Indirect != 0 {
				fs.markBlockInUse(inode.Indirect)

				indirectRaw, err := dev.Read(inode.Indirect)
				if err != nil {
					return nil, errors.ErrMountScan.WrapError(err)
				}
				pointers, err := decodePointerBlock(indirectRaw)
				if err != nil {
					return nil, errors.ErrMountScan.WrapError(err)
				}
				for _, ptr := range pointers {
					fs.markBlockInUse(ptr)
				}
			}
		}
	}

	dev.MarkMounted(true)
	return fs, nil
}

// markBlockInUse clears the free-block bit for an absolute block pointer.
// A zero pointer is the "unallocated" sentinel and is never marked.
func (fs *FileSystem) markBlockInUse(blockNum uint32) {
	if blockNum == 0 {
		return
	}
	fs.freeBlocks.Set(int(blockNum-fs.super.firstDataBlock()), false)
}

// Unmount releases the device's mounted flag. The FileSystem handle must
// not be used for inode operations afterward.
func (fs *FileSystem) Unmount() error {
	fs.dev.MarkMounted(false)
	return nil
}

// blockAlloc returns the lowest-indexed free data block, flips it to
// in-use, and returns its absolute block number.
func (fs *FileSystem) blockAlloc() (uint32, error) {
	total := int(fs.super.dataBlockCount())
	for i := 0; i < total; i++ {
		if fs.freeBlocks.Get(i) {
			fs.freeBlocks.Set(i, false)
			return fs.super.firstDataBlock() + uint32(i), nil
		}
	}
	return 0, errors.ErrNoSpace
}

// blockDealloc zeroes block blockNum on disk and returns it to the free
// pool.
func (fs *FileSystem) blockDealloc(blockNum uint32) error {
	var zero [BlockSize]byte
	if err := fs.dev.Write(blockNum, zero); err != nil {
		return err
	}
	fs.freeBlocks.Set(int(blockNum-fs.super.firstDataBlock()), true)
	return nil
}

// loadInode reads inodeNum's inode-table block and returns a copy of the
// inode alongside the full block image, so a caller that intends to modify
// and save doesn't need to re-read.
func (fs *FileSystem) loadInode(inodeNum uint32) (Inode, [BlockSize]byte, error) {
	raw, err := fs.dev.Read(inodeBlockNumber(inodeNum))
	if err != nil {
		return Inode{}, raw, err
	}

	inodes, err := decodeInodeBlock(raw)
	if err != nil {
		return Inode{}, raw, err
	}
	return inodes[inodeSlotInBlock(inodeNum)], raw, nil
}

// saveInode writes the modified inode back into its slot of blockImage and
// persists the block.
func (fs *FileSystem) saveInode(inode Inode, inodeNum uint32, blockImage [BlockSize]byte) error {
	if err := encodeInodeIntoBlock(inode, inodeNum, &blockImage); err != nil {
		return err
	}
	return fs.dev.Write(inodeBlockNumber(inodeNum), blockImage)
}

// FSInfo is aggregate, point-in-time statistics about a mounted volume,
// derived entirely from the in-memory bitmaps. It adds no on-disk state;
// see SPEC_FULL.md for why this supplements the base operations.
type FSInfo struct {
	TotalBlocks uint32
	FreeBlocks  uint32
	TotalInodes uint32
	FreeInodes  uint32
}

// Info reports aggregate statistics about the mounted volume.
func (fs *FileSystem) Info() FSInfo {
	info := FSInfo{
		TotalBlocks: fs.super.NBlocks,
		TotalInodes: fs.super.InodesCount,
	}
	for i := 0; i < int(fs.super.dataBlockCount()); i++ {
		if fs.freeBlocks.Get(i) {
			info.FreeBlocks++
		}
	}
	for i := 0; i < int(fs.super.InodesCount); i++ {
		if fs.freeInodes.Get(i) {
			info.FreeInodes++
		}
	}
	return info
}
