package blockfs

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// CheckConsistency re-derives the block ownership Mount would compute and
// compares it against the live in-memory bitmaps, reporting every mismatch
// it finds rather than stopping at the first one. It is read-only: nothing
// is written to disk and nothing is repaired. This is a diagnostic, not the
// fsck/repair tooling spec.md explicitly excludes (see SPEC_FULL.md).
func (fs *FileSystem) CheckConsistency() error {
	var result *multierror.Error

	expectedInUse := make(map[uint32]bool, fs.super.dataBlockCount())

	for i := uint32(0); i < fs.super.InBlocks; i++ {
		blockNum := firstInodeBlock + i
		raw, err := fs.dev.Read(blockNum)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf(
				"inode block %d: %w", blockNum, err))
			continue
		}

		inodes, err := decodeInodeBlock(raw)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf(
				"inode block %d: %w", blockNum, err))
			continue
		}

		for j, inode := range inodes {
			inodeNum := i*InodesPerBlock + uint32(j)
			onDiskInUse := inode.inUse()
			bitmapSaysFree := fs.freeInodes.Get(int(inodeNum))
			if onDiskInUse == bitmapSaysFree {
				result = multierror.Append(result, fmt.Errorf(
					"inode %d: on-disk valid=%v but free-inode bitmap disagrees",
					inodeNum, onDiskInUse))
			}
			if !onDiskInUse {
				continue
			}

			for _, ptr := range inode.Direct {
				if ptr == 0 {
					continue
				}
				if err := fs.checkPointerInRange(ptr, inodeNum); err != nil {
					result = multierror.Append(result, err)
					continue
				}
				expectedInUse[ptr] = true
			}

			if inode.Indirect == 0 {
				continue
			}
			if err := fs.checkPointerInRange(inode.Indirect, inodeNum); err != nil {
				result = multierror.Append(result, err)
				continue
			}
			expectedInUse[inode.Indirect] = true

			raw, err := fs.dev.Read(inode.Indirect)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf(
					"inode %d indirect block %d: %w", inodeNum, inode.Indirect, err))
				continue
			}
			pointers, err := decodePointerBlock(raw)
			if err != nil {
				result = multierror.Append(result, err)
				continue
			}
			for _, ptr := range pointers {
				if ptr == 0 {
					continue
				}
				if err := fs.checkPointerInRange(ptr, inodeNum); err != nil {
					result = multierror.Append(result, err)
					continue
				}
				expectedInUse[ptr] = true
			}
		}
	}

	for i := 0; i < int(fs.super.dataBlockCount()); i++ {
		blockNum := fs.super.firstDataBlock() + uint32(i)
		wantInUse := expectedInUse[blockNum]
		bitmapSaysFree := fs.freeBlocks.Get(i)
		if wantInUse == bitmapSaysFree {
			result = multierror.Append(result, fmt.Errorf(
				"block %d: referenced=%v but free-block bitmap disagrees",
				blockNum, wantInUse))
		}
	}

	return result.ErrorOrNil()
}

func (fs *FileSystem) checkPointerInRange(ptr, inodeNum uint32) error {
	first := fs.super.firstDataBlock()
	if ptr < first || ptr >= fs.super.NBlocks {
		return fmt.Errorf(
			"inode %d: pointer %d out of data range [%d, %d)",
			inodeNum, ptr, first, fs.super.NBlocks)
	}
	return nil
}
