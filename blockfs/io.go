package blockfs

import (
	"github.com/amityahav/blockfs/errors"
)

// CreateInode allocates the lowest-numbered free inode, marks it in use,
// and persists that before returning — a crash immediately after create
// still leaves the inode discoverable on the next mount.
func (fs *FileSystem) CreateInode() (uint32, error) {
	total := int(fs.super.InodesCount)
	for i := 0; i < total; i++ {
		if !fs.freeInodes.Get(i) {
			continue
		}

		inodeNum := uint32(i)
		inode, block, err := fs.loadInode(inodeNum)
		if err != nil {
			return 0, err
		}

		inode.Valid = 1
		if err := fs.saveInode(inode, inodeNum, block); err != nil {
			return 0, err
		}

		fs.freeInodes.Set(i, false)
		return inodeNum, nil
	}
	return 0, errors.ErrNoInode
}

// checkInodeRange rejects an inode number that can't exist on this volume.
func (fs *FileSystem) checkInodeRange(inodeNum uint32) error {
	if inodeNum >= fs.super.InodesCount {
		return errors.ErrOutOfRange
	}
	return nil
}

// RemoveInode releases every block the inode references and frees the
// inode itself. It is idempotent: removing an already-free inode succeeds
// without touching the disk.
func (fs *FileSystem) RemoveInode(inodeNum uint32) error {
	if err := fs.checkInodeRange(inodeNum); err != nil {
		return err
	}
	if fs.freeInodes.Get(int(inodeNum)) {
		return nil
	}

	inode, block, err := fs.loadInode(inodeNum)
	if err != nil {
		return err
	}

	for i, ptr := range inode.Direct {
		if ptr == 0 {
			continue
		}
		if err := fs.blockDealloc(ptr); err != nil {
			return err
		}
		inode.Direct[i] = 0
	}

	if inode.Indirect != 0 {
		indirectRaw, err := fs.dev.Read(inode.Indirect)
		if err != nil {
			return err
		}
		pointers, err := decodePointerBlock(indirectRaw)
		if err != nil {
			return err
		}
		for _, ptr := range pointers {
			if ptr == 0 {
				continue
			}
			if err := fs.blockDealloc(ptr); err != nil {
				return err
			}
		}
		if err := fs.blockDealloc(inode.Indirect); err != nil {
			return err
		}
		inode.Indirect = 0
	}

	inode.Size = 0
	inode.Valid = 0
	if err := fs.saveInode(inode, inodeNum, block); err != nil {
		return err
	}
	fs.freeInodes.Set(int(inodeNum), true)
	return nil
}

// StatInode returns the logical byte size of an in-use inode.
func (fs *FileSystem) StatInode(inodeNum uint32) (uint32, error) {
	if err := fs.checkInodeRange(inodeNum); err != nil {
		return 0, err
	}
	if fs.freeInodes.Get(int(inodeNum)) {
		return 0, errors.ErrInvalid
	}

	inode, _, err := fs.loadInode(inodeNum)
	if err != nil {
		return 0, err
	}
	return inode.Size, nil
}

// blockRange resolves the logical [start, end] block indices for a byte range
// [offset, offset+length). end is (offset+length)/BlockSize, so when the range
// ends exactly on a block boundary it is one past the last block the range
// touches; callers stop once no bytes remain.
func blockRange(offset, length uint32) (start, end uint32) {
	start = offset / BlockSize
	end = (offset + length) / BlockSize
	return start, end
}

// pointerSlot locates the pointer for logical block c within an inode:
// direct for the first PointersPerInode blocks, indirect beyond that.
// isIndirect reports which; indirectIndex is only meaningful when true.
func pointerSlot(c uint32) (isIndirect bool, indirectIndex uint32) {
	if c < PointersPerInode {
		return false, 0
	}
	return true, c - PointersPerInode
}

// ReadFromInode copies up to len(buf) bytes from inodeNum starting at
// offset, returning the number of bytes actually copied. It stops early —
// without error — if the inode's data ends before len(buf) bytes have been
// read, or if it encounters an unallocated (sparse) block pointer; per
// spec.md §9 this module does not synthesize zero-fill for sparse holes.
func (fs *FileSystem) ReadFromInode(inodeNum uint32, buf []byte, offset uint32) (int, error) {
	if err := fs.checkInodeRange(inodeNum); err != nil {
		return 0, err
	}
	if fs.freeInodes.Get(int(inodeNum)) {
		return 0, errors.ErrInvalid
	}

	inode, _, err := fs.loadInode(inodeNum)
	if err != nil {
		return 0, err
	}
	if offset >= inode.Size {
		return 0, errors.ErrOutOfRange
	}

	length := uint32(len(buf))
	if offset+length > inode.Size {
		length = inode.Size - offset
	}

	start, end := blockRange(offset, length)

	var indirect [PointersPerBlock]uint32
	indirectLoaded := false
	n := uint32(0)
	remaining := length

	for c := start; c <= end && remaining > 0; c++ {
		var ptr uint32
		isIndirect, idx := pointerSlot(c)
		if !isIndirect {
			ptr = inode.Direct[c]
		} else {
			if idx >= PointersPerBlock {
				break
			}
			if inode.Indirect == 0 {
				break
			}
			if !indirectLoaded {
				raw, err := fs.dev.Read(inode.Indirect)
				if err != nil {
					return int(n), err
				}
				indirect, err = decodePointerBlock(raw)
				if err != nil {
					return int(n), err
				}
				indirectLoaded = true
			}
			ptr = indirect[idx]
		}

		if ptr == 0 {
			break
		}

		block, err := fs.dev.Read(ptr)
		if err != nil {
			return int(n), err
		}

		off := uint32(0)
		if c == start {
			off = offset % BlockSize
		}
		s := BlockSize - off
		if s > remaining {
			s = remaining
		}

		copy(buf[n:n+s], block[off:off+s])
		n += s
		remaining -= s
	}

	return int(n), nil
}

// WriteToInode writes len(buf) bytes to inodeNum starting at offset,
// allocating new data blocks (and, if needed, a new indirect block) on
// demand. If allocation runs out of space partway through, the write stops
// and returns the bytes written so far rather than failing outright;
// metadata for the blocks that did succeed is still persisted.
func (fs *FileSystem) WriteToInode(inodeNum uint32, buf []byte, offset uint32) (int, error) {
	if err := fs.checkInodeRange(inodeNum); err != nil {
		return 0, err
	}
	if fs.freeInodes.Get(int(inodeNum)) {
		return 0, errors.ErrInvalid
	}

	inode, block, err := fs.loadInode(inodeNum)
	if err != nil {
		return 0, err
	}

	length := uint32(len(buf))
	start, end := blockRange(offset, length)

	var indirect [PointersPerBlock]uint32
	indirectLoaded := false
	indirectDirty := false
	inodeDirty := false

	n := uint32(0)
	remaining := length

	for c := start; c <= end && remaining > 0; c++ {
		isIndirect, idx := pointerSlot(c)
		if isIndirect && idx >= PointersPerBlock {
			break
		}

		var ptr uint32
		if isIndirect {
			if inode.Indirect == 0 {
				newIndirectBlock, err := fs.blockAlloc()
				if err != nil {
					break
				}
				inode.Indirect = newIndirectBlock
				inodeDirty = true
				indirect = [PointersPerBlock]uint32{}
				indirectLoaded = true
				indirectDirty = true
			} else if !indirectLoaded {
				raw, err := fs.dev.Read(inode.Indirect)
				if err != nil {
					return int(n), err
				}
				indirect, err = decodePointerBlock(raw)
				if err != nil {
					return int(n), err
				}
				indirectLoaded = true
			}
			ptr = indirect[idx]
		} else {
			ptr = inode.Direct[c]
		}

		if ptr == 0 {
			newBlock, err := fs.blockAlloc()
			if err != nil {
				break
			}
			ptr = newBlock
			if isIndirect {
				indirect[idx] = ptr
				indirectDirty = true
			} else {
				inode.Direct[c] = ptr
				inodeDirty = true
			}
		}

		off := uint32(0)
		if c == start {
			off = offset % BlockSize
		}
		s := BlockSize - off
		if s > remaining {
			s = remaining
		}

		if off > 0 || s < BlockSize {
			current, err := fs.dev.Read(ptr)
			if err != nil {
				return int(n), err
			}
			copy(current[off:off+s], buf[n:n+s])
			if err := fs.dev.Write(ptr, current); err != nil {
				return int(n), err
			}
		} else {
			var full [BlockSize]byte
			copy(full[:], buf[n:n+s])
			if err := fs.dev.Write(ptr, full); err != nil {
				return int(n), err
			}
		}

		n += s
		remaining -= s
	}

	if indirectDirty {
		raw := encodePointerBlock(indirect)
		if err := fs.dev.Write(inode.Indirect, raw); err != nil {
			return int(n), err
		}
	}

	newSize := inode.Size
	if offset+n > newSize {
		newSize = offset + n
	}
	if newSize != inode.Size {
		inode.Size = newSize
		inodeDirty = true
	}

	if inodeDirty {
		if err := fs.saveInode(inode, inodeNum, block); err != nil {
			return int(n), err
		}
	}

	return int(n), nil
}
