// This file enumerates the error kinds a blockfs volume can return. Each one
// corresponds to a named failure mode in the design: device-level I/O
// failures, volume-manager failures during format/mount, and inode-engine
// failures during create/remove/stat/read/write.

package errors

// Device layer.
const ErrIoOpen = FSError("failed to open backing image")
const ErrIoRead = FSError("failed to read block from device")
const ErrIoWrite = FSError("failed to write block to device")
const ErrIoRange = FSError("block number out of range")
const ErrIoTruncate = FSError("failed to extend image to requested size")

// Volume manager layer.
const ErrAlreadyMounted = FSError("device is already mounted")
const ErrBadMagic = FSError("superblock magic number is invalid")
const ErrMountScan = FSError("failed scanning inode table while mounting")

// Inode I/O engine layer.
const ErrNoInode = FSError("no free inode available")
const ErrNoSpace = FSError("no free data block available")
const ErrOutOfRange = FSError("inode number or read offset out of range")
const ErrInvalid = FSError("inode is not in use")
