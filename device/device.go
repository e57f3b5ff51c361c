// Package device implements the raw block device the rest of blockfs is
// built on: a fixed-size image addressed in whole BlockSize units, with no
// file-system awareness of its own.
package device

import (
	"fmt"
	"io"
	"os"

	"github.com/amityahav/blockfs/errors"
)

// BlockSize is the fixed size, in bytes, of every block on the device. It is
// part of the on-disk contract and is never configurable per-image.
const BlockSize = 4096

// Device is a thin, positional wrapper around a seekable stream. It performs
// no buffering and no journaling; every Read/Write is a seek followed by a
// single I/O against the backing stream.
//
// Production callers get a Device from Open, which is backed by a real
// file. Tests may build one directly over an in-memory stream (see
// NewFromStream) to avoid touching the filesystem.
type Device struct {
	stream  io.ReadWriteSeeker
	nblocks uint32
	mounted bool
}

// Open opens or creates the image at path and extends it to exactly
// nblocks * BlockSize bytes. A freshly created image reads back as all
// zeroes.
func Open(path string, nblocks uint32) (*Device, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.ErrIoOpen.WrapError(err)
	}

	dev, err := NewFromStream(file, nblocks)
	if err != nil {
		file.Close()
		return nil, err
	}

	if err := file.Truncate(int64(nblocks) * BlockSize); err != nil {
		file.Close()
		return nil, errors.ErrIoTruncate.WrapError(err)
	}
	return dev, nil
}

// NewFromStream wraps an already-sized stream as a Device without touching
// the filesystem. stream is expected to hold nblocks*BlockSize bytes;
// NewFromStream neither checks nor resizes it (Open extends its file to that
// size itself, right after this call).
func NewFromStream(stream io.ReadWriteSeeker, nblocks uint32) (*Device, error) {
	return &Device{stream: stream, nblocks: nblocks}, nil
}

// TotalBlocks returns the number of blocks the device was opened with.
func (dev *Device) TotalBlocks() uint32 {
	return dev.nblocks
}

// Mounted reports whether the volume manager has marked this device as
// mounted.
func (dev *Device) Mounted() bool {
	return dev.mounted
}

// MarkMounted sets or clears the mounted flag. It is exposed for the volume
// manager; policies such as refusing to format a mounted device are enforced
// by that caller, not by Device itself.
func (dev *Device) MarkMounted(mounted bool) {
	dev.mounted = mounted
}

func (dev *Device) checkRange(blocknum uint32) error {
	if blocknum >= dev.nblocks {
		return errors.ErrIoRange.WithMessage(fmt.Sprintf(
			"block %d not in range [0, %d)", blocknum, dev.nblocks))
	}
	return nil
}

func (dev *Device) seekToBlock(blocknum uint32) error {
	offset := int64(blocknum) * BlockSize
	_, err := dev.stream.Seek(offset, io.SeekStart)
	return err
}

// Read reads one BlockSize-byte block from the device.
func (dev *Device) Read(blocknum uint32) ([BlockSize]byte, error) {
	var buf [BlockSize]byte

	if err := dev.checkRange(blocknum); err != nil {
		return buf, err
	}
	if err := dev.seekToBlock(blocknum); err != nil {
		return buf, errors.ErrIoRead.WrapError(err)
	}

	if _, err := io.ReadFull(dev.stream, buf[:]); err != nil && err != io.EOF {
		return buf, errors.ErrIoRead.WrapError(err)
	}
	return buf, nil
}

// Write writes one BlockSize-byte block to the device.
func (dev *Device) Write(blocknum uint32, buf [BlockSize]byte) error {
	if err := dev.checkRange(blocknum); err != nil {
		return err
	}
	if err := dev.seekToBlock(blocknum); err != nil {
		return errors.ErrIoWrite.WrapError(err)
	}

	if _, err := dev.stream.Write(buf[:]); err != nil {
		return errors.ErrIoWrite.WrapError(err)
	}
	return nil
}

// Sync flushes the backing stream to its underlying storage, if it supports
// that. The device does not fsync automatically on every write; this is an
// opt-in durability point a caller may invoke between writes it cares
// about. Streams with no such notion of their own (e.g. an in-memory test
// buffer) treat this as a no-op.
func (dev *Device) Sync() error {
	type syncer interface {
		Sync() error
	}
	if s, ok := dev.stream.(syncer); ok {
		if err := s.Sync(); err != nil {
			return errors.ErrIoWrite.WrapError(err)
		}
	}
	return nil
}

// Close releases the backing stream, if it's closeable.
func (dev *Device) Close() error {
	if closer, ok := dev.stream.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
