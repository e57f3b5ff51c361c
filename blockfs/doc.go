/*
Package blockfs implements a small, flat-namespace, inode-based file system
on top of an emulated block device (package device).

There are no directories, permissions, timestamps, or symlinks: a file is
just an inode number plus a byte stream, reached through direct and
single-indirect block pointers. Format and Mount establish a volume;
FileSystem's Create/Remove/Stat/Read/Write methods are the only way to touch
inode data afterward.
*/
package blockfs
