// Package mmap maps files read-only into memory.
//
// The local blob store uses it to serve image blobs without copying them
// through an intermediate buffer.
//
//	f, err := mmap.Open(path)
//	if err != nil { ... }
//	defer f.Close()
//	data := f.Bytes()
//
// Unix uses mmap(2); Windows uses CreateFileMapping/MapViewOfFile.
// Callers must not touch Bytes() after Close returns.
package mmap
