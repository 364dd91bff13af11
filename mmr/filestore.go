package mmr

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
)

// FileStore is a NodeStore over a single append only flat file of fixed
// width digest records. The record width is the digest width of the hasher
// the mmr is built with and is fixed when the store is opened.
//
// Appends are buffered; call Sync before handing the file to anything else,
// and Close when done.
type FileStore struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	width  int
	size   uint64
}

// OpenFileStore opens or creates the store at path. digestSize must match
// the width of every record already in the file; a file whose length is not
// a whole number of records is rejected.
func OpenFileStore(path string, digestSize int) (*FileStore, error) {
	if digestSize <= 0 {
		return nil, fmt.Errorf("%w: digest size %d", ErrCorruptedStore, digestSize)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.Size()%int64(digestSize) != 0 {
		file.Close()
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptedStore, info.Size()%int64(digestSize))
	}

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		file.Close()
		return nil, err
	}

	return &FileStore{
		file:   file,
		writer: bufio.NewWriter(file),
		width:  digestSize,
		size:   uint64(info.Size()) / uint64(digestSize),
	}, nil
}

func (s *FileStore) Append(value []byte) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(value) != s.width {
		return 0, fmt.Errorf("%w: value width %d, store width %d", ErrCorruptedStore, len(value), s.width)
	}
	if _, err := s.writer.Write(value); err != nil {
		return 0, err
	}
	i := s.size
	s.size++
	return i, nil
}

func (s *FileStore) Get(i uint64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i >= s.size {
		return nil, fmt.Errorf("%w: index %d", ErrNotFound, i)
	}
	// recent appends may still be buffered
	if err := s.writer.Flush(); err != nil {
		return nil, err
	}

	value := make([]byte, s.width)
	if _, err := s.file.ReadAt(value, int64(i)*int64(s.width)); err != nil {
		return nil, err
	}
	return value, nil
}

func (s *FileStore) Len() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Sync flushes buffered appends to disk.
func (s *FileStore) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writer.Flush(); err != nil {
		return err
	}
	return s.file.Sync()
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writer.Flush(); err != nil {
		return err
	}
	if err := s.file.Sync(); err != nil {
		return err
	}
	return s.file.Close()
}
