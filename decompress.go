package genowindow

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"compress/zlib"
	"io"

	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
	"go.uber.org/multierr"
)

type DataType byte

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeZ
	DataTypeBZip2
)

var byteCodeSigs = map[DataType][]byte{
	DataTypeGzip:  {0x1f, 0x8b, 0x08},
	DataTypeZip:   {0x50, 0x4b, 0x03, 0x04},
	DataTypeXZ:    {0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
	DataTypeZ:     {0x1f, 0x9d},
	DataTypeBZip2: {0x42, 0x5a, 0x68},
}

// DetectDataType matches the first bytes of a stream against known
// compression signatures. Byte code signatures from
// https://stackoverflow.com/a/19127748/199475
func DetectDataType(head []byte) DataType {
Outer:
	for dt, sig := range byteCodeSigs {
		if len(head) < len(sig) {
			continue
		}
		for position := range sig {
			if head[position] != sig[position] {
				continue Outer
			}
		}
		return dt
	}

	return DataTypeNoCompression
}

// MaybeDecompress peeks at r and, if it is compressed in a recognized format,
// returns a decompressing reader. Closing the result closes r when r is an
// io.Closer.
func MaybeDecompress(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	head, err := br.Peek(6)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}

	var closer io.Closer
	if c, ok := r.(io.Closer); ok {
		closer = c
	}

	switch DetectDataType(head) {
	case DataTypeGzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		return &stackedReadCloser{Reader: gz, closers: []io.Closer{gz, closer}}, nil
	case DataTypeZip:
		return &stackedReadCloser{Reader: zipstream.NewReader(br), closers: []io.Closer{closer}}, nil
	case DataTypeBZip2:
		return &stackedReadCloser{Reader: bzip2.NewReader(br), closers: []io.Closer{closer}}, nil
	case DataTypeXZ:
		reader, err := xz.NewReader(br, 0)
		if err != nil {
			return nil, err
		}
		return &stackedReadCloser{Reader: reader, closers: []io.Closer{closer}}, nil
	case DataTypeZ:
		zr, err := zlib.NewReader(br)
		if err != nil {
			return nil, err
		}
		return &stackedReadCloser{Reader: zr, closers: []io.Closer{zr, closer}}, nil
	}

	// No data type detected. For now, we assume this is uncompressed.
	return &stackedReadCloser{Reader: br, closers: []io.Closer{closer}}, nil
}

// stackedReadCloser closes the decompressor and then the underlying stream.
type stackedReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedReadCloser) Close() error {
	var err error
	for _, c := range s.closers {
		if c != nil {
			err = multierr.Append(err, c.Close())
		}
	}
	return err
}
