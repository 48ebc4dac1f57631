package genowindow

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

type ReaderAtCloser interface {
	io.ReaderAt
	io.Closer
}

// GSReaderAtCloser decorates a Google Storage object handle with ReadAt. Each
// ReadAt is one ranged request.
type GSReaderAtCloser struct {
	*storage.ObjectHandle
	Context context.Context
}

// ReadAt satisfies io.ReaderAt.
func (o GSReaderAtCloser) ReadAt(p []byte, offset int64) (n int, err error) {
	rdr, err := o.NewRangeReader(o.Context, offset, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer rdr.Close()

	n, err = io.ReadFull(rdr, p)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return n, err
}

// Close satisfies io.Closer. The object handle holds no connection.
func (o GSReaderAtCloser) Close() error {
	return nil
}

// ExpandHome replaces a leading ~/ with the current user's home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	usr, err := user.Current()
	if err != nil {
		return path, pfx.Err(err)
	}
	return filepath.Join(usr.HomeDir, path[2:]), nil
}

// splitGSPath splits gs://bucket/path into its bucket and object names.
func splitGSPath(path string) (bucket, object string, err error) {
	pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
	if len(pathParts) != 2 || pathParts[0] == "" || pathParts[1] == "" {
		return "", "", fmt.Errorf("Tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
	}
	return pathParts[0], pathParts[1], nil
}

func gsObject(path string, client *storage.Client) (*storage.ObjectHandle, error) {
	if client == nil {
		return nil, fmt.Errorf("%s: a storage client is required for gs:// paths", path)
	}
	bucketName, pathName, err := splitGSPath(path)
	if err != nil {
		return nil, err
	}
	return client.Bucket(bucketName).Object(pathName), nil
}

// OpenReaderAt opens a local path or gs:// object for random access and
// returns its size. The data is read as stored; compressed files cannot be
// read at random.
func OpenReaderAt(ctx context.Context, path string, client *storage.Client) (ReaderAtCloser, int64, error) {
	if strings.HasPrefix(path, "gs://") {
		handle, err := gsObject(path, client)
		if err != nil {
			return nil, 0, pfx.Err(err)
		}

		// Make a hard call to get the filesize
		attrs, err := handle.Attrs(ctx)
		if err != nil {
			return nil, 0, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}

		return GSReaderAtCloser{ObjectHandle: handle, Context: ctx}, attrs.Size, nil
	}

	path, err := ExpandHome(path)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, pfx.Err(err)
	}
	fstat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, pfx.Err(err)
	}
	return f, fstat.Size(), nil
}

// Open opens a local path or gs:// object for streaming, transparently
// decompressing it.
func Open(ctx context.Context, path string, client *storage.Client) (io.ReadCloser, error) {
	var raw io.ReadCloser
	if strings.HasPrefix(path, "gs://") {
		handle, err := gsObject(path, client)
		if err != nil {
			return nil, pfx.Err(err)
		}
		if raw, err = handle.NewReader(ctx); err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}
	} else {
		path, err := ExpandHome(path)
		if err != nil {
			return nil, err
		}
		if raw, err = os.Open(path); err != nil {
			return nil, pfx.Err(err)
		}
	}

	rc, err := MaybeDecompress(raw)
	if err != nil {
		raw.Close()
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}
	return rc, nil
}
