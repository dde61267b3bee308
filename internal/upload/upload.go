// Package upload turns picked files into attachment descriptors. The default
// Simulated uploader performs no transfer; it waits and then reports success.
package upload

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"laundrychat/internal/chat"
	"laundrychat/internal/logging"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
)

// ErrNotRegularFile is returned for directories and other non-files.
var ErrNotRegularFile = errors.New("not a regular file")

// Describe stats path and sniffs its content type.
func Describe(path string) (chat.LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return chat.LocalFile{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return chat.LocalFile{}, fmt.Errorf("%s: %w", path, ErrNotRegularFile)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return chat.LocalFile{}, fmt.Errorf("failed to detect type of %s: %w", path, err)
	}

	return chat.LocalFile{
		Name: filepath.Base(path),
		Path: path,
		Type: baseType(mt.String()),
		Size: info.Size(),
	}, nil
}

// baseType drops parameters such as "; charset=utf-8".
func baseType(contentType string) string {
	t, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return contentType
	}
	return t
}

// DescribeAll describes every path concurrently, preserving order. The first
// failure cancels the rest.
func DescribeAll(ctx context.Context, paths []string) ([]chat.LocalFile, error) {
	files := make([]chat.LocalFile, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := Describe(p)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// Simulated waits Delay and returns a descriptor pointing at the local file.
type Simulated struct {
	Delay time.Duration
}

// Upload implements chat.Uploader.
func (s Simulated) Upload(ctx context.Context, f chat.LocalFile) (chat.Attachment, error) {
	logging.UploadDebug("simulating upload of %s (%d bytes)", f.Name, f.Size)

	timer := time.NewTimer(s.Delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return chat.Attachment{}, ctx.Err()
	}

	return chat.Attachment{
		Name: f.Name,
		URL:  f.URL(),
		Type: f.Type,
		Size: f.Size,
	}, nil
}
