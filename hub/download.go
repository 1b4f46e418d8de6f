package hub

import (
	"context"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// lockedDownload fetches url into filePath, unless filePath is already present and forceDownload is false.
//
// The body is written to filePath+".downloading" and renamed into place once complete. A sibling
// filePath+".lock" serializes processes fetching the same resource.
func (s *Store) lockedDownload(ctx context.Context, url, filePath string, forceDownload bool) error {
	if exists(filePath) {
		if !forceDownload {
			return nil
		}
		err := os.Remove(filePath)
		if err != nil {
			return errors.Wrapf(err, "failed to remove %q while force-downloading %q", filePath, url)
		}
	}

	// Bail out early on a cancelled context.
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), DefaultDirCreationPerm); err != nil {
		return errors.Wrapf(err, "failed to create directory for file %q", filePath)
	}

	lockPath := filePath + ".lock"
	var mainErr error
	errLock := execOnFileLock(ctx, lockPath, func() {
		if exists(filePath) {
			// Fetched by another process while we waited.
			return
		}

		tmpPath := filePath + ".downloading"
		mainErr = s.download(ctx, url, tmpPath)
		if mainErr != nil {
			if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
				klog.Warningf("Failed removing temporary file %q: %v", tmpPath, err)
			}
			return
		}
		if err := os.Rename(tmpPath, filePath); err != nil {
			mainErr = errors.Wrapf(err, "failed to move downloaded file %q to %q", tmpPath, filePath)
			return
		}
		klog.V(1).Infof("downloaded %q to %q", url, filePath)

		// Present now: the lock file is no longer needed.
		if err := os.Remove(lockPath); err != nil {
			klog.Warningf("error removing lock file %q: %+v", lockPath, err)
		}
	})
	if mainErr != nil {
		return mainErr
	}
	if errLock != nil {
		return errors.WithMessagef(errLock, "while locking %q to download %q", lockPath, url)
	}
	return nil
}

// download url into a newly created file at path.
func (s *Store) download(ctx context.Context, url, path string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to create request for %q", url)
	}
	if s.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.authToken)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to download %q", url)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNotFound {
		return errors.Wrapf(ErrNotFound, "%q", url)
	}
	if resp.StatusCode/100 != 2 {
		return errors.Errorf("failed to download %q: %s", url, resp.Status)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating temporary file for download in %q", path)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = errors.Wrapf(closeErr, "failed to close temporary download file %q", path)
		}
	}()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return errors.Wrapf(err, "while downloading %q to %q", url, path)
	}
	return nil
}

// execOnFileLock runs fn while holding an exclusive lock on lockPath, creating the file if needed.
// A held lock is polled every 1 to 2 seconds until acquired or ctx is done. lockPath is left on disk.
func execOnFileLock(ctx context.Context, lockPath string, fn func()) (err error) {
	fileLock := flock.New(lockPath)
	for {
		locked, err := fileLock.TryLock()
		if err != nil {
			return errors.Wrapf(err, "while trying to lock %q", lockPath)
		}
		if locked {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond * time.Duration(1000+rand.IntN(1000))):
		}
	}

	// Unlock even if fn panics.
	defer func() {
		unlockErr := fileLock.Unlock()
		if unlockErr != nil {
			if err == nil {
				err = errors.Wrapf(unlockErr, "unlocking file %q", lockPath)
			} else {
				klog.Errorf("Error unlocking file %q: %v", lockPath, unlockErr)
			}
		}
	}()

	fn()
	return
}
