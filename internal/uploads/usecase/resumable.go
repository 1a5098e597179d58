package usecase

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/castforge/studio-backend/internal/models"
	"github.com/castforge/studio-backend/internal/pipeline"
)

const infoSuffix = ".info"

// resumableInfo is the metadata sidecar the external upload server writes
// next to each assembled file.
type resumableInfo struct {
	ID       string            `json:"id"`
	Size     int64             `json:"size"`
	Metadata map[string]string `json:"metadata"`
}

// finalizeResumable locates the assembled file, validates its size and
// moves it under the canonical raw key inside the local storage dir. The
// upload/track rows are untouched on any error path.
func (u *uploadUC) finalizeResumable(ctx context.Context, upload *models.Upload, track *models.Track, rawKey string, input *models.CompleteUploadInput) (int64, error) {
	destPath := filepath.Join(u.cfg.Storage.Dir, filepath.FromSlash(rawKey))

	srcPath, err := u.locateResumableFile(ctx, upload.UploadID)
	if err != nil {
		// An earlier attempt can move the bytes and then fail to commit;
		// the file already sitting at the raw key is that attempt's work.
		if info, statErr := os.Stat(destPath); statErr == nil {
			if expected := expectedBytes(upload, input); expected > 0 && info.Size() != expected {
				return 0, errors.Wrapf(pipeline.ErrSizeMismatch, "expected %d bytes, file at raw key has %d", expected, info.Size())
			}
			u.logger.Infof("recovered assembled bytes for upload %s at %s", upload.UploadID, rawKey)
			return info.Size(), nil
		}
		return 0, err
	}

	info, err := os.Stat(srcPath)
	if err != nil {
		return 0, errors.Wrapf(pipeline.ErrTransportNotFound, "assembled file vanished: %v", err)
	}
	if expected := expectedBytes(upload, input); expected > 0 && info.Size() != expected {
		return 0, errors.Wrapf(pipeline.ErrSizeMismatch, "expected %d bytes, assembled file has %d", expected, info.Size())
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return 0, err
	}
	if err := moveFile(srcPath, destPath); err != nil {
		return 0, err
	}
	// Sidecar cleanup is best-effort; a stale .info file only costs a scan.
	if err := os.Remove(srcPath + infoSuffix); err != nil && !os.IsNotExist(err) {
		u.logger.Warnf("finalizeResumable - sidecar cleanup: %v", err)
	}

	return info.Size(), nil
}

// locateResumableFile resolves the assembled file by the mapped external
// session id, falling back to a metadata scan when the creation webhook
// was never delivered.
func (u *uploadUC) locateResumableFile(ctx context.Context, uploadID uuid.UUID) (string, error) {
	externalID, err := u.uploadRepo.GetExternalSession(ctx, uploadID)
	if err != nil {
		return "", err
	}
	if externalID != "" {
		path := filepath.Join(u.cfg.Resumable.DataDir, externalID)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		u.logger.Warnf("mapped session %s for upload %s has no file, scanning metadata", externalID, uploadID)
	}
	return u.scanByMetadata(uploadID)
}

func (u *uploadUC) scanByMetadata(uploadID uuid.UUID) (string, error) {
	sidecars, err := filepath.Glob(filepath.Join(u.cfg.Resumable.DataDir, "*"+infoSuffix))
	if err != nil {
		return "", err
	}
	for _, sidecar := range sidecars {
		raw, err := os.ReadFile(sidecar)
		if err != nil {
			continue
		}
		var info resumableInfo
		if err := json.Unmarshal(raw, &info); err != nil {
			continue
		}
		if info.Metadata["upload_id"] != uploadID.String() {
			continue
		}
		path := strings.TrimSuffix(sidecar, infoSuffix)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", errors.Wrapf(pipeline.ErrTransportNotFound, "no assembled file for upload %s", uploadID)
}

// moveFile renames, falling back to copy+remove for cross-device moves.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
