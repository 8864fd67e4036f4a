package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

const photoContentType = "image/jpeg"

// BlobObjectName builds photos/<deviceId>_<yyyy-MM-dd_HH-mm-ss_ff>.jpg, ff being hundredths.
func BlobObjectName(deviceID string, t time.Time) string {
	return fmt.Sprintf("photos/%s_%s_%02d.jpg", deviceID, t.Format("2006-01-02_15-04-05"), t.Nanosecond()/int(10*time.Millisecond))
}

// PhotoArchiver copies captured photos to blob storage.
type PhotoArchiver struct {
	blob     BlobStore
	local    Storage
	deviceID string
	now      func() time.Time
	log      *logrus.Logger
}

func NewPhotoArchiver(blob BlobStore, local Storage, deviceID string, log *logrus.Logger) *PhotoArchiver {
	return &PhotoArchiver{
		blob:     blob,
		local:    local,
		deviceID: deviceID,
		now:      time.Now,
		log:      log,
	}
}

// Archive uploads the photo and, when deleteLocal is set, removes the local copy after
// a successful upload. It returns the blob URI.
func (a *PhotoArchiver) Archive(ctx context.Context, photoPath string, deleteLocal bool) (string, error) {
	objectName := BlobObjectName(a.deviceID, a.now())

	uri, err := a.blob.UploadFile(ctx, photoPath, objectName, photoContentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", filepath.Base(photoPath), err)
	}

	a.log.WithFields(logrus.Fields{"object": objectName, "uri": uri}).Info("photo uploaded")

	if deleteLocal {
		if err := a.local.DeleteFile(photoPath); err != nil {
			a.log.WithError(err).WithField("path", photoPath).Warn("failed to delete local photo after upload")
		}
	}

	return uri, nil
}
