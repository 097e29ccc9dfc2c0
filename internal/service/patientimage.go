package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"strings"
	"time"

	"dentalclinic/internal/model"
	"dentalclinic/internal/repository"
	"dentalclinic/internal/storage"
)

// presignExpiry bounds how long a download link stays valid.
const presignExpiry = 15 * time.Minute

var (
	errImageNotFound        = notFound("IMAGE_NOT_FOUND", "patient image not found")
	errUnsupportedMediaType = invalid("UNSUPPORTED_MEDIA_TYPE", "only image and PDF uploads are accepted")
)

// UploadImageRequest carries the form fields sent alongside the file.
type UploadImageRequest struct {
	ImageType    model.ImageType `json:"image_type" form:"image_type" validate:"required"`
	Description  string          `json:"description" form:"description" validate:"max=500"`
	CapturedDate string          `json:"captured_date" form:"captured_date" validate:"omitempty,datetime=2006-01-02"`
}

// ImageUpload is the file part of an upload.
type ImageUpload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// PatientImageService stores clinical images in object storage and tracks them in the database.
type PatientImageService interface {
	// Upload streams the file to storage, then saves metadata. A failed metadata write
	// removes the stored object again.
	Upload(ctx context.Context, patientCode string, file ImageUpload, req UploadImageRequest, by string) (*model.PatientImage, error)
	List(ctx context.Context, patientCode string) ([]model.PatientImage, error)
	// Get returns the image with a short-lived download URL.
	Get(ctx context.Context, id int) (*model.PatientImage, error)
	// Download opens the stored object. Callers must close the reader.
	Download(ctx context.Context, id int) (io.ReadCloser, *model.PatientImage, error)
	// Delete removes the object first and then its metadata row.
	Delete(ctx context.Context, id int) error
}

type patientImageService struct {
	store    storage.Storage
	images   repository.PatientImageRepository
	patients repository.PatientRepository
	clock    clock
}

func NewPatientImageService(store storage.Storage, images repository.PatientImageRepository, patients repository.PatientRepository, loc *time.Location) PatientImageService {
	return &patientImageService{store: store, images: images, patients: patients, clock: newClock(loc)}
}

func (s *patientImageService) Upload(ctx context.Context, patientCode string, file ImageUpload, req UploadImageRequest, by string) (*model.PatientImage, error) {
	if file.Reader == nil {
		return nil, ErrReaderNil
	}
	req.ImageType = model.ImageType(strings.ToUpper(strings.TrimSpace(string(req.ImageType))))
	if err := check(req); err != nil {
		return nil, err
	}
	if !req.ImageType.Valid() {
		return nil, invalid("INVALID_IMAGE_TYPE", "unknown image type "+string(req.ImageType))
	}
	contentType, ok := acceptedMediaType(file.ContentType)
	if !ok {
		return nil, errUnsupportedMediaType
	}

	p, err := s.patients.FindByCode(ctx, patientCode)
	if err != nil {
		return nil, mapNotFound(err, errPatientNotFound)
	}
	if !p.IsActive {
		return nil, errPatientNotFound
	}

	img := &model.PatientImage{
		PatientID:   p.ID,
		PatientCode: p.Code,
		ImageType:   req.ImageType,
		Description: optional(strings.TrimSpace(req.Description)),
		UploadedBy:  by,
	}
	if req.CapturedDate != "" {
		d, err := model.ParseDate(req.CapturedDate)
		if err != nil {
			return nil, invalid("INVALID_CAPTURED_DATE", "captured_date must be YYYY-MM-DD")
		}
		if d.After(s.clock.Now()) {
			return nil, invalid("INVALID_CAPTURED_DATE", "captured_date cannot be in the future")
		}
		img.CapturedDate = &d
	}

	key := storage.PatientImageKey(p.Code, file.Filename)
	objInfo, err := s.store.Put(ctx, key, file.Reader, storage.PutObjectOptions{
		Size:        file.Size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": file.Filename,
			"patient-code":      p.Code,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}
	img.ObjectKey = objInfo.Key
	img.Size = objInfo.Size
	img.ContentType = contentType

	stored, err := s.images.Create(ctx, img)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	stored.PatientCode = p.Code
	return stored, nil
}

// acceptedMediaType normalizes ct and reports whether it is an image or a PDF.
func acceptedMediaType(ct string) (string, bool) {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", false
	}
	if strings.HasPrefix(mt, "image/") || mt == "application/pdf" {
		return mt, true
	}
	return "", false
}

func (s *patientImageService) List(ctx context.Context, patientCode string) ([]model.PatientImage, error) {
	p, err := s.patients.FindByCode(ctx, patientCode)
	if err != nil {
		return nil, mapNotFound(err, errPatientNotFound)
	}
	images, err := s.images.ListByPatient(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if images == nil {
		images = []model.PatientImage{}
	}
	for i := range images {
		images[i].PatientCode = p.Code
	}
	return images, nil
}

func (s *patientImageService) Get(ctx context.Context, id int) (*model.PatientImage, error) {
	img, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	url, err := s.store.PresignGet(ctx, img.ObjectKey, presignExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign image: %w", err)
	}
	img.URL = url
	return img, nil
}

func (s *patientImageService) Download(ctx context.Context, id int) (io.ReadCloser, *model.PatientImage, error) {
	img, err := s.find(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.store.Get(ctx, img.ObjectKey)
	if err != nil {
		return nil, nil, fmt.Errorf("open image: %w", err)
	}
	return rc, img, nil
}

func (s *patientImageService) Delete(ctx context.Context, id int) error {
	img, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	// Keep the row when the object survives so it can still be found and retried.
	if err := s.store.Delete(ctx, img.ObjectKey); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	return s.images.Delete(ctx, id)
}

func (s *patientImageService) find(ctx context.Context, id int) (*model.PatientImage, error) {
	if id <= 0 {
		return nil, errImageNotFound
	}
	img, err := s.images.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, errImageNotFound)
	}
	return img, nil
}
