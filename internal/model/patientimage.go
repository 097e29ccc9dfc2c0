package model

import "time"

type ImageType string

const (
	ImageXRay      ImageType = "XRAY"
	ImagePhoto     ImageType = "PHOTO"
	ImageIntraoral ImageType = "INTRAORAL"
	ImagePanoramic ImageType = "PANORAMIC"
	ImageCTScan    ImageType = "CT_SCAN"
	ImageOther     ImageType = "OTHER"
)

func (t ImageType) Valid() bool {
	switch t {
	case ImageXRay, ImagePhoto, ImageIntraoral, ImagePanoramic, ImageCTScan, ImageOther:
		return true
	}
	return false
}

// PatientImage is the metadata row for an object stored in MinIO.
type PatientImage struct {
	ID           int       `json:"image_id"`
	PatientID    int       `json:"patient_id"`
	PatientCode  string    `json:"patient_code,omitempty"`
	ObjectKey    string    `json:"object_key"`
	ImageType    ImageType `json:"image_type"`
	Description  *string   `json:"description,omitempty"`
	CapturedDate *Date     `json:"captured_date,omitempty"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	UploadedBy   string    `json:"uploaded_by"`
	CreatedAt    time.Time `json:"created_at"`
	URL          string    `json:"url,omitempty"`
}
