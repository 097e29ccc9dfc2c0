package mysql

import (
	"context"
	"database/sql"

	"dentalclinic/internal/model"
	"dentalclinic/internal/repository"
)

// PatientImageMySQL is a MySQL implementation of repository.PatientImageRepository.
type PatientImageMySQL struct {
	db *sql.DB
}

func NewPatientImageMySQL(db *sql.DB) *PatientImageMySQL {
	return &PatientImageMySQL{db: db}
}

var _ repository.PatientImageRepository = (*PatientImageMySQL)(nil)

const imageSelect = `
	SELECT i.image_id, i.patient_id, p.patient_code, i.object_key, i.image_type, i.description,
	       i.captured_date, i.content_type, i.size, i.uploaded_by, i.created_at
	FROM patient_images i
	JOIN patients p ON p.patient_id = i.patient_id
`

func scanImage(row scanner) (*model.PatientImage, error) {
	var img model.PatientImage
	if err := row.Scan(
		&img.ID,
		&img.PatientID,
		&img.PatientCode,
		&img.ObjectKey,
		&img.ImageType,
		&img.Description,
		&img.CapturedDate,
		&img.ContentType,
		&img.Size,
		&img.UploadedBy,
		&img.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &img, nil
}

// Create inserts a new image row and returns the stored record.
func (r *PatientImageMySQL) Create(ctx context.Context, img *model.PatientImage) (*model.PatientImage, error) {
	const q = `
		INSERT INTO patient_images (patient_id, object_key, image_type, description, captured_date, content_type, size, uploaded_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, q,
		img.PatientID,
		img.ObjectKey,
		img.ImageType,
		img.Description,
		img.CapturedDate,
		img.ContentType,
		img.Size,
		img.UploadedBy,
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, int(id))
}

func (r *PatientImageMySQL) FindByID(ctx context.Context, id int) (*model.PatientImage, error) {
	return scanImage(r.db.QueryRowContext(ctx, imageSelect+` WHERE i.image_id = ?`, id))
}

func (r *PatientImageMySQL) ListByPatient(ctx context.Context, patientID int) ([]model.PatientImage, error) {
	rows, err := r.db.QueryContext(ctx, imageSelect+` WHERE i.patient_id = ? ORDER BY i.created_at DESC, i.image_id DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.PatientImage, 0)
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *img)
	}
	return out, rows.Err()
}

// Delete removes an image row. It does not return an error if the row does not exist.
func (r *PatientImageMySQL) Delete(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM patient_images WHERE image_id = ?`, id)
	return err
}
