package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curenation/hms/internal/platform/db"
)

// -- Patient Repository --

type patientRepoPG struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool, now: time.Now}
}

func (r *patientRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const patientCols = `id, patient_code, first_name, last_name, email, phone,
	to_char(date_of_birth, 'YYYY-MM-DD'), age, gender,
	blood_group, height::float8, weight::float8, address,
	emergency_contact_name, emergency_contact_phone, password_hash,
	created_at, updated_at`

// Create allocates the next display code for the current year and inserts
// the patient in the same transaction. The counter row is seeded from the
// codes already issued that year.
func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	return db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		year := r.now().Year()

		var seq int
		err := r.conn(ctx).QueryRow(ctx, `
			INSERT INTO patient_code_counters (year, last_seq)
			VALUES ($1, (SELECT COUNT(*) FROM patients WHERE patient_code LIKE $2) + 1)
			ON CONFLICT (year) DO UPDATE SET last_seq = patient_code_counters.last_seq + 1
			RETURNING last_seq`,
			year, PatientCodePrefix(year)+"%",
		).Scan(&seq)
		if err != nil {
			return fmt.Errorf("allocate patient code: %w", err)
		}

		p.ID = uuid.New()
		p.PatientCode = FormatPatientCode(year, seq)

		err = r.conn(ctx).QueryRow(ctx, `
			INSERT INTO patients (
				id, patient_code, first_name, last_name, email, phone,
				date_of_birth, age, gender, blood_group, height, weight, address,
				emergency_contact_name, emergency_contact_phone, password_hash
			) VALUES ($1,$2,$3,$4,$5,$6,$7::date,$8,$9,$10,$11,$12,$13,$14,$15,$16)
			RETURNING created_at, updated_at`,
			p.ID, p.PatientCode, p.FirstName, p.LastName, p.Email, p.Phone,
			p.DateOfBirth, p.Age, p.Gender, p.BloodGroup, p.Height, p.Weight, p.Address,
			p.EmergencyContactName, p.EmergencyContactPhone, p.PasswordHash,
		).Scan(&p.CreatedAt, &p.UpdatedAt)
		if db.IsUniqueViolation(err, "patients_email_key") {
			return ErrEmailTaken
		}
		if err != nil {
			return fmt.Errorf("insert patient: %w", err)
		}
		return nil
	})
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if err != nil {
		return nil, db.NotFound(err)
	}
	return p, nil
}

func (r *patientRepoPG) GetByEmail(ctx context.Context, email string) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE email = $1`, email))
	if err != nil {
		return nil, db.NotFound(err)
	}
	return p, nil
}

func (r *patientRepoPG) EmailTaken(ctx context.Context, email string, exclude uuid.UUID) (bool, error) {
	var taken bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patients WHERE email = $1 AND id <> $2)`, email, exclude,
	).Scan(&taken)
	return taken, err
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patients SET
			first_name=$2, last_name=$3, email=$4, phone=$5,
			date_of_birth=$6::date, age=$7, gender=$8, blood_group=$9,
			height=$10, weight=$11, address=$12,
			emergency_contact_name=$13, emergency_contact_phone=$14,
			updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.FirstName, p.LastName, p.Email, p.Phone,
		p.DateOfBirth, p.Age, p.Gender, p.BloodGroup,
		p.Height, p.Weight, p.Address,
		p.EmergencyContactName, p.EmergencyContactPhone,
	).Scan(&p.UpdatedAt)
	if db.IsUniqueViolation(err, "patients_email_key") {
		return ErrEmailTaken
	}
	return db.NotFound(err)
}

func (r *patientRepoPG) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE patients SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

// Delete removes the patient. Appointments go with it through ON DELETE
// CASCADE.
func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) List(ctx context.Context) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patients ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	patients := []*Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

func (r *patientRepoPG) ResetAllPasswords(ctx context.Context, hash string) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE patients SET password_hash = $1, updated_at = NOW()`, hash)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.PatientCode, &p.FirstName, &p.LastName, &p.Email, &p.Phone,
		&p.DateOfBirth, &p.Age, &p.Gender,
		&p.BloodGroup, &p.Height, &p.Weight, &p.Address,
		&p.EmergencyContactName, &p.EmergencyContactPhone, &p.PasswordHash,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// -- Doctor Repository --

type doctorRepoPG struct {
	pool *pgxpool.Pool
}

func NewDoctorRepo(pool *pgxpool.Pool) DoctorRepository {
	return &doctorRepoPG{pool: pool}
}

func (r *doctorRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const doctorSelect = `SELECT d.id, d.first_name, d.last_name, d.email, d.phone,
	d.specialization, d.qualification, d.experience, d.department_id, dep.name,
	d.created_at, d.updated_at
	FROM doctors d
	LEFT JOIN departments dep ON dep.id = d.department_id`

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctors (
			id, first_name, last_name, email, phone,
			specialization, qualification, experience, department_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		d.ID, d.FirstName, d.LastName, d.Email, d.Phone,
		d.Specialization, d.Qualification, d.Experience, d.DepartmentID,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	return translateDoctorErr(err)
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := scanDoctor(r.conn(ctx).QueryRow(ctx, doctorSelect+` WHERE d.id = $1`, id))
	if err != nil {
		return nil, db.NotFound(err)
	}
	return d, nil
}

func (r *doctorRepoPG) EmailTaken(ctx context.Context, email string, exclude uuid.UUID) (bool, error) {
	var taken bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM doctors WHERE email = $1 AND id <> $2)`, email, exclude,
	).Scan(&taken)
	return taken, err
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE doctors SET
			first_name=$2, last_name=$3, email=$4, phone=$5,
			specialization=$6, qualification=$7, experience=$8, department_id=$9,
			updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		d.ID, d.FirstName, d.LastName, d.Email, d.Phone,
		d.Specialization, d.Qualification, d.Experience, d.DepartmentID,
	).Scan(&d.UpdatedAt)
	return translateDoctorErr(err)
}

func (r *doctorRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if db.IsForeignKeyViolation(err, "appointments_doctor_id_fkey") {
		return ErrDoctorReferenced
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *doctorRepoPG) List(ctx context.Context) ([]*Doctor, error) {
	return r.list(ctx, doctorSelect+` ORDER BY d.created_at DESC`)
}

func (r *doctorRepoPG) ListByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*Doctor, error) {
	return r.list(ctx, doctorSelect+` WHERE d.department_id = $1 ORDER BY d.first_name`, departmentID)
}

func (r *doctorRepoPG) list(ctx context.Context, query string, args ...interface{}) ([]*Doctor, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	doctors := []*Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}

func (r *doctorRepoPG) DepartmentExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM departments WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *doctorRepoPG) CountAppointments(ctx context.Context, doctorID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointments WHERE doctor_id = $1`, doctorID).Scan(&n)
	return n, err
}

func translateDoctorErr(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err, "doctors_email_key"):
		return ErrEmailTaken
	case db.IsForeignKeyViolation(err, "doctors_department_id_fkey"):
		return ErrUnknownDepartment
	default:
		return db.NotFound(err)
	}
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(
		&d.ID, &d.FirstName, &d.LastName, &d.Email, &d.Phone,
		&d.Specialization, &d.Qualification, &d.Experience, &d.DepartmentID, &d.DepartmentName,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// -- Admin Repository --

type adminRepoPG struct {
	pool *pgxpool.Pool
}

func NewAdminRepo(pool *pgxpool.Pool) AdminRepository {
	return &adminRepoPG{pool: pool}
}

func (r *adminRepoPG) GetByID(ctx context.Context, adminID string) (*Admin, error) {
	var a Admin
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT admin_id, password_hash, created_at, updated_at FROM admin WHERE admin_id = $1`, adminID,
	).Scan(&a.AdminID, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, db.NotFound(err)
	}
	return &a, nil
}

func (r *adminRepoPG) SetPassword(ctx context.Context, adminID, hash string) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO admin (admin_id, password_hash) VALUES ($1, $2)
		ON CONFLICT (admin_id) DO UPDATE SET password_hash = EXCLUDED.password_hash, updated_at = NOW()`,
		adminID, hash)
	return err
}
