package scheduling

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curenation/hms/internal/platform/db"
)

const activeSlotIndex = "appointments_active_slot_key"

type appointmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepo(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const appointmentSelect = `SELECT a.id, a.patient_id, a.doctor_id, a.department_id,
	to_char(a.appointment_date, 'YYYY-MM-DD'), to_char(a.appointment_time, 'HH24:MI'),
	a.reason, a.status, a.created_at, a.updated_at,
	p.first_name || ' ' || p.last_name, p.patient_code, p.email, p.phone,
	d.first_name || ' ' || d.last_name, d.phone, d.specialization,
	dep.name
	FROM appointments a
	JOIN patients p ON p.id = a.patient_id
	JOIN doctors d ON d.id = a.doctor_id
	JOIN departments dep ON dep.id = a.department_id`

const appointmentOrder = ` ORDER BY a.appointment_date DESC, a.appointment_time DESC`

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (
			id, patient_id, doctor_id, department_id,
			appointment_date, appointment_time, reason, status
		) VALUES ($1, $2, $3, $4, $5::date, $6::time, $7, $8)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.DoctorID, a.DepartmentID, a.Date, a.Time, a.Reason, a.Status,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if db.IsUniqueViolation(err, activeSlotIndex) {
		return ErrSlotTaken
	}
	return err
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx, appointmentSelect+` WHERE a.id = $1`, id))
	if err != nil {
		return nil, db.NotFound(err)
	}
	return a, nil
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE appointments SET
			doctor_id = $2, department_id = $3,
			appointment_date = $4::date, appointment_time = $5::time,
			reason = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.DoctorID, a.DepartmentID, a.Date, a.Time, a.Reason,
	).Scan(&a.UpdatedAt)
	if db.IsUniqueViolation(err, activeSlotIndex) {
		return ErrSlotTaken
	}
	return db.NotFound(err)
}

func (r *appointmentRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointments SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if db.IsUniqueViolation(err, activeSlotIndex) {
		return ErrSlotTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *appointmentRepoPG) List(ctx context.Context, f ListFilter) ([]*Appointment, error) {
	var (
		conds []string
		args  []interface{}
	)
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("a.status = $%d", len(args)))
	}
	if f.PatientID != nil {
		args = append(args, *f.PatientID)
		conds = append(conds, fmt.Sprintf("a.patient_id = $%d", len(args)))
	}

	query := appointmentSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	return r.list(ctx, query+appointmentOrder, args...)
}

func (r *appointmentRepoPG) ListForReminder(ctx context.Context, date string) ([]*Appointment, error) {
	return r.list(ctx,
		appointmentSelect+` WHERE a.status = $1 AND a.appointment_date = $2::date ORDER BY a.appointment_time`,
		StatusApproved, date)
}

func (r *appointmentRepoPG) list(ctx context.Context, query string, args ...interface{}) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := []*Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

func (r *appointmentRepoPG) SlotTaken(ctx context.Context, slot Slot, exclude uuid.UUID) (bool, error) {
	var taken bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND appointment_date = $2::date AND appointment_time = $3::time
			  AND status <> 'cancelled' AND id <> $4
		)`,
		slot.DoctorID, slot.Date, slot.Time, exclude,
	).Scan(&taken)
	return taken, err
}

func (r *appointmentRepoPG) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`, id)
}

func (r *appointmentRepoPG) DoctorExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM doctors WHERE id = $1)`, id)
}

func (r *appointmentRepoPG) DepartmentExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM departments WHERE id = $1)`, id)
}

func (r *appointmentRepoPG) exists(ctx context.Context, query string, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx, query, id).Scan(&ok)
	return ok, err
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID, &a.PatientID, &a.DoctorID, &a.DepartmentID,
		&a.Date, &a.Time, &a.Reason, &a.Status, &a.CreatedAt, &a.UpdatedAt,
		&a.PatientName, &a.PatientCode, &a.PatientEmail, &a.PatientPhone,
		&a.DoctorName, &a.DoctorPhone, &a.Specialization,
		&a.DepartmentName,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
