package admin

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curenation/hms/internal/platform/db"
)

type departmentRepoPG struct {
	pool *pgxpool.Pool
}

func NewDepartmentRepo(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepoPG{pool: pool}
}

func (r *departmentRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const departmentSelect = `SELECT d.id, d.name, d.description,
	(SELECT COUNT(*) FROM doctors doc WHERE doc.department_id = d.id),
	(SELECT COUNT(*) FROM appointments a WHERE a.department_id = d.id),
	d.created_at, d.updated_at
	FROM departments d`

func (r *departmentRepoPG) Create(ctx context.Context, d *Department) error {
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO departments (id, name, description) VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`,
		d.ID, d.Name, d.Description,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if db.IsUniqueViolation(err, "departments_name_key") {
		return ErrNameTaken
	}
	return err
}

func (r *departmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Department, error) {
	d, err := scanDepartment(r.conn(ctx).QueryRow(ctx, departmentSelect+` WHERE d.id = $1`, id))
	if err != nil {
		return nil, db.NotFound(err)
	}
	return d, nil
}

func (r *departmentRepoPG) NameTaken(ctx context.Context, name string, exclude uuid.UUID) (bool, error) {
	var taken bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM departments WHERE name = $1 AND id <> $2)`, name, exclude,
	).Scan(&taken)
	return taken, err
}

func (r *departmentRepoPG) Update(ctx context.Context, d *Department) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE departments SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		d.ID, d.Name, d.Description,
	).Scan(&d.UpdatedAt)
	if db.IsUniqueViolation(err, "departments_name_key") {
		return ErrNameTaken
	}
	return db.NotFound(err)
}

func (r *departmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if db.IsForeignKeyViolation(err, "") {
		return ErrDepartmentReferenced
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (r *departmentRepoPG) List(ctx context.Context) ([]*Department, error) {
	rows, err := r.conn(ctx).Query(ctx, departmentSelect+` ORDER BY d.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	departments := []*Department{}
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

func (r *departmentRepoPG) CountDoctors(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM doctors WHERE department_id = $1`, id).Scan(&n)
	return n, err
}

func scanDepartment(row pgx.Row) (*Department, error) {
	var d Department
	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.DoctorCount, &d.AppointmentCount, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
