package store

import (
	"context"
	"time"

	"appointment-booking-api/internal/model"
)

const clientColumns = `id, name, email, dni, phone, birth_date, enabled, created_at, updated_at`

func scanClient(row scanner) (*model.Client, error) {
	c := &model.Client{}
	var birth time.Time
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.DNI, &c.Phone, &birth,
		&c.Enabled, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	c.BirthDate = model.DateOf(birth)
	return c, nil
}

func (s *Postgres) CreateClient(ctx context.Context, c *model.Client) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO clients (id, name, email, dni, phone, birth_date, enabled)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Email, c.DNI, c.Phone, pgDate(c.BirthDate), c.Enabled,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return mapErr(err)
}

func (s *Postgres) GetClient(ctx context.Context, id string) (*model.Client, error) {
	return scanClient(s.db.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
}

func (s *Postgres) LockClient(ctx context.Context, id string) (*model.Client, error) {
	return scanClient(s.db.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1 FOR UPDATE`, id))
}

func (s *Postgres) ClientByEmail(ctx context.Context, email string) (*model.Client, error) {
	return scanClient(s.db.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE email = $1`, email))
}

func (s *Postgres) ClientByDNI(ctx context.Context, dni string) (*model.Client, error) {
	return scanClient(s.db.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE dni = $1`, dni))
}

func (s *Postgres) ListClients(ctx context.Context) ([]model.Client, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *Postgres) UpdateClient(ctx context.Context, id string, p model.ClientPatch) (*model.Client, error) {
	c, err := scanClient(s.db.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	p.Apply(c)

	err = s.db.QueryRow(ctx,
		`UPDATE clients
		 SET name=$1, email=$2, dni=$3, phone=$4, birth_date=$5, enabled=$6, updated_at=NOW()
		 WHERE id=$7
		 RETURNING updated_at`,
		c.Name, c.Email, c.DNI, c.Phone, pgDate(c.BirthDate), c.Enabled, c.ID,
	).Scan(&c.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return c, nil
}

func (s *Postgres) DeleteClient(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
