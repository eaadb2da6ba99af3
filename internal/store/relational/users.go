package relational

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/talentum-plus/talentum/internal/models"
)

const userColumns = `id, email, password_hash, rol, nombre, created_at`

func scanUser(row pgx.CollectableRow) (*models.User, error) {
	var u models.User
	err := row.Scan((*int64)(&u.ID), &u.Email, &u.PasswordHash, &u.Role, &u.Name, &u.CreatedAt)
	return &u, err
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO usuarios (email, password_hash, rol, nombre)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		u.Email, u.PasswordHash, u.Role, u.Name,
	)
	if err := row.Scan((*int64)(&u.ID), &u.CreatedAt); err != nil {
		return translate(err, "creating user %s", u.Email)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, email string) (*models.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM usuarios WHERE email = $1`, email)
	if err != nil {
		return nil, translate(err, "getting user %s", email)
	}
	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		return nil, translate(err, "getting user %s", email)
	}
	return u, nil
}

func (s *Store) SetPassword(ctx context.Context, email, hash string) error {
	return s.exec(ctx, "setting password of "+email,
		`UPDATE usuarios SET password_hash = $1 WHERE email = $2`, hash, email)
}

func (s *Store) SearchUsers(ctx context.Context, query, exclude string, limit int) ([]*models.User, error) {
	pattern := "%" + escapeLike(query) + "%"
	return collect(ctx, s, "searching users", scanUser,
		`SELECT `+userColumns+`
		 FROM usuarios
		 WHERE email <> $1 AND (nombre ILIKE $2 OR email ILIKE $2)
		 ORDER BY nombre
		 LIMIT $3`,
		exclude, pattern, limit,
	)
}

func (s *Store) ListUsersByRole(ctx context.Context, role string, limit int) ([]*models.User, error) {
	return collect(ctx, s, "listing users by role", scanUser,
		`SELECT `+userColumns+` FROM usuarios WHERE rol = $1 ORDER BY id LIMIT $2`,
		role, limit,
	)
}

func (s *Store) UpsertCandidate(ctx context.Context, c *models.CandidateRecord) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO candidatos (nombre, email, seniority)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (email) DO UPDATE
		 SET nombre = EXCLUDED.nombre, seniority = EXCLUDED.seniority
		 RETURNING id`,
		c.Name, c.Email, c.Seniority,
	)
	if err := row.Scan((*int64)(&c.ID)); err != nil {
		return translate(err, "upserting candidate %s", c.Email)
	}
	return nil
}

func (s *Store) GetCandidate(ctx context.Context, email string) (*models.CandidateRecord, error) {
	var c models.CandidateRecord
	var seniority *string
	err := s.pool.QueryRow(ctx,
		`SELECT id, nombre, email, seniority FROM candidatos WHERE email = $1`, email,
	).Scan((*int64)(&c.ID), &c.Name, &c.Email, &seniority)
	if err != nil {
		return nil, translate(err, "getting candidate %s", email)
	}
	if seniority != nil {
		c.Seniority = *seniority
	}
	return &c, nil
}

// escapeLike escapes LIKE wildcards so the query matches literally.
func escapeLike(s string) string {
	r := []rune{}
	for _, c := range s {
		if c == '%' || c == '_' || c == '\\' {
			r = append(r, '\\')
		}
		r = append(r, c)
	}
	return string(r)
}
