package relational

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/talentum-plus/talentum/internal/models"
)

func scanProcess(row pgx.CollectableRow) (*models.Process, error) {
	var p models.Process
	err := row.Scan((*int64)(&p.ID), &p.CandidateID, &p.Position, &p.Status, &p.Feedback, &p.ConfidentialNotes, &p.UpdatedAt)
	return &p, err
}

func (s *Store) CreateProcess(ctx context.Context, p *models.Process) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO procesos (candidato_id, puesto, estado, feedback, notas_confidenciales)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, updated_at`,
		p.CandidateID, p.Position, p.Status, p.Feedback, p.ConfidentialNotes,
	)
	if err := row.Scan((*int64)(&p.ID), &p.UpdatedAt); err != nil {
		return translate(err, "creating process for %s", p.CandidateID)
	}
	return nil
}

func (s *Store) ListProcesses(ctx context.Context, candidateID string) ([]*models.Process, error) {
	const columns = `SELECT id, candidato_id, puesto, estado, feedback, notas_confidenciales, updated_at FROM procesos`
	if candidateID == "" {
		return collect(ctx, s, "listing processes", scanProcess, columns+` ORDER BY updated_at DESC`)
	}
	return collect(ctx, s, "listing processes of "+candidateID, scanProcess,
		columns+` WHERE candidato_id = $1 ORDER BY updated_at DESC`, candidateID)
}

func scanApplication(row pgx.CollectableRow) (*models.Application, error) {
	var a models.Application
	err := row.Scan((*int64)(&a.ID), &a.CandidateEmail, &a.OfferID, &a.Status, &a.AppliedAt)
	return &a, err
}

func (s *Store) CreateApplication(ctx context.Context, a *models.Application) error {
	if a.Status == "" {
		a.Status = models.ApplicationPending
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO aplicaciones (candidato_email, oferta_id, estado)
		 VALUES ($1, $2, $3)
		 RETURNING id, fecha_aplicacion`,
		a.CandidateEmail, a.OfferID, a.Status,
	)
	if err := row.Scan((*int64)(&a.ID), &a.AppliedAt); err != nil {
		return translate(err, "creating application of %s to %s", a.CandidateEmail, a.OfferID)
	}
	return nil
}

func (s *Store) FindApplication(ctx context.Context, email, offerID string) (*models.Application, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, candidato_email, oferta_id, estado, fecha_aplicacion
		 FROM aplicaciones WHERE candidato_email = $1 AND oferta_id = $2`,
		email, offerID,
	)
	if err != nil {
		return nil, translate(err, "finding application of %s to %s", email, offerID)
	}
	a, err := pgx.CollectExactlyOneRow(rows, scanApplication)
	if err != nil {
		return nil, translate(err, "finding application of %s to %s", email, offerID)
	}
	return a, nil
}

func (s *Store) ListApplications(ctx context.Context, email string) ([]*models.Application, error) {
	return collect(ctx, s, "listing applications of "+email, scanApplication,
		`SELECT id, candidato_email, oferta_id, estado, fecha_aplicacion
		 FROM aplicaciones WHERE candidato_email = $1
		 ORDER BY fecha_aplicacion DESC`, email)
}

func (s *Store) ListApplicantEmails(ctx context.Context, offerID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT candidato_email FROM aplicaciones WHERE oferta_id = $1`, offerID)
	if err != nil {
		return nil, translate(err, "listing applicants of %s", offerID)
	}
	emails, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, translate(err, "listing applicants of %s", offerID)
	}
	return emails, nil
}
