package relational

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/talentum-plus/talentum/internal/models"
)

const evaluationColumns = `v.id, v.proceso_id, v.tipo, v.plataforma, v.resultado, v.puntaje, v.feedback, COALESCE(p.puesto, '')`

func scanEvaluation(row pgx.CollectableRow) (*models.Evaluation, error) {
	var e models.Evaluation
	err := row.Scan(
		(*int64)(&e.ID), (*int64)(&e.ProcessID), &e.Type, &e.Platform,
		&e.Result, &e.Score, &e.Feedback, &e.Position,
	)
	return &e, err
}

func (s *Store) CreateEvaluation(ctx context.Context, e *models.Evaluation) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO evaluaciones (proceso_id, tipo, plataforma, resultado, puntaje, feedback)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		int64(e.ProcessID), e.Type, e.Platform, e.Result, e.Score, e.Feedback,
	)
	if err := row.Scan((*int64)(&e.ID)); err != nil {
		return translate(err, "creating evaluation for process %s", e.ProcessID)
	}
	return nil
}

func (s *Store) GetEvaluation(ctx context.Context, id models.ID) (*models.Evaluation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+evaluationColumns+`
		 FROM evaluaciones v LEFT JOIN procesos p ON p.id = v.proceso_id
		 WHERE v.id = $1`, int64(id))
	if err != nil {
		return nil, translate(err, "getting evaluation %s", id)
	}
	e, err := pgx.CollectExactlyOneRow(rows, scanEvaluation)
	if err != nil {
		return nil, translate(err, "getting evaluation %s", id)
	}
	return e, nil
}

func (s *Store) ListEvaluationsByProcess(ctx context.Context, processID models.ID) ([]*models.Evaluation, error) {
	return collect(ctx, s, "listing evaluations of process "+processID.String(), scanEvaluation,
		`SELECT `+evaluationColumns+`
		 FROM evaluaciones v LEFT JOIN procesos p ON p.id = v.proceso_id
		 WHERE v.proceso_id = $1
		 ORDER BY v.id`, int64(processID))
}

func (s *Store) ListEvaluationsByCandidate(ctx context.Context, c *models.CandidateRecord) ([]*models.Evaluation, error) {
	return collect(ctx, s, "listing evaluations of "+c.Email, scanEvaluation,
		`SELECT `+evaluationColumns+`
		 FROM evaluaciones v JOIN procesos p ON p.id = v.proceso_id
		 WHERE p.candidato_id IN ($1, $2)
		 ORDER BY v.id`, c.Email, c.ID.String())
}

func (s *Store) UpdateEvaluation(ctx context.Context, id models.ID, u *models.EvaluationUpdate) error {
	return s.exec(ctx, "updating evaluation "+id.String(),
		`UPDATE evaluaciones SET resultado = $1, puntaje = $2, feedback = $3 WHERE id = $4`,
		*u.Result, *u.Score, *u.Feedback, int64(id))
}
