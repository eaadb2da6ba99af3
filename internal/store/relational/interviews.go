package relational

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/talentum-plus/talentum/internal/models"
)

const interviewColumns = `e.id, e.proceso_id, e.tipo, e.fecha, e.entrevistador, e.duracion_minutos, e.notas, e.puntaje, e.estado, COALESCE(p.puesto, '')`

func scanInterview(row pgx.CollectableRow) (*models.Interview, error) {
	var i models.Interview
	err := row.Scan(
		(*int64)(&i.ID), (*int64)(&i.ProcessID), &i.Type, &i.Date, &i.Interviewer,
		&i.DurationMinutes, &i.Notes, &i.Score, &i.Status, &i.Position,
	)
	return &i, err
}

func (s *Store) CreateInterview(ctx context.Context, i *models.Interview) error {
	if i.Status == "" {
		i.Status = models.InterviewScheduled
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO entrevistas (proceso_id, tipo, fecha, entrevistador, duracion_minutos, notas, puntaje, estado)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		int64(i.ProcessID), i.Type, i.Date, i.Interviewer, i.DurationMinutes, i.Notes, i.Score, i.Status,
	)
	if err := row.Scan((*int64)(&i.ID)); err != nil {
		return translate(err, "creating interview for process %s", i.ProcessID)
	}
	return nil
}

func (s *Store) GetInterview(ctx context.Context, id models.ID) (*models.Interview, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+interviewColumns+`
		 FROM entrevistas e LEFT JOIN procesos p ON p.id = e.proceso_id
		 WHERE e.id = $1`, int64(id))
	if err != nil {
		return nil, translate(err, "getting interview %s", id)
	}
	i, err := pgx.CollectExactlyOneRow(rows, scanInterview)
	if err != nil {
		return nil, translate(err, "getting interview %s", id)
	}
	return i, nil
}

func (s *Store) ListInterviewsByProcess(ctx context.Context, processID models.ID) ([]*models.Interview, error) {
	return collect(ctx, s, "listing interviews of process "+processID.String(), scanInterview,
		`SELECT `+interviewColumns+`
		 FROM entrevistas e LEFT JOIN procesos p ON p.id = e.proceso_id
		 WHERE e.proceso_id = $1
		 ORDER BY e.fecha DESC`, int64(processID))
}

// ListInterviewsByCandidate matches processes keyed either by the candidate
// e-mail or by the numeric candidate id.
func (s *Store) ListInterviewsByCandidate(ctx context.Context, c *models.CandidateRecord) ([]*models.Interview, error) {
	return collect(ctx, s, "listing interviews of "+c.Email, scanInterview,
		`SELECT `+interviewColumns+`
		 FROM entrevistas e JOIN procesos p ON p.id = e.proceso_id
		 WHERE p.candidato_id IN ($1, $2)
		 ORDER BY e.fecha DESC`, c.Email, c.ID.String())
}

// interviewSet builds the SET clause for the supplied fields only.
func interviewSet(u *models.InterviewUpdate) (string, []any, error) {
	var (
		clauses []string
		args    []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if u.Status != nil {
		add("estado", *u.Status)
	}
	if u.Score != nil {
		add("puntaje", *u.Score)
	}
	if u.Notes != nil {
		add("notas", *u.Notes)
	}

	if len(clauses) == 0 {
		return "", nil, errors.New("no fields to update")
	}
	return strings.Join(clauses, ", "), args, nil
}

func (s *Store) UpdateInterview(ctx context.Context, id models.ID, u *models.InterviewUpdate) error {
	set, args, err := interviewSet(u)
	if err != nil {
		return fmt.Errorf("updating interview %s: %w", id, err)
	}
	args = append(args, int64(id))
	sql := fmt.Sprintf(`UPDATE entrevistas SET %s WHERE id = $%d`, set, len(args))
	return s.exec(ctx, "updating interview "+id.String(), sql, args...)
}
