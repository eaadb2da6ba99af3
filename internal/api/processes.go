package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/talentum-plus/talentum/internal/matching"
	"github.com/talentum-plus/talentum/internal/models"
	"github.com/talentum-plus/talentum/internal/store"
)

// processView is a process as listed to clients. Notes are only filled for staff.
type processView struct {
	ID          models.ID `json:"id"`
	CandidateID string    `json:"candidato_id,omitempty"`
	Position    string    `json:"puesto"`
	Status      string    `json:"estado"`
	Feedback    *string   `json:"feedback"`
	Notes       *string   `json:"notas_confidenciales,omitempty"`
	Date        time.Time `json:"fecha"`
}

func newProcessView(p *models.Process, withCandidate, withNotes bool) processView {
	v := processView{
		ID:       p.ID,
		Position: p.Position,
		Status:   p.Status,
		Feedback: p.Feedback,
		Date:     p.UpdatedAt,
	}
	if withCandidate {
		v.CandidateID = p.CandidateID
	}
	if withNotes {
		v.Notes = p.ConfidentialNotes
	}
	return v
}

func (s *Server) createProcess(w http.ResponseWriter, r *http.Request) error {
	var p models.Process
	if err := decodeValid(r, &p); err != nil {
		return err
	}
	p.UpdatedAt = s.now()

	if err := s.rel.CreateProcess(r.Context(), &p); err != nil {
		return fmt.Errorf("creating process: %w", err)
	}
	report := s.syncer.ProcessCreated(r.Context(), &p)

	writeJSON(w, http.StatusCreated, object{"id": p.ID, "sincronizado": report.OK()})
	return nil
}

func (s *Server) listProcesses(w http.ResponseWriter, r *http.Request) error {
	candidateID := pathVar(r, "candidato_id")
	withNotes := s.optionalIdentity(r).IsStaff()

	processes, err := s.rel.ListProcesses(r.Context(), candidateID)
	if err != nil {
		return err
	}
	views := make([]processView, 0, len(processes))
	for _, p := range processes {
		views = append(views, newProcessView(p, false, withNotes))
	}

	writeJSON(w, http.StatusOK, object{"candidato_id": candidateID, "procesos": views})
	return nil
}

func (s *Server) listAllProcesses(w http.ResponseWriter, r *http.Request) error {
	withNotes := s.optionalIdentity(r).IsStaff()

	processes, err := s.rel.ListProcesses(r.Context(), "")
	if err != nil {
		return err
	}
	views := make([]processView, 0, len(processes))
	for _, p := range processes {
		views = append(views, newProcessView(p, true, withNotes))
	}

	writeJSON(w, http.StatusOK, object{"total": len(views), "procesos": views})
	return nil
}

func (s *Server) createInterview(w http.ResponseWriter, r *http.Request) error {
	var i models.Interview
	if err := decodeValid(r, &i); err != nil {
		return err
	}
	i.Status = models.InterviewScheduled

	err := s.rel.CreateInterview(r.Context(), &i)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Proceso no encontrado")
	}
	if err != nil {
		return fmt.Errorf("creating interview: %w", err)
	}

	writeJSON(w, http.StatusCreated, object{
		"id":      i.ID,
		"estado":  i.Status,
		"mensaje": "Entrevista agendada exitosamente",
	})
	return nil
}

func (s *Server) getInterview(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	i, err := s.rel.GetInterview(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Entrevista no encontrada")
	}
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, i)
	return nil
}

func (s *Server) updateInterview(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	var u models.InterviewUpdate
	if err := decodeValid(r, &u); err != nil {
		return err
	}

	err = s.rel.UpdateInterview(r.Context(), id, &u)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Entrevista no encontrada")
	}
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, object{"id": id, "mensaje": "Entrevista actualizada"})
	return nil
}

func (s *Server) processInterviews(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	interviews, err := s.rel.ListInterviewsByProcess(r.Context(), id)
	if err != nil {
		return err
	}
	if interviews == nil {
		interviews = []*models.Interview{}
	}
	writeJSON(w, http.StatusOK, object{"proceso_id": id, "total": len(interviews), "entrevistas": interviews})
	return nil
}

func (s *Server) candidateInterviews(w http.ResponseWriter, r *http.Request) error {
	email := pathVar(r, "email")
	c, err := s.rel.GetCandidate(r.Context(), email)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Candidato no encontrado")
	}
	if err != nil {
		return err
	}

	interviews, err := s.rel.ListInterviewsByCandidate(r.Context(), c)
	if err != nil {
		return err
	}
	if interviews == nil {
		interviews = []*models.Interview{}
	}
	writeJSON(w, http.StatusOK, object{
		"candidato_email":   email,
		"total_entrevistas": len(interviews),
		"entrevistas":       interviews,
	})
	return nil
}

func (s *Server) createEvaluation(w http.ResponseWriter, r *http.Request) error {
	var e models.Evaluation
	if err := decodeValid(r, &e); err != nil {
		return err
	}
	err := s.rel.CreateEvaluation(r.Context(), &e)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Proceso no encontrado")
	}
	if err != nil {
		return fmt.Errorf("creating evaluation: %w", err)
	}
	writeJSON(w, http.StatusCreated, object{
		"id":      e.ID,
		"mensaje": "Evaluación técnica registrada exitosamente",
	})
	return nil
}

func (s *Server) getEvaluation(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	e, err := s.rel.GetEvaluation(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Evaluación no encontrada")
	}
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, e)
	return nil
}

func (s *Server) updateEvaluation(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	var u models.EvaluationUpdate
	if err := decodeValid(r, &u); err != nil {
		return err
	}

	err = s.rel.UpdateEvaluation(r.Context(), id, &u)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Evaluación no encontrada")
	}
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, object{"id": id, "mensaje": "Evaluación actualizada"})
	return nil
}

func (s *Server) processEvaluations(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	evaluations, err := s.rel.ListEvaluationsByProcess(r.Context(), id)
	if err != nil {
		return err
	}
	if evaluations == nil {
		evaluations = []*models.Evaluation{}
	}
	writeJSON(w, http.StatusOK, object{"proceso_id": id, "total": len(evaluations), "evaluaciones": evaluations})
	return nil
}

func (s *Server) candidateEvaluations(w http.ResponseWriter, r *http.Request) error {
	email := pathVar(r, "email")
	c, err := s.rel.GetCandidate(r.Context(), email)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Candidato no encontrado")
	}
	if err != nil {
		return err
	}

	evaluations, err := s.rel.ListEvaluationsByCandidate(r.Context(), c)
	if err != nil {
		return err
	}
	if evaluations == nil {
		evaluations = []*models.Evaluation{}
	}

	writeJSON(w, http.StatusOK, object{
		"candidato_email":    email,
		"total_evaluaciones": len(evaluations),
		"promedio_puntaje":   averageScore(evaluations),
		"evaluaciones":       evaluations,
	})
	return nil
}

// averageScore is the mean score over all evaluations, rounded to 2 decimals.
func averageScore(evaluations []*models.Evaluation) float64 {
	if len(evaluations) == 0 {
		return 0
	}
	var sum float64
	for _, e := range evaluations {
		sum += e.Score
	}
	return matching.Round(sum/float64(len(evaluations)), 2)
}

