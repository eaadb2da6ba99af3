package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/talentum-plus/talentum/internal/models"
	"github.com/talentum-plus/talentum/internal/store"
	"github.com/talentum-plus/talentum/internal/store/cache"
)

const (
	examPassed = "Aprobado"
	examFailed = "Reprobado"
)

func (s *Server) createCourse(w http.ResponseWriter, r *http.Request) error {
	var c models.Course
	if err := decodeValid(r, &c); err != nil {
		return err
	}
	if c.Resources == nil {
		c.Resources = []string{}
	}
	if c.Skills == nil {
		c.Skills = []string{}
	}

	id, err := s.docs.InsertCourse(r.Context(), &c)
	if errors.Is(err, store.ErrDuplicate) {
		return badRequest("Ya existe un curso con el código '%s'. Por favor usa un código diferente.", c.Code)
	}
	if err != nil {
		return fmt.Errorf("creating course: %w", err)
	}
	s.syncer.CourseCreated(r.Context(), &c)

	writeJSON(w, http.StatusCreated, object{"codigo": c.Code, "id": id})
	return nil
}

func (s *Server) listCourses(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	filter := store.CourseFilter{Category: q.Get("categoria"), Level: q.Get("nivel")}
	key := cache.CourseListKey(filter.Category, filter.Level)

	var cached []*models.Course
	hit, err := store.GetJSON(r.Context(), s.cache, key, &cached)
	if err != nil {
		s.logger.Warn("course listing cache read failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		writeJSON(w, http.StatusOK, object{"source": "cache", "cursos": cached})
		return nil
	}

	courses, err := s.docs.ListCourses(r.Context(), filter)
	if err != nil {
		return err
	}
	if courses == nil {
		courses = []*models.Course{}
	}
	if err := store.SetJSON(r.Context(), s.cache, key, courses, cache.CourseTTL); err != nil {
		s.logger.Warn("course listing cache write failed", zap.String("key", key), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, object{"source": store.NameDocuments, "total": len(courses), "cursos": courses})
	return nil
}

func (s *Server) getCourse(w http.ResponseWriter, r *http.Request) error {
	code := pathVar(r, "codigo")
	key := cache.CourseKey(code)

	var c models.Course
	hit, err := store.GetJSON(r.Context(), s.cache, key, &c)
	if err != nil {
		s.logger.Warn("course cache read failed", zap.String("codigo", code), zap.Error(err))
	}
	source := "cache"
	if !hit {
		found, err := s.docs.GetCourse(r.Context(), code)
		if errors.Is(err, store.ErrNotFound) {
			return notFound("Curso no encontrado")
		}
		if err != nil {
			return err
		}
		c, source = *found, store.NameDocuments
		if err := store.SetJSON(r.Context(), s.cache, key, c, cache.CourseTTL); err != nil {
			s.logger.Warn("course cache write failed", zap.String("codigo", code), zap.Error(err))
		}
	}

	body, err := flatten(c, object{"source": source})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, body)
	return nil
}

func (s *Server) enroll(w http.ResponseWriter, r *http.Request) error {
	var e models.Enrollment
	if err := decodeValid(r, &e); err != nil {
		return err
	}

	course, err := s.docs.GetCourse(r.Context(), e.CourseCode)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("Curso no encontrado")
	}
	if err != nil {
		return err
	}

	_, err = s.docs.FindEnrollment(r.Context(), e.CandidateEmail, e.CourseCode)
	if err == nil {
		return badRequest("Ya estás inscrito en este curso")
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	// exam results are only written by rendir-examen
	e.ID = ""
	e.ExamGrade, e.ExamDate, e.Passed = nil, nil, nil
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = s.now()
	}
	id, err := s.docs.InsertEnrollment(r.Context(), &e)
	if errors.Is(err, store.ErrDuplicate) {
		return badRequest("Ya estás inscrito en este curso")
	}
	if err != nil {
		return fmt.Errorf("enrolling %s: %w", e.CandidateEmail, err)
	}
	e.ID = id
	s.syncer.EnrollmentCreated(r.Context(), &e, course.Name)

	writeJSON(w, http.StatusCreated, object{"id": id, "inscrito": true})
	return nil
}

// enrollmentErr maps lookup failures of the enrollment in the path.
func enrollmentErr(err error) error {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
		return notFound("Inscripción no encontrada")
	}
	return err
}

func (s *Server) updateProgress(w http.ResponseWriter, r *http.Request) error {
	progress, err := queryFloat(r, "progreso")
	if err != nil {
		return err
	}
	if progress < 0 || progress > 1 {
		return badRequest("Progreso debe estar entre 0 y 1")
	}
	completed := progress >= 1

	e, err := s.docs.UpdateEnrollment(r.Context(), pathVar(r, "id"), map[string]any{
		"progreso":   progress,
		"completado": completed,
	})
	if err != nil {
		return enrollmentErr(err)
	}
	s.syncer.EnrollmentProgressed(r.Context(), e)

	writeJSON(w, http.StatusOK, object{"progreso": progress, "completado": completed})
	return nil
}

func (s *Server) takeExam(w http.ResponseWriter, r *http.Request) error {
	id := pathVar(r, "id")
	e, err := s.docs.GetEnrollment(r.Context(), id)
	if errors.Is(err, store.ErrInvalidID) {
		return badRequest("ID de inscripción inválido")
	}
	if err != nil {
		return enrollmentErr(err)
	}
	if e.Progress < 1 {
		return badRequest("Debes completar el curso (100%%) antes de rendir el examen")
	}

	previous := e.PreviousExamGrade()
	grade := s.grade(previous, models.ExamMaxGrade)
	passed := grade >= models.ExamPassThreshold
	status := examFailed
	if passed {
		status = examPassed
	}

	_, err = s.docs.UpdateEnrollment(r.Context(), id, map[string]any{
		"nota_examen":  grade,
		"fecha_examen": s.now(),
		"aprobado":     passed,
	})
	if err != nil {
		return enrollmentErr(err)
	}

	var won []string
	if passed {
		won, err = s.awardCourseSkills(r, e)
		if err != nil {
			return err
		}
	}

	msg := fmt.Sprintf("Primera nota: %d/%d", grade, models.ExamMaxGrade)
	if previous > 0 {
		msg = fmt.Sprintf("Nota anterior: %d/%d → Nueva nota: %d/%d", previous, models.ExamMaxGrade, grade, models.ExamMaxGrade)
	}
	msg += fmt.Sprintf(" - %s! ✨", status)
	if len(won) > 0 {
		msg += fmt.Sprintf(" ¡Ganaste %d nueva(s) skill(s): %s!", len(won), strings.Join(won, ", "))
	}

	writeJSON(w, http.StatusOK, object{
		"inscripcion_id": id,
		"nota":           grade,
		"nota_anterior":  previous,
		"aprobado":       passed,
		"estado":         status,
		"mensaje":        msg,
	})
	return nil
}

// awardCourseSkills adds the skills taught by the enrollment's course to the
// candidate profile and the graph. It returns the awarded skills.
func (s *Server) awardCourseSkills(r *http.Request, e *models.Enrollment) ([]string, error) {
	course, err := s.docs.GetCourse(r.Context(), e.CourseCode)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(course.Skills) == 0 {
		return nil, nil
	}

	name := ""
	if u, err := s.rel.GetUser(r.Context(), e.CandidateEmail); err == nil {
		name = u.Name
	}
	if _, err := s.docs.AddProfileSkills(r.Context(), e.CandidateEmail, name, course.Skills); err != nil {
		return nil, fmt.Errorf("awarding skills of %s: %w", course.Code, err)
	}
	s.syncer.SkillsAdded(r.Context(), e.CandidateEmail, name, course.Skills)
	return course.Skills, nil
}

func (s *Server) gradeEnrollment(w http.ResponseWriter, r *http.Request) error {
	grade, err := queryFloat(r, "calificacion")
	if err != nil {
		return err
	}
	if grade < 0 || grade > 100 {
		return badRequest("Calificación debe estar entre 0 y 100")
	}

	e, err := s.docs.UpdateEnrollment(r.Context(), pathVar(r, "id"), map[string]any{
		"calificacion": grade,
		"completado":   true,
	})
	if err != nil {
		return enrollmentErr(err)
	}
	s.syncer.EnrollmentGraded(r.Context(), e, grade)

	writeJSON(w, http.StatusOK, object{"calificacion": grade, "completado": true})
	return nil
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) error {
	e, err := s.docs.DeleteEnrollment(r.Context(), pathVar(r, "id"))
	if err != nil {
		return enrollmentErr(err)
	}
	s.syncer.EnrollmentWithdrawn(r.Context(), e)

	writeJSON(w, http.StatusOK, object{"message": "Inscripción eliminada exitosamente"})
	return nil
}

func (s *Server) candidateCourses(w http.ResponseWriter, r *http.Request) error {
	email := pathVar(r, "email")
	enrollments, err := s.docs.ListEnrollments(r.Context(), email)
	if err != nil {
		return err
	}

	courses := make(map[string]*models.Course)
	out := make([]object, 0, len(enrollments))
	for _, e := range enrollments {
		item, err := flatten(e, object{"_id": e.ID})
		if err != nil {
			return err
		}
		delete(item, "id")

		course, seen := courses[e.CourseCode]
		if !seen {
			course, err = s.docs.GetCourse(r.Context(), e.CourseCode)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			courses[e.CourseCode] = course
		}
		if course != nil {
			item["curso_nombre"] = course.Name
			item["curso"] = course.Summary()
		}
		out = append(out, item)
	}

	writeJSON(w, http.StatusOK, object{
		"candidato_email": email,
		"total_cursos":    len(out),
		"inscripciones":   out,
	})
	return nil
}
