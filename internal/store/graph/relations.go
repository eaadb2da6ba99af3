package graph

import (
	"context"

	"github.com/talentum-plus/talentum/internal/models"
)

// unspecifiedLocation is stored on offers published without a location.
const unspecifiedLocation = "No especificado"

func (s *Store) LinkProcess(ctx context.Context, candidateID, position, status string) error {
	_, err := s.write(ctx, "linking process of "+candidateID, `
		MERGE (r:Rol {nombre: $puesto})
		WITH r
		MATCH (c:Candidato {id: $candidato_id})
		MERGE (c)-[rel:POSTULA_A]->(r)
		SET rel.estado = $estado, rel.fecha = datetime()`,
		map[string]any{"candidato_id": candidateID, "puesto": position, "estado": status},
	)
	return err
}

func (s *Store) LinkMentor(ctx context.Context, candidateID, mentorID, kind string) error {
	_, err := s.write(ctx, "linking mentor of "+candidateID, `
		MATCH (c:Candidato {id: $candidato_id})
		MERGE (m:Mentor {id: $mentor_id})
		MERGE (c)-[r:MENTOREADO_POR]->(m)
		SET r.tipo = $tipo, r.ultima_interaccion = datetime()`,
		map[string]any{"candidato_id": candidateID, "mentor_id": mentorID, "tipo": kind},
	)
	return err
}

func (s *Store) EnrollCourse(ctx context.Context, email, courseCode, courseName string) error {
	_, err := s.write(ctx, "enrolling "+email, `
		MERGE (cu:Curso {codigo: $codigo})
		SET cu.nombre = $nombre
		WITH cu
		MATCH (c:Candidato {id: $email})
		MERGE (c)-[r:INSCRITO_EN]->(cu)
		SET r.progreso = 0.0, r.fecha = datetime()`,
		map[string]any{"email": email, "codigo": courseCode, "nombre": courseName},
	)
	return err
}

// SetCourseProgress updates INSCRITO_EN and adds COMPLETO once completed.
func (s *Store) SetCourseProgress(ctx context.Context, email, courseCode string, progress float64, completed bool) error {
	params := map[string]any{"email": email, "codigo": courseCode, "progreso": progress}

	_, err := s.write(ctx, "updating progress of "+email, `
		MATCH (c:Candidato {id: $email})-[r:INSCRITO_EN]->(:Curso {codigo: $codigo})
		SET r.progreso = $progreso`, params)
	if err != nil || !completed {
		return err
	}

	_, err = s.write(ctx, "completing course of "+email, `
		MATCH (c:Candidato {id: $email})
		MATCH (cu:Curso {codigo: $codigo})
		MERGE (c)-[r:COMPLETO]->(cu)
		SET r.fecha = datetime()`, params)
	return err
}

func (s *Store) SetCourseGrade(ctx context.Context, email, courseCode string, grade float64) error {
	_, err := s.write(ctx, "grading course of "+email, `
		MATCH (c:Candidato {id: $email})-[r:COMPLETO]->(:Curso {codigo: $codigo})
		SET r.calificacion = $calificacion`,
		map[string]any{"email": email, "codigo": courseCode, "calificacion": grade},
	)
	return err
}

func (s *Store) UnenrollCourse(ctx context.Context, email, courseCode string) error {
	_, err := s.write(ctx, "unenrolling "+email, `
		MATCH (c:Candidato {id: $email})-[r:INSCRITO_EN|COMPLETO]->(:Curso {codigo: $codigo})
		DELETE r`,
		map[string]any{"email": email, "codigo": courseCode},
	)
	return err
}

func (s *Store) MergeCompany(ctx context.Context, c *models.Company) error {
	_, err := s.write(ctx, "merging company "+c.CUIT, "\n"+
		"MERGE (e:Empresa {id: $cuit})\n"+
		"SET e.nombre = $nombre, e.sector = $sector, e.`tamaño` = $size",
		map[string]any{"cuit": c.CUIT, "nombre": c.Name, "sector": c.Sector, "size": c.Size},
	)
	return err
}

// CreateOffer stores the offer node, its publisher and the skills it requires.
func (s *Store) CreateOffer(ctx context.Context, id string, o *models.Offer) error {
	location := o.Location
	if location == "" {
		location = unspecifiedLocation
	}

	_, err := s.write(ctx, "creating offer "+id, `
		MERGE (of:Oferta {id: $id})
		SET of.titulo = $titulo, of.modalidad = $modalidad, of.ubicacion = $ubicacion
		MERGE (u:Usuario {email: $empresa})
		MERGE (u)-[:PUBLICA]->(of)
		WITH of
		UNWIND $skills AS skill
		MERGE (s:Skill {nombre: skill})
		MERGE (of)-[:REQUIERE]->(s)`,
		map[string]any{
			"id":        id,
			"titulo":    o.Title,
			"modalidad": o.Modality,
			"ubicacion": location,
			"empresa":   o.Company,
			"skills":    stringsParam(o.RequiredSkills),
		},
	)
	return err
}

func (s *Store) LinkApplication(ctx context.Context, email, offerID string) error {
	_, err := s.write(ctx, "linking application of "+email, `
		MERGE (c:Candidato {id: $email})
		MERGE (of:Oferta {id: $oferta_id})
		MERGE (c)-[r:APLICA_A]->(of)
		SET r.estado = $estado, r.fecha = datetime()`,
		map[string]any{"email": email, "oferta_id": offerID, "estado": models.ApplicationPending},
	)
	return err
}

// Connect links two users with an undirected CONECTADO_CON relation.
func (s *Store) Connect(ctx context.Context, a, b string) error {
	_, err := s.write(ctx, "connecting "+a+" and "+b, `
		MERGE (u1:Usuario {email: $a})
		MERGE (u2:Usuario {email: $b})
		MERGE (u1)-[:CONECTADO_CON]-(u2)`,
		map[string]any{"a": a, "b": b},
	)
	return err
}
