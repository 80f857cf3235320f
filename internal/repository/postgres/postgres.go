package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/Andres09xZ/FisioLab-app-sub000/internal/repository"
)

type appointmentRepository struct {
	db *sqlx.DB
}

type sessionRepository struct {
	db *sqlx.DB
}

type planRepository struct {
	db *sqlx.DB
}

type patientRepository struct {
	db *sqlx.DB
}

type practitionerRepository struct {
	db *sqlx.DB
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func NewSessionRepository(db *sqlx.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func NewPlanRepository(db *sqlx.DB) repository.PlanRepository {
	return &planRepository{db: db}
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{db: db}
}

func NewPractitionerRepository(db *sqlx.DB) repository.PractitionerRepository {
	return &practitionerRepository{db: db}
}
