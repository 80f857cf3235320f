// Package memory provides map-backed implementations of the repository
// interfaces. Used by service tests and as a throwaway dev store; the
// transaction manager snapshots state so a failed transaction rolls
// back exactly like the postgres implementation.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Andres09xZ/FisioLab-app-sub000/internal/model"
	"github.com/Andres09xZ/FisioLab-app-sub000/internal/repository"
	apperrors "github.com/Andres09xZ/FisioLab-app-sub000/pkg/errors"
)

type Store struct {
	mu            sync.Mutex
	appointments  map[uuid.UUID]model.Appointment
	sessions      map[uuid.UUID]model.Session
	plans         map[uuid.UUID]model.TreatmentPlan
	patients      map[uuid.UUID]model.Patient
	practitioners map[uuid.UUID]model.Practitioner
}

func NewStore() *Store {
	return &Store{
		appointments:  make(map[uuid.UUID]model.Appointment),
		sessions:      make(map[uuid.UUID]model.Session),
		plans:         make(map[uuid.UUID]model.TreatmentPlan),
		patients:      make(map[uuid.UUID]model.Patient),
		practitioners: make(map[uuid.UUID]model.Practitioner),
	}
}

// WithTx serializes transactions on the store mutex and restores the
// pre-transaction snapshot if fn fails. Tx-suffixed repository methods
// assume the mutex is already held and receive a nil *sqlx.Tx.
func (s *Store) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.snapshot()
	if err := fn(nil); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

type storeSnapshot struct {
	appointments  map[uuid.UUID]model.Appointment
	sessions      map[uuid.UUID]model.Session
	plans         map[uuid.UUID]model.TreatmentPlan
	patients      map[uuid.UUID]model.Patient
	practitioners map[uuid.UUID]model.Practitioner
}

func (s *Store) snapshot() storeSnapshot {
	snap := storeSnapshot{
		appointments:  make(map[uuid.UUID]model.Appointment, len(s.appointments)),
		sessions:      make(map[uuid.UUID]model.Session, len(s.sessions)),
		plans:         make(map[uuid.UUID]model.TreatmentPlan, len(s.plans)),
		patients:      make(map[uuid.UUID]model.Patient, len(s.patients)),
		practitioners: make(map[uuid.UUID]model.Practitioner, len(s.practitioners)),
	}
	for k, v := range s.appointments {
		snap.appointments[k] = v
	}
	for k, v := range s.sessions {
		snap.sessions[k] = v
	}
	for k, v := range s.plans {
		snap.plans[k] = v
	}
	for k, v := range s.patients {
		snap.patients[k] = v
	}
	for k, v := range s.practitioners {
		snap.practitioners[k] = v
	}
	return snap
}

func (s *Store) restore(snap storeSnapshot) {
	s.appointments = snap.appointments
	s.sessions = snap.sessions
	s.plans = snap.plans
	s.patients = snap.patients
	s.practitioners = snap.practitioners
}

// Seed helpers

func (s *Store) AddPatient(p model.Patient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patients[p.ID] = p
}

func (s *Store) AddPractitioner(p model.Practitioner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.practitioners[p.ID] = p
}

func (s *Store) AddPlan(p model.TreatmentPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[p.ID] = p
}

func (s *Store) AddSession(sess model.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

func (s *Store) AddAppointment(apt model.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments[apt.ID] = apt
}

// Repository accessors

func (s *Store) Appointments() repository.AppointmentRepository {
	return &appointmentRepo{s}
}

func (s *Store) Sessions() repository.SessionRepository {
	return &sessionRepo{s}
}

func (s *Store) Plans() repository.PlanRepository {
	return &planRepo{s}
}

func (s *Store) Patients() repository.PatientRepository {
	return &patientRepo{s}
}

func (s *Store) Practitioners() repository.PractitionerRepository {
	return &practitionerRepo{s}
}

// Appointments

type appointmentRepo struct {
	store *Store
}

func (r *appointmentRepo) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.get(id)
}

func (r *appointmentRepo) get(id uuid.UUID) (*model.Appointment, error) {
	apt, ok := r.store.appointments[id]
	if !ok {
		return nil, apperrors.NewNotFound("appointment", nil)
	}
	return &apt, nil
}

func (r *appointmentRepo) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*model.Appointment
	for _, apt := range r.store.appointments {
		apt := apt
		if filters.PatientID != uuid.Nil && apt.PatientID != filters.PatientID {
			continue
		}
		if filters.PractitionerID != uuid.Nil &&
			(apt.PractitionerID == nil || *apt.PractitionerID != filters.PractitionerID) {
			continue
		}
		if filters.Status != "" && apt.Status != filters.Status {
			continue
		}
		if !filters.StartDate.IsZero() && apt.StartTime.Before(filters.StartDate) {
			continue
		}
		if !filters.EndDate.IsZero() && apt.EndTime.After(filters.EndDate) {
			continue
		}
		out = append(out, &apt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *appointmentRepo) findConflicts(practitionerID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) []*model.Appointment {
	var out []*model.Appointment
	for _, apt := range r.store.appointments {
		apt := apt
		if apt.PractitionerID == nil || *apt.PractitionerID != practitionerID {
			continue
		}
		if apt.Status == model.AppointmentStatusCancelled {
			continue
		}
		if excludeID != nil && apt.ID == *excludeID {
			continue
		}
		if apt.StartTime.Before(end) && apt.EndTime.After(start) {
			out = append(out, &apt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (r *appointmentRepo) FindConflicts(ctx context.Context, practitionerID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]*model.Appointment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.findConflicts(practitionerID, start, end, excludeID), nil
}

func (r *appointmentRepo) FindConflictsTx(ctx context.Context, tx *sqlx.Tx, practitionerID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]*model.Appointment, error) {
	return r.findConflicts(practitionerID, start, end, excludeID), nil
}

func (r *appointmentRepo) LockPractitionerTx(ctx context.Context, tx *sqlx.Tx, practitionerID uuid.UUID) error {
	// The store mutex already serializes transactions.
	return nil
}

func (r *appointmentRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, appointment *model.Appointment) error {
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()
	r.store.appointments[appointment.ID] = *appointment
	return nil
}

func (r *appointmentRepo) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Appointment, error) {
	return r.get(id)
}

func (r *appointmentRepo) UpdateTx(ctx context.Context, tx *sqlx.Tx, appointment *model.Appointment) error {
	if _, ok := r.store.appointments[appointment.ID]; !ok {
		return apperrors.NewNotFound("appointment", nil)
	}
	appointment.UpdatedAt = time.Now()
	r.store.appointments[appointment.ID] = *appointment
	return nil
}

func (r *appointmentRepo) DeleteTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	if _, ok := r.store.appointments[id]; !ok {
		return apperrors.NewNotFound("appointment", nil)
	}
	delete(r.store.appointments, id)
	return nil
}

func (r *appointmentRepo) DeleteLinkedToPlanTx(ctx context.Context, tx *sqlx.Tx, planID uuid.UUID) (int64, error) {
	var deleted int64
	for _, sess := range r.store.sessions {
		if sess.PlanID != planID || sess.AppointmentID == nil {
			continue
		}
		if _, ok := r.store.appointments[*sess.AppointmentID]; ok {
			delete(r.store.appointments, *sess.AppointmentID)
			deleted++
		}
	}
	return deleted, nil
}

// Sessions

type sessionRepo struct {
	store *Store
}

func (r *sessionRepo) Get(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.get(id)
}

func (r *sessionRepo) get(id uuid.UUID) (*model.Session, error) {
	sess, ok := r.store.sessions[id]
	if !ok {
		return nil, apperrors.NewNotFound("session", nil)
	}
	return &sess, nil
}

func (r *sessionRepo) ListByPlan(ctx context.Context, planID uuid.UUID) ([]*model.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*model.Session
	for _, sess := range r.store.sessions {
		sess := sess
		if sess.PlanID == planID {
			out = append(out, &sess)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.ScheduledAt == nil && b.ScheduledAt == nil:
			return a.CreatedAt.Before(b.CreatedAt)
		case a.ScheduledAt == nil:
			return false
		case b.ScheduledAt == nil:
			return true
		default:
			return a.ScheduledAt.Before(*b.ScheduledAt)
		}
	})
	return out, nil
}

func (r *sessionRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, session *model.Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	session.CreatedAt = time.Now()
	session.UpdatedAt = time.Now()
	r.store.sessions[session.ID] = *session
	return nil
}

func (r *sessionRepo) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Session, error) {
	return r.get(id)
}

func (r *sessionRepo) UpdateTx(ctx context.Context, tx *sqlx.Tx, session *model.Session) error {
	if _, ok := r.store.sessions[session.ID]; !ok {
		return apperrors.NewNotFound("session", nil)
	}
	session.UpdatedAt = time.Now()
	r.store.sessions[session.ID] = *session
	return nil
}

func (r *sessionRepo) GetByAppointmentTx(ctx context.Context, tx *sqlx.Tx, appointmentID uuid.UUID) (*model.Session, error) {
	for _, sess := range r.store.sessions {
		sess := sess
		if sess.AppointmentID != nil && *sess.AppointmentID == appointmentID {
			return &sess, nil
		}
	}
	return nil, nil
}

func (r *sessionRepo) DeleteByPlanTx(ctx context.Context, tx *sqlx.Tx, planID uuid.UUID) (int64, error) {
	var deleted int64
	for id, sess := range r.store.sessions {
		if sess.PlanID == planID {
			delete(r.store.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

// Plans

type planRepo struct {
	store *Store
}

func (r *planRepo) Create(ctx context.Context, plan *model.TreatmentPlan) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	plan.CreatedAt = time.Now()
	plan.UpdatedAt = time.Now()
	r.store.plans[plan.ID] = *plan
	return nil
}

func (r *planRepo) Get(ctx context.Context, id uuid.UUID) (*model.TreatmentPlan, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.get(id)
}

func (r *planRepo) get(id uuid.UUID) (*model.TreatmentPlan, error) {
	plan, ok := r.store.plans[id]
	if !ok {
		return nil, apperrors.NewNotFound("treatment plan", nil)
	}
	return &plan, nil
}

func (r *planRepo) Update(ctx context.Context, plan *model.TreatmentPlan) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.update(plan)
}

func (r *planRepo) update(plan *model.TreatmentPlan) error {
	if _, ok := r.store.plans[plan.ID]; !ok {
		return apperrors.NewNotFound("treatment plan", nil)
	}
	plan.UpdatedAt = time.Now()
	r.store.plans[plan.ID] = *plan
	return nil
}

func (r *planRepo) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.TreatmentPlan, error) {
	return r.get(id)
}

func (r *planRepo) UpdateTx(ctx context.Context, tx *sqlx.Tx, plan *model.TreatmentPlan) error {
	return r.update(plan)
}

func (r *planRepo) DeleteTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	if _, ok := r.store.plans[id]; !ok {
		return apperrors.NewNotFound("treatment plan", nil)
	}
	delete(r.store.plans, id)
	return nil
}

// Patients / practitioners

type patientRepo struct {
	store *Store
}

func (r *patientRepo) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.patients[id]
	if !ok {
		return nil, apperrors.NewNotFound("patient", nil)
	}
	return &p, nil
}

func (r *patientRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	_, ok := r.store.patients[id]
	return ok, nil
}

type practitionerRepo struct {
	store *Store
}

func (r *practitionerRepo) Get(ctx context.Context, id uuid.UUID) (*model.Practitioner, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.practitioners[id]
	if !ok {
		return nil, apperrors.NewNotFound("practitioner", nil)
	}
	return &p, nil
}

func (r *practitionerRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	_, ok := r.store.practitioners[id]
	return ok, nil
}
