// Package memstore provides in-memory implementations of the engine's ports
// for tests.
package memstore

import (
	"context"
	"slices"
	"sort"
	"strconv"
	"sync"
	"time"

	"hrpayroll/internal/domain/apperr"
	"hrpayroll/internal/domain/audit"
	"hrpayroll/internal/domain/core"
	"hrpayroll/internal/domain/legal"
	"hrpayroll/internal/domain/payroll"
	"hrpayroll/internal/domain/severance"
)

type Employees struct {
	mu   sync.RWMutex
	rows map[string]core.Employee
}

func NewEmployees(employees ...core.Employee) *Employees {
	s := &Employees{rows: map[string]core.Employee{}}
	for _, emp := range employees {
		s.Put(emp)
	}
	return s
}

func (s *Employees) Put(emp core.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[emp.ID] = emp
}

func (s *Employees) GetByID(_ context.Context, employeeID string) (core.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	emp, ok := s.rows[employeeID]
	if !ok {
		return core.Employee{}, apperr.ErrNotFound
	}
	return emp, nil
}

func (s *Employees) ListActive(_ context.Context) ([]core.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Employee
	for _, emp := range s.rows {
		if emp.Active() {
			out = append(out, emp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type Contracts struct {
	mu   sync.RWMutex
	rows map[string]core.Contract
}

func NewContracts(contracts ...core.Contract) *Contracts {
	s := &Contracts{rows: map[string]core.Contract{}}
	for _, c := range contracts {
		s.Put(c)
	}
	return s
}

func (s *Contracts) Put(c core.Contract) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[c.ID] = c
}

func (s *Contracts) GetActive(_ context.Context, employeeID string) (core.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.rows {
		if c.EmployeeID == employeeID && c.Active {
			return c, nil
		}
	}
	return core.Contract{}, apperr.ErrNotFound
}

func (s *Contracts) GetByID(_ context.Context, contractID string) (core.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.rows[contractID]
	if !ok {
		return core.Contract{}, apperr.ErrNotFound
	}
	return c, nil
}

type TimeRecords struct {
	mu   sync.RWMutex
	rows []core.DailyTimeRecord
}

func NewTimeRecords(records ...core.DailyTimeRecord) *TimeRecords {
	return &TimeRecords{rows: records}
}

func (s *TimeRecords) Add(records ...core.DailyTimeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, records...)
}

func (s *TimeRecords) GetRange(_ context.Context, employeeID string, start, end time.Time) ([]core.DailyTimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start, end = core.Date(start), core.Date(end)
	var out []core.DailyTimeRecord
	for _, r := range s.rows {
		day := core.Date(r.Date)
		if r.EmployeeID == employeeID && !day.Before(start) && !day.After(end) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// Runs mirrors the SQL upsert: a conflicting save keeps the stored ID and
// creation time, and a paid or posted row is never overwritten.
type Runs struct {
	mu    sync.RWMutex
	rows  map[string]payroll.Run
	Saves int
}

func NewRuns() *Runs {
	return &Runs{rows: map[string]payroll.Run{}}
}

func (s *Runs) Put(run payroll.Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[run.ID] = run
}

func (s *Runs) find(employeeID string, period time.Time) (payroll.Run, bool) {
	for _, run := range s.rows {
		if run.EmployeeID == employeeID && run.Period.Equal(payroll.Period(period)) {
			return run, true
		}
	}
	return payroll.Run{}, false
}

func (s *Runs) GetByEmployeeAndPeriod(_ context.Context, employeeID string, period time.Time) (payroll.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.find(employeeID, period)
	if !ok {
		return payroll.Run{}, apperr.ErrNotFound
	}
	return run, nil
}

func (s *Runs) GetByID(_ context.Context, runID string) (payroll.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.rows[runID]
	if !ok {
		return payroll.Run{}, apperr.ErrNotFound
	}
	return run, nil
}

func (s *Runs) Save(_ context.Context, run payroll.Run) (payroll.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.find(run.EmployeeID, run.Period); ok {
		if existing.Status.Locked() {
			return payroll.Run{}, payroll.ErrRunLocked
		}
		run.ID = existing.ID
		run.CreatedAt = existing.CreatedAt
	}
	s.rows[run.ID] = run
	s.Saves++
	return run, nil
}

func (s *Runs) Update(_ context.Context, run payroll.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[run.ID]; !ok {
		return apperr.ErrNotFound
	}
	s.rows[run.ID] = run
	return nil
}

func (s *Runs) ListByPeriod(_ context.Context, period time.Time) ([]payroll.Run, error) {
	return s.filter(func(run payroll.Run) bool { return run.Period.Equal(payroll.Period(period)) }), nil
}

func (s *Runs) ListByStatus(_ context.Context, status payroll.Status) ([]payroll.Run, error) {
	return s.filter(func(run payroll.Run) bool { return run.Status == status }), nil
}

func (s *Runs) filter(keep func(payroll.Run) bool) []payroll.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []payroll.Run
	for _, run := range s.rows {
		if keep(run) {
			out = append(out, run)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Period.Equal(out[j].Period) {
			return out[i].Period.Before(out[j].Period)
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out
}

func (s *Runs) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

type benefitKey struct {
	employeeID string
	year       int
	kind       severance.BenefitKind
}

type Benefits struct {
	mu   sync.RWMutex
	rows map[benefitKey]severance.BenefitRecord
}

func NewBenefits(records ...severance.BenefitRecord) *Benefits {
	s := &Benefits{rows: map[benefitKey]severance.BenefitRecord{}}
	for _, rec := range records {
		s.rows[benefitKey{rec.EmployeeID, rec.Year, rec.Kind}] = rec
	}
	return s
}

func (s *Benefits) FindBenefit(_ context.Context, employeeID string, year int, kind severance.BenefitKind) (severance.BenefitRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.rows[benefitKey{employeeID, year, kind}]
	if !ok {
		return severance.BenefitRecord{}, apperr.ErrNotFound
	}
	return rec, nil
}

func (s *Benefits) SaveBenefit(_ context.Context, rec severance.BenefitRecord) (severance.BenefitRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := benefitKey{rec.EmployeeID, rec.Year, rec.Kind}
	if existing, ok := s.rows[key]; ok {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	}
	s.rows[key] = rec
	return rec, nil
}

type Statements struct {
	mu   sync.RWMutex
	rows map[string]severance.Statement
}

func NewStatements() *Statements {
	return &Statements{rows: map[string]severance.Statement{}}
}

func (s *Statements) SaveStatement(_ context.Context, st severance.Statement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[st.ID] = st
	return nil
}

func (s *Statements) GetStatement(_ context.Context, statementID string) (severance.Statement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.rows[statementID]
	if !ok {
		return severance.Statement{}, apperr.ErrNotFound
	}
	return st, nil
}

func (s *Statements) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

type AuditEvent struct {
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Before     any
	After      any
}

type Audit struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (a *Audit) Record(_ context.Context, actorID, action, entityType, entityID string, before, after any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, AuditEvent{actorID, action, entityType, entityID, before, after})
	return nil
}

func (a *Audit) Events() []AuditEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]AuditEvent(nil), a.events...)
}

func (a *Audit) matching(filter audit.Filter) []audit.Event {
	var out []audit.Event
	for i, e := range a.Events() {
		if (filter.Action != "" && e.Action != filter.Action) ||
			(filter.EntityType != "" && e.EntityType != filter.EntityType) ||
			(filter.EntityID != "" && e.EntityID != filter.EntityID) {
			continue
		}
		out = append(out, audit.Event{
			ID:         strconv.Itoa(i + 1),
			ActorID:    e.ActorID,
			Action:     e.Action,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
		})
	}
	return out
}

// List returns matching events newest first. Before and after states are
// not kept in memory.
func (a *Audit) List(_ context.Context, filter audit.Filter, _ bool, limit, offset int) ([]audit.Event, error) {
	events := a.matching(filter)
	slices.Reverse(events)
	if offset >= len(events) {
		return nil, nil
	}
	return events[offset:min(offset+limit, len(events))], nil
}

func (a *Audit) Count(_ context.Context, filter audit.Filter) (int, error) {
	return len(a.matching(filter)), nil
}

// Actions lists the recorded actions in order.
func (a *Audit) Actions() []string {
	var out []string
	for _, e := range a.Events() {
		out = append(out, e.Action)
	}
	return out
}

// Legal is a publishable legal parameter registry.
type Legal struct {
	mu    sync.Mutex
	years map[int]legal.Configuration
}

func NewLegal(configs ...legal.Configuration) *Legal {
	l := &Legal{years: map[int]legal.Configuration{}}
	for _, cfg := range configs {
		l.years[cfg.Year] = cfg
	}
	return l
}

func (l *Legal) GetEffective(context.Context) (legal.Configuration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, cfg := range l.years {
		if cfg.Effective {
			return cfg, nil
		}
	}
	return legal.Configuration{}, legal.ErrNoEffective
}

func (l *Legal) GetByYear(_ context.Context, year int) (legal.Configuration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cfg, ok := l.years[year]
	if !ok {
		return legal.Configuration{}, apperr.ErrNotFound
	}
	return cfg, nil
}

func (l *Legal) List(context.Context) ([]legal.Configuration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]legal.Configuration, 0, len(l.years))
	for _, cfg := range l.years {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out, nil
}

func (l *Legal) Publish(_ context.Context, cfg legal.Configuration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.years[cfg.Year]; ok {
		return apperr.Newf(apperr.KindInvalidState, "legal configuration for %d is already published", cfg.Year)
	}
	if cfg.Effective {
		l.clearEffective()
	}
	l.years[cfg.Year] = cfg
	return nil
}

func (l *Legal) Activate(_ context.Context, year int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	cfg, ok := l.years[year]
	if !ok {
		return apperr.ErrNotFound
	}
	l.clearEffective()
	cfg.Effective = true
	l.years[year] = cfg
	return nil
}

func (l *Legal) clearEffective() {
	for year, cfg := range l.years {
		cfg.Effective = false
		l.years[year] = cfg
	}
}
