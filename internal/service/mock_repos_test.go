package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/JabridDave10/distributed-systems-project-backend/internal/model"
	"github.com/JabridDave10/distributed-systems-project-backend/internal/repository"
	pkgerrors "github.com/JabridDave10/distributed-systems-project-backend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%d", len(m.users)+1)
	}
	user.CreatedAt = time.Now()
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByRole(_ context.Context, role string) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.Role == role && u.IsActive {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

// ── Mock DoctorScheduleRepository ──

type mockScheduleRepo struct {
	entries map[string]*model.DoctorSchedule
	seq     int
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{entries: make(map[string]*model.DoctorSchedule)}
}

func (m *mockScheduleRepo) ReplaceByDoctor(_ context.Context, doctorID string, entries []model.DoctorSchedule) error {
	for id, e := range m.entries {
		if e.DoctorID == doctorID {
			delete(m.entries, id)
		}
	}
	for i := range entries {
		m.seq++
		entries[i].ScheduleID = fmt.Sprintf("sch-%d", m.seq)
		e := entries[i]
		m.entries[e.ScheduleID] = &e
	}
	return nil
}

func (m *mockScheduleRepo) ListActiveByDoctor(_ context.Context, doctorID string) ([]model.DoctorSchedule, error) {
	var result []model.DoctorSchedule
	for _, e := range m.entries {
		if e.DoctorID == doctorID && e.IsActive {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DayOfWeek < result[j].DayOfWeek })
	return result, nil
}

func (m *mockScheduleRepo) GetActiveByDoctorAndDay(_ context.Context, doctorID string, dayOfWeek int) (*model.DoctorSchedule, error) {
	for _, e := range m.entries {
		if e.DoctorID == doctorID && e.DayOfWeek == dayOfWeek && e.IsActive {
			c := *e
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleRepo) GetByID(_ context.Context, id string) (*model.DoctorSchedule, error) {
	if e, ok := m.entries[id]; ok {
		c := *e
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleRepo) Update(_ context.Context, entry *model.DoctorSchedule) error {
	c := *entry
	m.entries[entry.ScheduleID] = &c
	return nil
}

func (m *mockScheduleRepo) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := m.entries[id]; !ok {
		return false, nil
	}
	delete(m.entries, id)
	return true, nil
}

// ── Mock AvailabilityExceptionRepository ──

type mockExceptionRepo struct {
	list []*model.AvailabilityException
	seq  int
}

func newMockExceptionRepo() *mockExceptionRepo {
	return &mockExceptionRepo{}
}

func excDate(e *model.AvailabilityException) string {
	return time.Time(e.ExceptionDate).Format(time.DateOnly)
}

func (m *mockExceptionRepo) Create(_ context.Context, exc *model.AvailabilityException) error {
	for _, e := range m.list {
		if e.DoctorID == exc.DoctorID && excDate(e) == excDate(exc) {
			return gorm.ErrDuplicatedKey
		}
	}
	m.insert(exc)
	return nil
}

// insert 绕过唯一约束，模拟历史遗留的同日多条例外
func (m *mockExceptionRepo) insert(exc *model.AvailabilityException) {
	m.seq++
	if exc.ExceptionID == "" {
		exc.ExceptionID = fmt.Sprintf("exc-%d", m.seq)
	}
	exc.CreatedAt = time.Now()
	c := *exc
	m.list = append(m.list, &c)
}

func (m *mockExceptionRepo) GetByID(_ context.Context, id string) (*model.AvailabilityException, error) {
	for _, e := range m.list {
		if e.ExceptionID == id {
			c := *e
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockExceptionRepo) List(_ context.Context, doctorID string, start, end *time.Time) ([]model.AvailabilityException, error) {
	var result []model.AvailabilityException
	for _, e := range m.list {
		if e.DoctorID != doctorID {
			continue
		}
		d := excDate(e)
		if start != nil && d < start.Format(time.DateOnly) {
			continue
		}
		if end != nil && d > end.Format(time.DateOnly) {
			continue
		}
		result = append(result, *e)
	}
	sort.SliceStable(result, func(i, j int) bool { return excDate(&result[i]) < excDate(&result[j]) })
	return result, nil
}

func (m *mockExceptionRepo) ListByDate(_ context.Context, doctorID string, date time.Time) ([]model.AvailabilityException, error) {
	var result []model.AvailabilityException
	for _, e := range m.list {
		if e.DoctorID == doctorID && excDate(e) == date.Format(time.DateOnly) {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockExceptionRepo) Delete(_ context.Context, id string) (bool, error) {
	for i, e := range m.list {
		if e.ExceptionID == id {
			m.list = append(m.list[:i], m.list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ── Mock DoctorSettingsRepository ──

type mockSettingsRepo struct {
	settings map[string]*model.DoctorSettings // key: doctor_id
	reads    int
}

func newMockSettingsRepo() *mockSettingsRepo {
	return &mockSettingsRepo{settings: make(map[string]*model.DoctorSettings)}
}

func (m *mockSettingsRepo) GetByDoctorID(_ context.Context, doctorID string) (*model.DoctorSettings, error) {
	m.reads++
	if s, ok := m.settings[doctorID]; ok {
		c := *s
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSettingsRepo) Create(_ context.Context, settings *model.DoctorSettings) error {
	if _, ok := m.settings[settings.DoctorID]; ok {
		return gorm.ErrDuplicatedKey
	}
	settings.SettingsID = "set-" + settings.DoctorID
	settings.Version = 1
	c := *settings
	m.settings[settings.DoctorID] = &c
	return nil
}

func (m *mockSettingsRepo) Update(_ context.Context, settings *model.DoctorSettings) error {
	stored, ok := m.settings[settings.DoctorID]
	if !ok || stored.Version != settings.Version {
		return pkgerrors.ErrOptimisticLock
	}
	settings.Version++
	settings.UpdatedAt = time.Now()
	c := *settings
	m.settings[settings.DoctorID] = &c
	return nil
}

// ── Mock AppointmentRepository ──

type mockAppointmentRepo struct {
	appts   map[string]*model.Appointment
	seq     int
	locks   int
	users   *mockUserRepo
	created int
}

func newMockAppointmentRepo(users *mockUserRepo) *mockAppointmentRepo {
	return &mockAppointmentRepo{appts: make(map[string]*model.Appointment), users: users}
}

func isConflictStatus(status string) bool {
	for _, s := range model.ConflictStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func (m *mockAppointmentRepo) Create(_ context.Context, appt *model.Appointment) error {
	if isConflictStatus(appt.Status) {
		for _, a := range m.appts {
			if a.DoctorID == appt.DoctorID && a.AppointmentDate.Equal(appt.AppointmentDate) &&
				isConflictStatus(a.Status) && !a.DeletedAt.Valid {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	m.seq++
	if appt.AppointmentID == "" {
		appt.AppointmentID = fmt.Sprintf("appt-%d", m.seq)
	}
	appt.CreatedAt = time.Now()
	c := *appt
	m.appts[appt.AppointmentID] = &c
	m.created++
	return nil
}

func (m *mockAppointmentRepo) withUsers(a model.Appointment) model.Appointment {
	if m.users != nil {
		a.Doctor = m.users.users[a.DoctorID]
		a.Patient = m.users.users[a.PatientID]
	}
	return a
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id string) (*model.Appointment, error) {
	if a, ok := m.appts[id]; ok && !a.DeletedAt.Valid {
		c := m.withUsers(*a)
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAppointmentRepo) Update(_ context.Context, appt *model.Appointment) error {
	c := *appt
	m.appts[appt.AppointmentID] = &c
	return nil
}

func (m *mockAppointmentRepo) SoftDelete(_ context.Context, id string) (bool, error) {
	a, ok := m.appts[id]
	if !ok || a.DeletedAt.Valid {
		return false, nil
	}
	a.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	return true, nil
}

func (m *mockAppointmentRepo) sorted(filter func(a *model.Appointment) bool) []model.Appointment {
	var result []model.Appointment
	for _, a := range m.appts {
		if a.DeletedAt.Valid || !filter(a) {
			continue
		}
		result = append(result, m.withUsers(*a))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AppointmentDate.Before(result[j].AppointmentDate) })
	return result
}

func (m *mockAppointmentRepo) FindActiveByDoctorAndDateRange(_ context.Context, doctorID string, start, end time.Time) ([]model.Appointment, error) {
	return m.sorted(func(a *model.Appointment) bool {
		return a.DoctorID == doctorID && a.Status != model.AppointmentCancelled &&
			!a.AppointmentDate.Before(start) && a.AppointmentDate.Before(end)
	}), nil
}

func (m *mockAppointmentRepo) ExistsConflict(_ context.Context, doctorID string, at time.Time, statuses []string) (bool, error) {
	for _, a := range m.appts {
		if a.DeletedAt.Valid || a.DoctorID != doctorID || !a.AppointmentDate.Equal(at) {
			continue
		}
		for _, s := range statuses {
			if a.Status == s {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *mockAppointmentRepo) LockDoctorDay(_ context.Context, _ string, _ time.Time) error {
	m.locks++
	return nil
}

func (m *mockAppointmentRepo) ListByDoctor(_ context.Context, doctorID string, start, end *time.Time) ([]model.Appointment, error) {
	return m.sorted(func(a *model.Appointment) bool {
		if a.DoctorID != doctorID {
			return false
		}
		if start != nil && a.AppointmentDate.Before(*start) {
			return false
		}
		if end != nil && !a.AppointmentDate.Before(*end) {
			return false
		}
		return true
	}), nil
}

func (m *mockAppointmentRepo) ListByPatient(_ context.Context, patientID string) ([]model.Appointment, error) {
	return m.sorted(func(a *model.Appointment) bool { return a.PatientID == patientID }), nil
}

// ── 测试夹具 ──

type testRepos struct {
	repo         *repository.Repository
	users        *mockUserRepo
	schedules    *mockScheduleRepo
	exceptions   *mockExceptionRepo
	settings     *mockSettingsRepo
	appointments *mockAppointmentRepo
}

func newTestRepos() *testRepos {
	users := newMockUserRepo()
	r := &testRepos{
		users:        users,
		schedules:    newMockScheduleRepo(),
		exceptions:   newMockExceptionRepo(),
		settings:     newMockSettingsRepo(),
		appointments: newMockAppointmentRepo(users),
	}
	r.repo = &repository.Repository{
		User:        r.users,
		Schedule:    r.schedules,
		Exception:   r.exceptions,
		Settings:    r.settings,
		Appointment: r.appointments,
	}
	return r
}

func (r *testRepos) addUser(id, role string) *model.User {
	u := &model.User{
		UserID:    id,
		FirstName: "Test",
		LastName:  id,
		Email:     id + "@example.com",
		Role:      role,
		IsActive:  true,
	}
	r.users.users[id] = u
	return u
}

// addWeekday 为医生添加一条有效周排班
func (r *testRepos) addWeekday(doctorID string, day int, start, end string) {
	r.schedules.seq++
	id := fmt.Sprintf("sch-%d", r.schedules.seq)
	r.schedules.entries[id] = &model.DoctorSchedule{
		ScheduleID: id,
		DoctorID:   doctorID,
		DayOfWeek:  day,
		StartTime:  start,
		EndTime:    end,
		IsActive:   true,
	}
}

var nopLogger = zap.NewNop()
