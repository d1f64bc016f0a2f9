// Package memory is a process-local Repository with the same semantics as the
// PostgreSQL one. It backs tests and the DATABASE_URL=memory:// demo mode.
package memory

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-desk/internal/models"
	"github.com/SAP-F-2025/exam-desk/internal/repositories"
)

// Store holds every table in maps guarded by one mutex.
type Store struct {
	mu sync.Mutex

	nextID    uint
	questions map[uint]models.Question
	templates map[uint]models.Template
	students  map[uint]models.Student
	solved    map[uint]map[uint]bool
	tests     map[uint]models.TestRecord
	testQs    map[uint][]uint
	settings  map[string]string
	now       func() time.Time
	rng       *rand.Rand
}

type Option func(*Store)

// WithRand fixes the source used to sample random tests.
func WithRand(r *rand.Rand) Option {
	return func(m *Store) {
		m.rng = r
	}
}

func New(opts ...Option) *Store {
	m := &Store{
		questions: map[uint]models.Question{},
		templates: map[uint]models.Template{},
		students:  map[uint]models.Student{},
		solved:    map[uint]map[uint]bool{},
		tests:     map[uint]models.TestRecord{},
		testQs:    map[uint][]uint{},
		settings:  map[string]string{},
		now:       time.Now,
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Snapshot is a copy of the store contents.
type Snapshot struct {
	Questions map[uint]models.Question
	Templates map[uint]models.Template
	Students  map[uint]models.Student
	Tests     map[uint]models.TestRecord
	Solved    map[uint][]uint
	Settings  map[string]string
}

func (m *Store) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Questions: make(map[uint]models.Question, len(m.questions)),
		Templates: make(map[uint]models.Template, len(m.templates)),
		Students:  make(map[uint]models.Student, len(m.students)),
		Tests:     make(map[uint]models.TestRecord, len(m.tests)),
		Solved:    make(map[uint][]uint, len(m.solved)),
		Settings:  make(map[string]string, len(m.settings)),
	}
	for k, v := range m.questions {
		snap.Questions[k] = v
	}
	for k, v := range m.templates {
		snap.Templates[k] = v
	}
	for k, v := range m.students {
		snap.Students[k] = v
	}
	for k, v := range m.tests {
		snap.Tests[k] = v
	}
	for k, set := range m.solved {
		for id := range set {
			snap.Solved[k] = append(snap.Solved[k], id)
		}
		sort.Slice(snap.Solved[k], func(i, j int) bool { return snap.Solved[k][i] < snap.Solved[k][j] })
	}
	for k, v := range m.settings {
		snap.Settings[k] = v
	}
	return snap
}

// SetRawSetting stores value without any processing.
func (m *Store) SetRawSetting(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
}

// AddQuestion seeds a question and returns its id.
func (m *Store) AddQuestion(text, topic string, difficulty int, imagePath string) uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.questions[id] = models.Question{
		ID:         id,
		Text:       text,
		Topic:      &topic,
		Difficulty: &difficulty,
		ImagePath:  imagePath,
		CreatedAt:  m.now(),
	}
	return id
}

func (m *Store) id() uint {
	m.nextID++
	return m.nextID
}

func (m *Store) Question() repositories.QuestionRepository { return questions{m} }
func (m *Store) Template() repositories.TemplateRepository { return templates{m} }
func (m *Store) Student() repositories.StudentRepository   { return students{m} }
func (m *Store) Test() repositories.TestRepository         { return tests{m} }
func (m *Store) Setting() repositories.SettingRepository   { return settings{m} }

// WithTransaction runs fn directly; there is no rollback.
func (m *Store) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *Store) Ping(ctx context.Context) error { return nil }
func (m *Store) Close() error                   { return nil }

// Manager adapts a Store to the repository lifecycle used by the host.
type Manager struct {
	store *Store
}

func NewManager(store *Store) *Manager {
	return &Manager{store: store}
}

func (mm *Manager) Initialize() error                      { return nil }
func (mm *Manager) GetRepository() repositories.Repository { return mm.store }
func (mm *Manager) HealthCheck(ctx context.Context) error  { return mm.store.Ping(ctx) }
func (mm *Manager) Shutdown(ctx context.Context) error     { return mm.store.Close() }

// ===== QUESTIONS =====

type questions struct{ m *Store }

func (r questions) Create(_ context.Context, _ *gorm.DB, q *models.Question) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	q.ID = r.m.id()
	if q.CreatedAt.IsZero() {
		q.CreatedAt = r.m.now()
	}
	r.m.questions[q.ID] = *q
	return nil
}

func (r questions) GetByIDs(_ context.Context, _ *gorm.DB, ids []uint) ([]models.Question, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []models.Question{}
	for _, id := range ids {
		if q, ok := r.m.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

// newestFirst mirrors ORDER BY created_at DESC, id DESC.
func (r questions) newestFirst() []models.Question {
	out := make([]models.Question, 0, len(r.m.questions))
	for _, q := range r.m.questions {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r questions) ListAll(_ context.Context, _ *gorm.DB) ([]models.Question, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.newestFirst(), nil
}

func matches(q models.Question, topic *string, bucket *int) bool {
	if topic != nil && *topic != "" && (q.Topic == nil || *q.Topic != *topic) {
		return false
	}
	if bucket != nil {
		lo, hi := models.DifficultyRange(*bucket)
		if q.Difficulty == nil || *q.Difficulty < lo || *q.Difficulty > hi {
			return false
		}
	}
	return true
}

func containsFold(s *string, term string) bool {
	return s != nil && strings.Contains(strings.ToLower(*s), term)
}

func (r questions) List(_ context.Context, _ *gorm.DB, f repositories.QuestionFilters) ([]models.Question, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	term := strings.ToLower(strings.TrimSpace(f.Search))
	filtered := []models.Question{}
	for _, q := range r.newestFirst() {
		if term != "" && !containsFold(&q.Text, term) && !containsFold(q.Topic, term) {
			continue
		}
		if matches(q, f.Topic, f.Difficulty) {
			filtered = append(filtered, q)
		}
	}

	total := int64(len(filtered))
	if f.Offset >= len(filtered) {
		return []models.Question{}, total, nil
	}
	filtered = filtered[f.Offset:]
	if f.Limit > 0 && f.Limit < len(filtered) {
		filtered = filtered[:f.Limit]
	}
	return filtered, total, nil
}

// GetRandom shuffles every match and keeps the first Count.
func (r questions) GetRandom(_ context.Context, _ *gorm.DB, f repositories.RandomQuestionFilters) ([]models.Question, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []models.Question{}
	for _, q := range r.m.questions {
		if f.ExcludeSolvedBy != nil && r.m.solved[*f.ExcludeSolvedBy][q.ID] {
			continue
		}
		if matches(q, f.Topic, f.Difficulty) {
			out = append(out, q)
		}
	}
	// Map order is not a shuffle; sort first so a seeded source repeats.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	r.m.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if len(out) > f.Count {
		out = out[:f.Count]
	}
	return out, nil
}

func (r questions) GetTopics(_ context.Context, _ *gorm.DB) ([]string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	seen := map[string]bool{}
	out := []string{}
	for _, q := range r.m.questions {
		if q.Topic != nil && *q.Topic != "" && !seen[*q.Topic] {
			seen[*q.Topic] = true
			out = append(out, *q.Topic)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r questions) DeleteBatch(_ context.Context, _ *gorm.DB, ids []uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	drop := make(map[uint]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
		delete(r.m.questions, id)
	}
	for _, set := range r.m.solved {
		for id := range drop {
			delete(set, id)
		}
	}
	for testID, qs := range r.m.testQs {
		kept := qs[:0]
		for _, id := range qs {
			if !drop[id] {
				kept = append(kept, id)
			}
		}
		r.m.testQs[testID] = kept
	}
	return nil
}

func (r questions) DeleteAll(_ context.Context, _ *gorm.DB) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.questions = map[uint]models.Question{}
	r.m.solved = map[uint]map[uint]bool{}
	for id := range r.m.testQs {
		r.m.testQs[id] = nil
	}
	return nil
}

func (r questions) Stats(_ context.Context, _ *gorm.DB) (*models.QuestionStats, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stats := &models.QuestionStats{
		TotalQuestions: int64(len(r.m.questions)),
		TotalTests:     int64(len(r.m.tests)),
		TotalStudents:  int64(len(r.m.students)),
		ByTopic:        map[string]int64{},
		ByDifficulty:   map[string]int64{},
	}
	for _, q := range r.m.questions {
		topic := models.DefaultTopic
		if q.Topic != nil && *q.Topic != "" {
			topic = *q.Topic
		}
		stats.ByTopic[topic]++
		stats.ByDifficulty[models.DifficultyLabel(q.Difficulty)]++
	}
	return stats, nil
}

// ===== TEMPLATES =====

type templates struct{ m *Store }

func (r templates) Create(_ context.Context, _ *gorm.DB, t *models.Template) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t.ID = r.m.id()
	t.CreatedAt = r.m.now()
	r.m.templates[t.ID] = *t
	return nil
}

func (r templates) GetByID(_ context.Context, _ *gorm.DB, id uint) (*models.Template, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.templates[id]
	if !ok {
		return nil, fmt.Errorf("template %d: %w", id, repositories.ErrNotFound)
	}
	return &t, nil
}

func (r templates) List(_ context.Context, _ *gorm.DB) ([]models.Template, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []models.Template{}
	for _, t := range r.m.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r templates) Update(_ context.Context, _ *gorm.DB, id uint, name, marginsJSON string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.templates[id]
	if !ok {
		return fmt.Errorf("template %d: %w", id, repositories.ErrNotFound)
	}
	t.Name, t.MarginsJSON = name, marginsJSON
	r.m.templates[id] = t
	return nil
}

func (r templates) Delete(_ context.Context, _ *gorm.DB, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.templates[id]; !ok {
		return fmt.Errorf("template %d: %w", id, repositories.ErrNotFound)
	}
	delete(r.m.templates, id)
	return nil
}

// ===== STUDENTS =====

type students struct{ m *Store }

func (r students) Create(_ context.Context, _ *gorm.DB, s *models.Student) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.students {
		if existing.Name == s.Name {
			return fmt.Errorf("student %q: %w", s.Name, repositories.ErrDuplicate)
		}
	}
	s.ID = r.m.id()
	s.CreatedAt = r.m.now()
	r.m.students[s.ID] = *s
	return nil
}

func (r students) List(_ context.Context, _ *gorm.DB) ([]models.Student, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []models.Student{}
	for _, s := range r.m.students {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r students) Delete(_ context.Context, _ *gorm.DB, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.students[id]; !ok {
		return fmt.Errorf("student %d: %w", id, repositories.ErrNotFound)
	}
	delete(r.m.students, id)
	delete(r.m.solved, id)
	for testID, t := range r.m.tests {
		if t.StudentID != nil && *t.StudentID == id {
			t.StudentID = nil
			r.m.tests[testID] = t
		}
	}
	return nil
}

func (r students) MarkSolved(_ context.Context, _ *gorm.DB, studentID uint, questionIDs []uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.solved[studentID] == nil {
		r.m.solved[studentID] = map[uint]bool{}
	}
	for _, id := range questionIDs {
		r.m.solved[studentID][id] = true
	}
	return nil
}

func (r students) SolvedQuestionIDs(_ context.Context, _ *gorm.DB, studentID uint) ([]uint, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []uint{}
	for id := range r.m.solved[studentID] {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// ===== TESTS =====

type tests struct{ m *Store }

func (r tests) Create(_ context.Context, _ *gorm.DB, t *models.TestRecord, questionIDs []uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t.ID = r.m.id()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = r.m.now()
	}
	r.m.tests[t.ID] = *t
	r.m.testQs[t.ID] = append([]uint(nil), questionIDs...)
	return nil
}

func (r tests) List(_ context.Context, _ *gorm.DB) ([]models.TestSummary, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	records := make([]models.TestRecord, 0, len(r.m.tests))
	for _, t := range r.m.tests {
		records = append(records, t)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID > records[j].ID
	})

	out := make([]models.TestSummary, 0, len(records))
	for _, t := range records {
		summary := models.TestSummary{
			ID:            t.ID,
			Date:          t.CreatedAt.Format("2006-01-02 15:04"),
			QuestionCount: len(r.m.testQs[t.ID]),
		}
		if t.StudentID != nil {
			if s, ok := r.m.students[*t.StudentID]; ok {
				name := s.Name
				summary.StudentName = &name
			}
		}
		out = append(out, summary)
	}
	return out, nil
}

func (r tests) GetQuestions(_ context.Context, _ *gorm.DB, testID uint) ([]models.Question, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.tests[testID]; !ok {
		return nil, fmt.Errorf("test %d: %w", testID, repositories.ErrNotFound)
	}
	out := []models.Question{}
	for _, id := range r.m.testQs[testID] {
		if q, ok := r.m.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r tests) GetAnswerKey(_ context.Context, _ *gorm.DB, testID uint) (*string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.tests[testID]
	if !ok {
		return nil, fmt.Errorf("test %d: %w", testID, repositories.ErrNotFound)
	}
	if len(t.AnswerKey) == 0 {
		return nil, nil
	}
	key := string(t.AnswerKey)
	return &key, nil
}

func (r tests) SaveAnswerKey(_ context.Context, _ *gorm.DB, testID uint, answerKey string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.tests[testID]
	if !ok {
		return fmt.Errorf("test %d: %w", testID, repositories.ErrNotFound)
	}
	t.AnswerKey = []byte(answerKey)
	r.m.tests[testID] = t
	return nil
}

func (r tests) DeleteAll(_ context.Context, _ *gorm.DB) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.tests = map[uint]models.TestRecord{}
	r.m.testQs = map[uint][]uint{}
	return nil
}

// ===== SETTINGS =====

type settings struct{ m *Store }

func (r settings) Get(_ context.Context, _ *gorm.DB, key string) (*string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	v, ok := r.m.settings[key]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r settings) Save(_ context.Context, _ *gorm.DB, key, value string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.settings[key] = value
	return nil
}
