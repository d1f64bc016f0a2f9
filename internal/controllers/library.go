package controllers

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/SAP-F-2025/exam-desk/internal/bridge"
	"github.com/SAP-F-2025/exam-desk/internal/models"
)

const (
	PageSize       = 20
	SearchDebounce = 500 * time.Millisecond
)

// TotalPages is ceil(total / PageSize). No questions means no pages.
func TotalPages(total int64) int {
	if total <= 0 {
		return 0
	}
	return int((total + PageSize - 1) / PageSize)
}

type LibrarySnapshot struct {
	Search     string
	Topic      string
	Difficulty *int
	Page       int
	TotalPages int
	Total      int64
	Questions  []models.Question
	Topics     []string
	Selected   []uint
	Loading    bool
	Error      string
}

type LibraryOption func(*LibraryController)

// WithAfterFunc replaces the timer used for the search debounce.
func WithAfterFunc(fn AfterFunc) LibraryOption {
	return func(c *LibraryController) {
		c.afterFunc = fn
	}
}

// LibraryController pages through the question library. Only the newest
// request may update the shown page; older responses are dropped.
type LibraryController struct {
	notifier
	client    *bridge.Client
	logger    *slog.Logger
	afterFunc AfterFunc

	mu         sync.Mutex
	search     string
	topic      string
	difficulty *int
	page       int
	total      int64
	questions  []models.Question
	topics     []string
	selected   []uint
	seq        uint64
	pending    Timer
	loading    bool
	lastErr    string
}

func NewLibraryController(b bridge.Bridge, logger *slog.Logger, opts ...LibraryOption) *LibraryController {
	c := &LibraryController{
		client:    bridge.NewClient(b),
		logger:    componentLogger(logger, "library_controller"),
		afterFunc: realAfterFunc,
		page:      1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *LibraryController) Snapshot() LibrarySnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := LibrarySnapshot{
		Search:     c.search,
		Topic:      c.topic,
		Page:       c.page,
		TotalPages: TotalPages(c.total),
		Total:      c.total,
		Questions:  append([]models.Question(nil), c.questions...),
		Topics:     append([]string(nil), c.topics...),
		Selected:   append([]uint(nil), c.selected...),
		Loading:    c.loading,
		Error:      c.lastErr,
	}
	if c.difficulty != nil {
		snap.Difficulty = ptr(*c.difficulty)
	}
	return snap
}

// Reload fetches the current page with the current filters.
func (c *LibraryController) Reload(ctx context.Context) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	params := models.ListQuestionsParams{
		Page:       c.page,
		Limit:      PageSize,
		Search:     c.search,
		Difficulty: c.difficulty,
	}
	if c.topic != "" {
		params.Topic = ptr(c.topic)
	}
	c.loading = true
	c.mu.Unlock()
	c.changed()

	result, err := c.client.ListQuestionsPaginated(ctx, params)

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.logger.Debug("Dropped stale library response", "seq", seq)
		return nil
	}
	c.loading = false
	if err != nil {
		c.lastErr = bridge.Message(err)
	} else {
		c.lastErr = ""
		c.questions = result.Questions
		c.total = result.Total
	}
	c.mu.Unlock()
	c.changed()

	if err != nil {
		return fmt.Errorf("failed to load questions: %w", err)
	}
	return nil
}

// LoadTopics fills the topic filter options.
func (c *LibraryController) LoadTopics(ctx context.Context) error {
	topics, err := c.client.GetTopics(ctx)
	if err != nil {
		return fmt.Errorf("failed to load topics: %w", err)
	}
	c.mu.Lock()
	c.topics = topics
	c.mu.Unlock()
	c.changed()
	return nil
}

// SetSearch records the search text. The reload runs once the text has been
// quiet for SearchDebounce and always starts from page 1.
func (c *LibraryController) SetSearch(text string) {
	c.mu.Lock()
	c.search = text
	if c.pending != nil {
		c.pending.Stop()
	}
	var timer Timer
	timer = c.afterFunc(SearchDebounce, func() {
		c.mu.Lock()
		if c.pending != timer {
			c.mu.Unlock()
			return
		}
		c.pending = nil
		c.page = 1
		c.mu.Unlock()
		if err := c.Reload(context.Background()); err != nil {
			c.logger.Warn("Debounced reload failed", "error", err)
		}
	})
	c.pending = timer
	c.mu.Unlock()
	c.changed()
}

// Search applies text at once, dropping any pending debounced reload.
func (c *LibraryController) Search(ctx context.Context, text string) error {
	c.mu.Lock()
	c.search = text
	c.page = 1
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.mu.Unlock()
	return c.Reload(ctx)
}

// SetTopic filters by topic; "" means any topic.
func (c *LibraryController) SetTopic(ctx context.Context, topic string) error {
	c.mu.Lock()
	c.topic = topic
	c.page = 1
	c.mu.Unlock()
	return c.Reload(ctx)
}

// SetDifficulty filters by difficulty bucket; nil means any difficulty.
func (c *LibraryController) SetDifficulty(ctx context.Context, bucket *int) error {
	c.mu.Lock()
	c.difficulty = bucket
	c.page = 1
	c.mu.Unlock()
	return c.Reload(ctx)
}

func (c *LibraryController) SetPage(ctx context.Context, page int) error {
	c.mu.Lock()
	c.page = max(page, 1)
	c.mu.Unlock()
	return c.Reload(ctx)
}

// Delete removes questions and then reloads. A page left empty by the delete
// falls back to the last remaining page.
func (c *LibraryController) Delete(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return ErrNothingSelected
	}
	if err := c.client.DeleteQuestions(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete questions: %w", err)
	}

	c.mu.Lock()
	c.selected = slices.DeleteFunc(c.selected, func(id uint) bool { return slices.Contains(ids, id) })
	c.mu.Unlock()

	if err := c.Reload(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	last := TotalPages(c.total)
	beyond := last > 0 && c.page > last
	if beyond {
		c.page = last
	}
	c.mu.Unlock()
	if beyond {
		return c.Reload(ctx)
	}
	return nil
}

// Toggle adds id to the selection or removes it.
func (c *LibraryController) Toggle(id uint) {
	c.mu.Lock()
	if i := slices.Index(c.selected, id); i >= 0 {
		c.selected = slices.Delete(c.selected, i, i+1)
	} else {
		c.selected = append(c.selected, id)
	}
	c.mu.Unlock()
	c.changed()
}

func (c *LibraryController) Selected() []uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint(nil), c.selected...)
}

func (c *LibraryController) ClearSelection() {
	c.mu.Lock()
	c.selected = nil
	c.mu.Unlock()
	c.changed()
}

// ExportSelection fetches the selected questions in selection order.
func (c *LibraryController) ExportSelection(ctx context.Context) ([]models.Question, error) {
	ids := c.Selected()
	if len(ids) == 0 {
		return nil, ErrNothingSelected
	}
	questions, err := c.client.GetQuestionsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load selected questions: %w", err)
	}

	order := make(map[uint]int, len(ids))
	for i, id := range ids {
		order[id] = i
	}
	slices.SortStableFunc(questions, func(a, b models.Question) int {
		return order[a.ID] - order[b.ID]
	})
	return questions, nil
}

// Close stops a pending debounced reload.
func (c *LibraryController) Close() {
	c.mu.Lock()
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.mu.Unlock()
}
