package pipeline

import (
	"context"
	"sort"
	"sync"

	"github.com/helixir/paper-agent/internal/domain"
	"github.com/helixir/paper-agent/internal/llm"
	"github.com/helixir/paper-agent/internal/observability"
	"github.com/helixir/paper-agent/internal/repository"
)

// fakePaperRepo is an in-memory PaperRepository safe for concurrent use.
type fakePaperRepo struct {
	mu     sync.Mutex
	papers map[string]*domain.Paper
}

func newFakePaperRepo(papers ...*domain.Paper) *fakePaperRepo {
	repo := &fakePaperRepo{papers: make(map[string]*domain.Paper)}
	for _, p := range papers {
		clone := *p
		repo.papers[p.ID] = &clone
	}
	return repo
}

func (r *fakePaperRepo) get(id string) *domain.Paper {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.papers[id]
}

func (r *fakePaperRepo) InsertBatch(_ context.Context, papers []*domain.Paper) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inserted := 0
	for _, p := range papers {
		if _, ok := r.papers[p.ID]; ok {
			continue
		}
		clone := *p
		clone.Status = domain.StatusNew
		r.papers[p.ID] = &clone
		inserted++
	}
	return inserted, nil
}

func (r *fakePaperRepo) GetByID(_ context.Context, id string) (*domain.Paper, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.papers[id]
	if !ok {
		return nil, domain.NewNotFoundError("paper", id)
	}
	clone := *p
	return &clone, nil
}

func (r *fakePaperRepo) ExistingIDs(_ context.Context, ids []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing := make(map[string]bool)
	for _, id := range ids {
		if _, ok := r.papers[id]; ok {
			existing[id] = true
		}
	}
	return existing, nil
}

func (r *fakePaperRepo) ListByStatus(_ context.Context, status domain.Status, limit int) ([]*domain.Paper, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Paper
	for _, p := range r.papers {
		if p.Status == status {
			clone := *p
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakePaperRepo) ListByPublishedDay(_ context.Context, day string) ([]*domain.Paper, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Paper
	for _, p := range r.papers {
		if p.PublishedDay() == day {
			clone := *p
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakePaperRepo) List(_ context.Context, filter repository.PaperFilter) ([]*domain.Paper, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Paper
	for _, p := range r.papers {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Day != "" && p.PublishedDay() != filter.Day {
			continue
		}
		clone := *p
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakePaperRepo) SaveScore(_ context.Context, id string, score int, reason string, status domain.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.papers[id]
	if !ok {
		return false, domain.NewNotFoundError("paper", id)
	}
	if p.UserScore != nil {
		return false, nil
	}
	p.Score = &score
	p.ScoreReason = &reason
	p.Status = status
	return true, nil
}

func (r *fakePaperRepo) SaveSummary(_ context.Context, paper *domain.Paper) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.papers[paper.ID]
	if !ok {
		return domain.NewNotFoundError("paper", paper.ID)
	}
	p.FullText = paper.FullText
	p.Affiliations = paper.Affiliations
	p.MainCompany = paper.MainCompany
	p.MainUniversity = paper.MainUniversity
	p.MainAffiliation = paper.MainAffiliation
	p.SummaryPersonalized = paper.SummaryPersonalized
	p.Status = paper.Status
	return nil
}

func (r *fakePaperRepo) MarkPushed(_ context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if p, ok := r.papers[id]; ok {
			p.Status = domain.StatusPushed
		}
	}
	return nil
}

func (r *fakePaperRepo) SetUserScore(_ context.Context, id string, score int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.papers[id]
	if !ok {
		return domain.NewNotFoundError("paper", id)
	}
	p.UserScore = &score
	p.Score = &score
	p.Status = domain.StatusScored
	return nil
}

var _ repository.PaperRepository = (*fakePaperRepo)(nil)

// fakeAuthorRepo is an in-memory importance registry.
type fakeAuthorRepo struct {
	important map[string]bool
}

func newFakeAuthorRepo(names ...string) *fakeAuthorRepo {
	repo := &fakeAuthorRepo{important: make(map[string]bool)}
	for _, name := range names {
		repo.important[name] = true
	}
	return repo
}

func (r *fakeAuthorRepo) ImportantNames(_ context.Context, names []string) ([]string, error) {
	var out []string
	for _, name := range names {
		if r.important[name] {
			out = append(out, name)
		}
	}
	return out, nil
}

func (r *fakeAuthorRepo) List(_ context.Context) ([]*domain.AuthorImportance, error) {
	return nil, nil
}

func (r *fakeAuthorRepo) Set(_ context.Context, name string, important bool) (*domain.AuthorImportance, error) {
	r.important[name] = important
	return &domain.AuthorImportance{Name: name, Important: important}, nil
}

func (r *fakeAuthorRepo) Delete(_ context.Context, name string) error {
	delete(r.important, name)
	return nil
}

var _ repository.AuthorRepository = (*fakeAuthorRepo)(nil)

// fakeFetcher serves a canned feed.
type fakeFetcher struct {
	latest []*domain.Paper
	byID   map[string]*domain.Paper
	err    error
}

func (f *fakeFetcher) Latest(_ context.Context) ([]*domain.Paper, error) {
	return f.latest, f.err
}

func (f *fakeFetcher) GetByID(_ context.Context, id string) (*domain.Paper, error) {
	if p, ok := f.byID[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, domain.NewNotFoundError("paper", id)
}

// fakeEvaluator returns fixed results and counts calls.
type fakeEvaluator struct {
	mu             sync.Mutex
	score          int
	scoreResult    *llm.ScoreResult
	scoreErr       error
	summary        string
	summaryErr     error
	affiliations   *llm.AffiliationResult
	affiliationErr error

	scoreCalls     int
	summaryCalls   int
	scoredPaperIDs []string
}

func (e *fakeEvaluator) ScorePaper(_ context.Context, paper *domain.Paper, _ string) (*llm.ScoreResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scoreCalls++
	e.scoredPaperIDs = append(e.scoredPaperIDs, paper.ID)
	if e.scoreErr != nil {
		return nil, e.scoreErr
	}
	if e.scoreResult != nil {
		clone := *e.scoreResult
		return &clone, nil
	}
	return &llm.ScoreResult{Score: e.score, Reason: "fixture reason", Model: "fake-model"}, nil
}

func (e *fakeEvaluator) SummarizePaper(_ context.Context, _ *domain.Paper, _ string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.summaryCalls++
	if e.summaryErr != nil {
		return "", e.summaryErr
	}
	if e.summary == "" {
		return "## TL;DR\nFixture summary.", nil
	}
	return e.summary, nil
}

func (e *fakeEvaluator) ExtractAffiliations(_ context.Context, _ *domain.Paper, _ string) (*llm.AffiliationResult, error) {
	if e.affiliationErr != nil {
		return nil, e.affiliationErr
	}
	if e.affiliations != nil {
		return e.affiliations, nil
	}
	return &llm.AffiliationResult{}, nil
}

func (e *fakeEvaluator) Provider() string { return "fake" }
func (e *fakeEvaluator) Model() string    { return "fake-model" }

var _ llm.Evaluator = (*fakeEvaluator)(nil)

// fakeExtractor returns canned full text.
type fakeExtractor struct {
	text string
	ok   bool
}

func (e *fakeExtractor) ExtractText(_ context.Context, _ string) (string, bool) {
	return e.text, e.ok
}

// fakeNotifier records sent messages and the cycle ID seen on the context.
type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
	cycleID  string
	err      error
}

func (n *fakeNotifier) SendMessage(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, text)
	return nil
}

func (n *fakeNotifier) SendMessages(ctx context.Context, texts []string) error {
	n.mu.Lock()
	n.cycleID = observability.CycleIDFromContext(ctx)
	n.mu.Unlock()
	for _, text := range texts {
		if err := n.SendMessage(ctx, text); err != nil {
			return err
		}
	}
	return nil
}

func (n *fakeNotifier) seenCycleID() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cycleID
}

func (n *fakeNotifier) Name() string { return "fake" }

func (n *fakeNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}
