package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/homedocks/homedocks-bot/pkg/domain/interfaces"
	"github.com/homedocks/homedocks-bot/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// Repository is an alias of Memory
type Repository = Memory

type Memory struct {
	posting *postingRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		posting: newPostingRepository(),
	}
}

func (m *Memory) Posting() interfaces.PostingRepository {
	return m.posting
}

func (m *Memory) Close() error {
	return nil
}

type postingRepository struct {
	mu        sync.RWMutex
	documents map[string]map[string]*model.Posting
}

var _ interfaces.PostingRepository = &postingRepository{}

func newPostingRepository() *postingRepository {
	return &postingRepository{
		documents: make(map[string]map[string]*model.Posting),
	}
}

func (r *postingRepository) Get(ctx context.Context, key model.PostingKey) (*model.Posting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.documents[key.Document][key.Entry]; ok {
		cp := p.Clone()
		cp.Key = key
		return cp, nil
	}
	return &model.Posting{Key: key}, nil
}

func (r *postingRepository) Put(ctx context.Context, posting *model.Posting) error {
	if posting == nil || posting.Key.Document == "" || posting.Key.Entry == "" {
		return goerr.New("posting key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.documents[posting.Key.Document]
	if !ok {
		doc = make(map[string]*model.Posting)
		r.documents[posting.Key.Document] = doc
	}
	doc[posting.Key.Entry] = posting.Clone()
	return nil
}

func (r *postingRepository) List(ctx context.Context, document string) ([]*model.Posting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc := r.documents[document]
	result := make([]*model.Posting, 0, len(doc))
	for entry, p := range doc {
		cp := p.Clone()
		cp.Key = model.PostingKey{Document: document, Entry: entry}
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key.Entry < result[j].Key.Entry
	})
	return result, nil
}
