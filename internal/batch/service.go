// Package batch ingests NanoBanana projects, renders their image tasks and
// evaluates the approval gate.
package batch

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"engine/internal/domain"
	"engine/internal/metrics"
	"engine/internal/providers/image"
	"engine/internal/storage"
)

// DryRunImageURL is the placeholder returned for every task of a dry run.
const DryRunImageURL = "http://mock.url/img1.png"

// AssetResolver is the catalog surface batch processing needs.
type AssetResolver interface {
	GetAsset(id string) (domain.Asset, bool)
	ResolveFilePath(fileName string) (string, bool)
}

// Options wires a Service.
type Options struct {
	Repository    domain.ProjectRepository
	Catalog       AssetResolver
	Images        image.BatchGenerator
	Files         *storage.FileStore
	Fetcher       *storage.Fetcher
	PublicBaseURL string
	Provider      string
	Metrics       *metrics.Metrics
	Logger        *zerolog.Logger
}

// Service runs batch projects. Runs of the same project are serialised;
// different projects may run concurrently.
type Service struct {
	repo          domain.ProjectRepository
	catalog       AssetResolver
	images        image.BatchGenerator
	files         *storage.FileStore
	fetcher       *storage.Fetcher
	publicBaseURL string
	provider      string
	metrics       *metrics.Metrics
	logger        zerolog.Logger

	locksMu sync.Mutex
	locks   map[string]*projectLock
}

// projectLock is dropped from Service.locks once no caller holds or waits on it.
type projectLock struct {
	mu   sync.Mutex
	refs int
}

// New validates opts and returns a Service.
func New(opts Options) (*Service, error) {
	switch {
	case opts.Repository == nil:
		return nil, errors.New("batch: repository is required")
	case opts.Catalog == nil:
		return nil, errors.New("batch: catalog is required")
	case opts.Images == nil:
		return nil, errors.New("batch: image generator is required")
	case opts.Files == nil:
		return nil, errors.New("batch: file store is required")
	case opts.Fetcher == nil:
		return nil, errors.New("batch: fetcher is required")
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "batch").Logger()
	}
	return &Service{
		repo:          opts.Repository,
		catalog:       opts.Catalog,
		images:        opts.Images,
		files:         opts.Files,
		fetcher:       opts.Fetcher,
		publicBaseURL: opts.PublicBaseURL,
		provider:      opts.Provider,
		metrics:       opts.Metrics,
		logger:        logger,
		locks:         make(map[string]*projectLock),
	}, nil
}

// lock acquires the mutex for projectID and returns its release func.
func (s *Service) lock(projectID string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[projectID]
	if !ok {
		l = &projectLock{}
		s.locks[projectID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, projectID)
		}
		s.locksMu.Unlock()
	}
}
