// Package fs provides a filesystem audit store backed by viant/afs, so the
// base location can be a local directory or any supported cloud URL. One
// JSON document is written per record; existing documents are never
// rewritten.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/oversight/model/approval"
	"github.com/viant/oversight/service/audit"
	"github.com/viant/oversight/service/dao"
)

// Service implements an append-only filesystem audit store.
type Service struct {
	baseURL string
	fs      afs.Service
	mu      sync.RWMutex
}

var _ audit.Store = (*Service)(nil)

// Append persists the record as <base>/<agentName>/<correlationId>.json.
// An already existing document yields audit.ErrDuplicate.
func (s *Service) Append(ctx context.Context, record *approval.Record) error {
	if record == nil {
		return dao.ErrNilEntity
	}
	if record.AgentName == "" || record.CorrelationID == "" {
		return dao.ErrInvalidKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	location := s.recordURL(record.AgentName, record.CorrelationID)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return fmt.Errorf("failed to check audit record %s: %w", location, err)
	}
	if exists {
		return audit.ErrDuplicate
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal audit record: %w", err)
	}
	if err = s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write audit record %s: %w", location, err)
	}
	return nil
}

// Load retrieves one record or audit.ErrNotFound.
func (s *Service) Load(ctx context.Context, agentName, correlationID string) (*approval.Record, error) {
	if agentName == "" || correlationID == "" {
		return nil, dao.ErrInvalidKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	location := s.recordURL(agentName, correlationID)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to check audit record %s: %w", location, err)
	}
	if !exists {
		return nil, audit.ErrNotFound
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read audit record %s: %w", location, err)
	}
	var record approval.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal audit record %s: %w", location, err)
	}
	return &record, nil
}

// List returns all records under the base location.
func (s *Service) List(ctx context.Context) ([]*approval.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.baseURL, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	var records []*approval.Record
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			return nil, fmt.Errorf("failed to read audit record %s: %w", object.URL(), err)
		}
		var record approval.Record
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit record %s: %w", object.URL(), err)
		}
		records = append(records, &record)
	}
	return records, nil
}

func (s *Service) recordURL(agentName, correlationID string) string {
	return url.Join(s.baseURL, path.Join(agentName, correlationID+".json"))
}

// New creates a filesystem audit store rooted at baseURL.
func New(baseURL string) (*Service, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	fsService := afs.New()
	ctx := context.Background()
	if exists, _ := fsService.Exists(ctx, baseURL); !exists {
		if err := fsService.Create(ctx, baseURL, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create audit base location: %w", err)
		}
	}
	baseURL = url.Normalize(baseURL, file.Scheme)
	return &Service{baseURL: baseURL, fs: fsService}, nil
}
