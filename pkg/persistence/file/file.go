// Package file provides file-based persistence for workflows, runs and CRM
// records. It is intended for development and tests; production deployments
// use the postgresql package.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Persistence implements persistence.Persistence on top of a directory tree:
// one JSON file per record, one subdirectory per logical table.
type Persistence struct {
	root         string
	mu           sync.Mutex
	workflowRepo *WorkflowRepository
	runRepo      *RunRepository
	datastore    *Datastore
}

// NewPersistence creates file persistence rooted at the given directory.
// A "file://" prefix on the path is accepted and stripped.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	p := &Persistence{root: cleanRoot}
	p.workflowRepo = &WorkflowRepository{persistence: p}
	p.runRepo = &RunRepository{persistence: p}
	p.datastore = &Datastore{persistence: p}

	return p
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists or can be created.
func (p *Persistence) HealthCheck(_ context.Context) error {
	err := os.MkdirAll(p.root, 0o755)
	if err != nil {
		return fmt.Errorf("failed to ensure persistence root %s: %w", p.root, err)
	}

	return nil
}

func (p *Persistence) tableDir(table string) (string, error) {
	dir := filepath.Join(p.root, table)

	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return "", fmt.Errorf("failed to create table directory %s: %w", dir, err)
	}

	return dir, nil
}

// writeRecord marshals a record to <root>/<table>/<id>.json.
func (p *Persistence) writeRecord(table, id string, record any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	dir, err := p.tableDir(table)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s record %s: %w", table, id, err)
	}

	err = os.WriteFile(filepath.Join(dir, id+".json"), data, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write %s record %s: %w", table, id, err)
	}

	return nil
}

// readRecord unmarshals <root>/<table>/<id>.json into record. It reports
// os.ErrNotExist when the record does not exist.
func (p *Persistence) readRecord(table, id string, record any) error {
	data, err := os.ReadFile(filepath.Join(p.root, table, id+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return os.ErrNotExist
		}

		return fmt.Errorf("failed to read %s record %s: %w", table, id, err)
	}

	err = json.Unmarshal(data, record)
	if err != nil {
		return fmt.Errorf("failed to unmarshal %s record %s: %w", table, id, err)
	}

	return nil
}

// listRecordIDs returns the record ids present in a table directory.
func (p *Persistence) listRecordIDs(table string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(p.root, table))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to list %s records: %w", table, err)
	}

	ids := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		ids = append(ids, strings.TrimSuffix(entry.Name(), ".json"))
	}

	return ids, nil
}

func (p *Persistence) deleteRecord(table, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := os.Remove(filepath.Join(p.root, table, id+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return os.ErrNotExist
		}

		return fmt.Errorf("failed to delete %s record %s: %w", table, id, err)
	}

	return nil
}
