package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"poolEngine/internal/model"
)

// JsonlJournal keeps operation records as one JSON object per line. A
// batch is synced to disk before PutOperations returns.
type JsonlJournal struct {
	path string
	mu   sync.Mutex
}

func NewJsonlJournal(path string) *JsonlJournal {
	return &JsonlJournal{path: path}
}

// PutOperations validates and appends a batch. Nothing is written when a
// record is invalid.
func (s *JsonlJournal) PutOperations(_ context.Context, ops []model.OperationRecord) error {
	if len(ops) == 0 {
		return nil
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	for i, op := range ops {
		if err := validateOperation(op); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
		if err := encoder.Encode(op); err != nil {
			return fmt.Errorf("encode operation %d: %w", i, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create journal dir: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	torn, err := endsMidLine(file)
	if err != nil {
		return fmt.Errorf("inspect journal: %w", err)
	}
	if torn {
		// Terminate the partial line left by an interrupted write.
		if _, err := file.Write([]byte{'\n'}); err != nil {
			return fmt.Errorf("repair journal: %w", err)
		}
	}
	if _, err := file.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write operations: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync journal: %w", err)
	}
	return nil
}

// ReadOperations returns the journaled records of pool in write order, or
// every record when pool is empty. A missing journal reads as empty.
// Lines that do not decode are skipped only if they were cut short by an
// interrupted write.
func (s *JsonlJournal) ReadOperations(ctx context.Context, pool string) ([]model.OperationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	var out []model.OperationRecord
	reader := bufio.NewReader(file)
	for lineNo := 1; ; lineNo++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, readErr := reader.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, fmt.Errorf("read journal: %w", readErr)
		}
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			var op model.OperationRecord
			if err := json.Unmarshal(trimmed, &op); err != nil {
				if !truncated(trimmed) {
					return nil, fmt.Errorf("journal line %d: %w", lineNo, err)
				}
			} else if pool == "" || strings.EqualFold(op.Pool, pool) {
				out = append(out, op)
			}
		}
		if readErr != nil {
			return out, nil
		}
	}
}

// truncated reports whether line is the remains of an interrupted write.
// Records are flat objects, so only a complete one ends in a brace.
func truncated(line []byte) bool {
	return !bytes.HasSuffix(line, []byte("}"))
}

func validateOperation(op model.OperationRecord) error {
	if op.Pool == "" {
		return errors.New("missing pool")
	}
	switch op.Operation {
	case model.OpInitialize, model.OpDeposit, model.OpWithdraw, model.OpSwap:
	default:
		return fmt.Errorf("unknown operation %q", op.Operation)
	}
	if _, err := time.Parse(time.RFC3339Nano, op.ExecutedAt); err != nil {
		return fmt.Errorf("executed_at %q: %w", op.ExecutedAt, err)
	}
	return nil
}

func endsMidLine(file *os.File) (bool, error) {
	info, err := file.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := file.ReadAt(last, info.Size()-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}
