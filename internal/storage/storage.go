package storage

import (
	"context"

	"poolEngine/internal/model"
)

// Journal is a sink for applied pool operations.
type Journal interface {
	PutOperations(ctx context.Context, ops []model.OperationRecord) error
}

// MultiJournal writes to every journal in order and stops at the first
// failure.
type MultiJournal []Journal

func (m MultiJournal) PutOperations(ctx context.Context, ops []model.OperationRecord) error {
	for _, j := range m {
		if j == nil {
			continue
		}
		if err := j.PutOperations(ctx, ops); err != nil {
			return err
		}
	}
	return nil
}
