package storagemock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/solarsim/solarsim/pkg/storage"
	"github.com/solarsim/solarsim/pkg/types"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) SaveExport(ctx context.Context, rec types.ExportRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockDatabase) GetExport(ctx context.Context, id string) (types.ExportRecord, error) {
	args := m.Called(ctx, id)
	if len(args) > 0 {
		return args.Get(0).(types.ExportRecord), args.Error(1)
	}
	return types.ExportRecord{}, nil
}

func (m *MockDatabase) ListExports(ctx context.Context, limit int) ([]types.ExportRecord, error) {
	args := m.Called(ctx, limit)
	if len(args) > 0 {
		if args.Get(0) == nil {
			return nil, args.Error(1)
		}
		return args.Get(0).([]types.ExportRecord), args.Error(1)
	}
	return nil, nil
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	return args.Error(0)
}
