package storage

import "context"

// NoopStorage remembers nothing.
type NoopStorage struct {
}

func (s *NoopStorage) MakeModule(ctx context.Context, module string) error {
	return nil
}

func (s *NoopStorage) RemModule(ctx context.Context, module string) error {
	return nil
}

func (s *NoopStorage) GetClauses(ctx context.Context, module string) ([]*PredicateState, error) {
	return nil, nil
}

func (s *NoopStorage) WriteClauses(ctx context.Context, module string, ps []*PredicateState) error {
	return nil
}
