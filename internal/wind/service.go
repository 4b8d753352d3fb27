package wind

import "time"

// Service answers the two query-time operations over the artifact store.
// Harvest-side failures are invisible here: a slot that never harvested
// simply never resolves.
type Service struct {
	store    ArtifactStore
	resolver *Resolver
}

// NewService creates a new Service.
func NewService(store ArtifactStore, intervalHours int) *Service {
	return &Service{
		store:    store,
		resolver: NewResolver(store, intervalHours),
	}
}

// GetLatest returns the most recent artifact at or before now.
func (s *Service) GetLatest(now time.Time) (string, []byte, error) {
	key := s.resolver.Latest(now)
	data, err := s.store.Read(key)
	if err != nil {
		return "", nil, err
	}
	return key, data, nil
}

// GetNearest returns the artifact nearest in time to target, searching
// backward then forward within limitDays (unbounded when limitDays <= 0).
func (s *Service) GetNearest(target time.Time, limitDays int) (string, []byte, error) {
	key, err := s.resolver.Nearest(target, limitDays)
	if err != nil {
		return "", nil, err
	}
	data, err := s.store.Read(key)
	if err != nil {
		return "", nil, err
	}
	return key, data, nil
}
