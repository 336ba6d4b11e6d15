package entity

// Scanner iterates one full traversal of an entity stream, in the same
// style as osmpbf.Scanner: Scan advances, Entity returns the current
// element, Err reports the first failure. a Scanner is finite and not
// restartable.
type Scanner interface {
	Scan() bool
	Entity() Entity
	Err() error
	Close() error
}

// Source hands out a fresh Scanner per traversal. the classification pass
// and the build pass each need their own full traversal.
type Source interface {
	NewScanner() (Scanner, error)
}

// SliceSource is an in-memory Source, used by tests and small fixtures.
type SliceSource struct {
	entities []Entity
}

func NewSliceSource(entities []Entity) *SliceSource {
	return &SliceSource{entities: entities}
}

func (s *SliceSource) NewScanner() (Scanner, error) {
	return &sliceScanner{entities: s.entities, pos: -1}, nil
}

type sliceScanner struct {
	entities []Entity
	pos      int
}

func (s *sliceScanner) Scan() bool {
	s.pos++
	return s.pos < len(s.entities)
}

func (s *sliceScanner) Entity() Entity {
	return s.entities[s.pos]
}

func (s *sliceScanner) Err() error { return nil }

func (s *sliceScanner) Close() error { return nil }
