package mapper

// IDSet records the keys of the nodes written in this run.
type IDSet struct {
	ids map[string]struct{}
}

func NewIDSet() *IDSet {
	return &IDSet{ids: make(map[string]struct{})}
}

func (s *IDSet) Add(id string) { s.ids[id] = struct{}{} }

func (s *IDSet) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *IDSet) Len() int { return len(s.ids) }

//Personal.AI order the ending
