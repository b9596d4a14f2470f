package models

// BlockRecord holds the current distance of a basic block and the functions it calls
type BlockRecord struct {
	Name     string
	Distance Distance
	Calls    []string
}

// CallsFunction reports whether the block calls the named function
func (r *BlockRecord) CallsFunction(name string) bool {
	for _, callee := range r.Calls {
		if callee == name {
			return true
		}
	}
	return false
}

// BlockTable is the insertion-ordered set of block records for one run.
// Records are created on first observation and never deleted.
type BlockTable struct {
	records map[string]*BlockRecord
	order   []string
}

// NewBlockTable creates an empty block table
func NewBlockTable() *BlockTable {
	return &BlockTable{
		records: make(map[string]*BlockRecord),
	}
}

// Ensure returns the record for name, creating an unsure one if needed
func (t *BlockTable) Ensure(name string) *BlockRecord {
	if record, ok := t.records[name]; ok {
		return record
	}
	record := &BlockRecord{Name: name, Distance: Unsure()}
	t.records[name] = record
	t.order = append(t.order, name)
	return record
}

// Get returns the record for name
func (t *BlockTable) Get(name string) (*BlockRecord, bool) {
	record, ok := t.records[name]
	return record, ok
}

// AddCall records that block calls callee
func (t *BlockTable) AddCall(block, callee string) {
	record := t.Ensure(block)
	record.Calls = append(record.Calls, callee)
}

// SetDistance sets the distance of block, creating the record if needed
func (t *BlockTable) SetDistance(block string, distance Distance) {
	t.Ensure(block).Distance = distance
}

// Len returns the number of records
func (t *BlockTable) Len() int {
	return len(t.order)
}

// Records returns all records in first-observation order
func (t *BlockTable) Records() []*BlockRecord {
	records := make([]*BlockRecord, 0, len(t.order))
	for _, name := range t.order {
		records = append(records, t.records[name])
	}
	return records
}

// DistanceRecords returns a snapshot of all distances in first-observation order
func (t *BlockTable) DistanceRecords() []DistanceRecord {
	out := make([]DistanceRecord, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, DistanceRecord{Name: name, Distance: t.records[name].Distance})
	}
	return out
}
