package fin

// Processor runs the normalization stages. It is stateless apart from the
// account maps; every stage takes a row slice and returns a new one, so a
// stage failure never corrupts rows accumulated by earlier stages.
type Processor struct {
	maps *AccountMaps
}

// NewProcessor creates a processor over the given account maps.
func NewProcessor(maps *AccountMaps) *Processor {
	return &Processor{maps: maps}
}

// Maps exposes the account configuration (read-only by convention).
func (p *Processor) Maps() *AccountMaps { return p.maps }
