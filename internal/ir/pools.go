package ir

// Pools groups candidate operand values by kind.
type Pools map[ValueKind][]ValueID

// Of returns the values of kind k.
func (p Pools) Of(k ValueKind) []ValueID { return p[k] }
