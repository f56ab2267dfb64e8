package deeplink

// Payload is a decoded deep link: one message id, or a range of ids.
type Payload struct {
	Start int64
	End   int64
	Range bool
}

// Len returns the number of ids the payload addresses.
func (p Payload) Len() int64 {
	if p.Start <= p.End {
		return p.End - p.Start + 1
	}
	return p.Start - p.End + 1
}

// IDs expands the payload into message ids.
//
// An ascending range yields [Start, End]. A reversed range yields
// Start, Start-1, ... and stops once the counter drops below End, so the
// last element is always End itself.
func (p Payload) IDs() []int64 {
	if !p.Range {
		return []int64{p.Start}
	}

	ids := make([]int64, 0, p.Len())
	if p.Start <= p.End {
		for i := p.Start; i <= p.End; i++ {
			ids = append(ids, i)
		}
		return ids
	}

	for i := p.Start; ; {
		ids = append(ids, i)
		i--
		if i < p.End {
			break
		}
	}
	return ids
}
