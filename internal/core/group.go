package core

// Group is a set of records sharing a key, in input order.
type Group[K comparable] struct {
	Key     K
	Records []Expense
}

// Sum returns the total amount of the group.
func (g Group[K]) Sum() Money {
	var total Money
	for _, e := range g.Records {
		total += e.Amount
	}
	return total
}

// Count returns the number of records in the group.
func (g Group[K]) Count() int {
	return len(g.Records)
}

// GroupBy partitions records by key. Groups appear in the order their key was
// first seen; records keep their input order within a group.
func GroupBy[K comparable](records []Expense, key func(Expense) K) []Group[K] {
	index := make(map[K]int)
	groups := make([]Group[K], 0)
	for _, e := range records {
		k := key(e)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[K]{Key: k})
		}
		groups[i].Records = append(groups[i].Records, e)
	}
	return groups
}

// ByCategory keys a record by its category.
func ByCategory(e Expense) Category { return e.Category }

// ByDate keys a record by its stored date, not by its timestamp.
func ByDate(e Expense) string { return e.Date }

// AmountBucket is a coarse magnitude range in whole currency units.
type AmountBucket int

const (
	BucketUnder100 AmountBucket = iota
	BucketHundreds
	BucketThousands
	BucketTenThousandsPlus
)

func (b AmountBucket) String() string {
	switch b {
	case BucketUnder100:
		return "Under 100"
	case BucketHundreds:
		return "100 - 999"
	case BucketThousands:
		return "1,000 - 9,999"
	default:
		return "10,000 and above"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (b AmountBucket) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// ByAmountBucket keys a record by the magnitude of its amount in c.
func ByAmountBucket(c Currency) func(Expense) AmountBucket {
	unit := uint64(mustPow10(c.DecimalPlaces))
	return func(e Expense) AmountBucket {
		whole := absMinor(e.Amount) / unit
		switch {
		case whole < 100:
			return BucketUnder100
		case whole < 1_000:
			return BucketHundreds
		case whole < 10_000:
			return BucketThousands
		default:
			return BucketTenThousandsPlus
		}
	}
}
