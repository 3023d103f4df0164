package directory

import "strconv"

// NextDependentID allocates a directory-wide unique dependent id for the
// given base (employee id + relation code), given every existing id that
// starts with the base. If the bare base is untaken it is returned as-is;
// otherwise the result is base followed by one more than the highest numeric
// suffix already in use. Callers must hold the allocation scan and the
// subsequent insert in one transaction so concurrent allocations for the
// same base serialize.
func NextDependentID(base string, existing []string) string {
	bareTaken := false
	maxIndex := 0
	for _, id := range existing {
		if id == base {
			bareTaken = true
			continue
		}
		if len(id) <= len(base) || id[:len(base)] != base {
			continue
		}
		n, ok := numericSuffix(id[len(base):])
		if !ok {
			continue
		}
		if n > maxIndex {
			maxIndex = n
		}
	}
	if !bareTaken {
		return base
	}
	return base + strconv.Itoa(maxIndex+1)
}

// numericSuffix parses an all-digit suffix. Ids sharing the prefix but with
// non-digit tails belong to a different base (e.g. L1SN vs L1SN2's base L1S)
// and are ignored.
func numericSuffix(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
