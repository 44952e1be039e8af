package engine

// DeckSize is the number of distinct cards: four attributes, three values each.
const DeckSize = 81

const attributes = 4

// IsMatch reports whether three cards form a set. Each card is read as a
// four digit base-3 number; in every digit place the three values must be
// all equal or all different.
func IsMatch(a, b, c int) bool {
	for i := 0; i < attributes; i++ {
		x, y, z := a%3, b%3, c%3
		if !(x == y && y == z || x != y && y != z && x != z) {
			return false
		}
		a, b, c = a/3, b/3, c/3
	}
	return true
}

// IsQuad reports whether four distinct cards form a quad: they split into two
// pairs that are completed into a set by the same third card.
func IsQuad(a, b, c, d int) bool {
	if a == b || a == c || a == d || b == c || b == d || c == d {
		return false
	}
	return sameCompletion(a, b, c, d) || sameCompletion(a, c, b, d) || sameCompletion(a, d, b, c)
}

// sameCompletion compares the set completions of (a,b) and (c,d), which is
// a+b == c+d digit-wise modulo 3.
func sameCompletion(a, b, c, d int) bool {
	for i := 0; i < attributes; i++ {
		if (a%3+b%3)%3 != (c%3+d%3)%3 {
			return false
		}
		a, b, c, d = a/3, b/3, c/3, d/3
	}
	return true
}

// IsGroup checks cards against the match rule for their count. Only groups of
// three and four are ever matches.
func IsGroup(cards []int) bool {
	switch len(cards) {
	case 3:
		return IsMatch(cards[0], cards[1], cards[2])
	case 4:
		return IsQuad(cards[0], cards[1], cards[2], cards[3])
	default:
		return false
	}
}

// CountMatches counts every size-card combination of cards that is a match.
func CountMatches(cards []int, size int) int {
	count := 0
	eachCombination(len(cards), size, func(idx []int) bool {
		if IsGroup(pick(cards, idx)) {
			count++
		}
		return true
	})
	return count
}

// FindMatch returns the first match found among cards, if any.
func FindMatch(cards []int, size int) ([]int, bool) {
	var found []int
	eachCombination(len(cards), size, func(idx []int) bool {
		group := pick(cards, idx)
		if IsGroup(group) {
			found = group
			return false
		}
		return true
	})
	return found, found != nil
}

func pick(cards []int, idx []int) []int {
	group := make([]int, len(idx))
	for i, j := range idx {
		group[i] = cards[j]
	}
	return group
}

// eachCombination calls fn with every increasing k-index subset of [0,n)
// until fn returns false.
func eachCombination(n, k int, fn func(idx []int) bool) {
	if k <= 0 || k > n {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		if !fn(idx) {
			return
		}
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
