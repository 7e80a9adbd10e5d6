package bracket

import "fmt"

// MaxCompetitors is the largest field the seed tables cover
const MaxCompetitors = 128

// seedTables maps round 1 line (index+1) to the seed rank that sits there.
// These are the adopted competition orderings, keep them as literal data.
var seedTables = map[int][]int{
	2:  {1, 2},
	4:  {1, 4, 3, 2},
	8:  {1, 8, 5, 4, 3, 6, 7, 2},
	16: {1, 16, 9, 8, 5, 12, 13, 4, 3, 14, 11, 6, 7, 10, 15, 2},
	32: {
		1, 32, 17, 16, 9, 24, 25, 8, 5, 28, 21, 12, 13, 20, 29, 4,
		3, 30, 19, 14, 11, 22, 27, 6, 7, 26, 23, 10, 15, 18, 31, 2,
	},
	64: {
		1, 64, 33, 32, 17, 48, 49, 16, 9, 56, 41, 24, 25, 40, 57, 8,
		5, 60, 37, 28, 21, 44, 53, 12, 13, 52, 45, 20, 29, 36, 61, 4,
		3, 62, 35, 30, 19, 46, 51, 14, 11, 54, 43, 22, 27, 38, 59, 6,
		7, 58, 39, 26, 23, 42, 55, 10, 15, 50, 47, 18, 31, 34, 63, 2,
	},
	128: {
		1, 128, 65, 64, 33, 96, 97, 32, 17, 112, 81, 48, 49, 80, 113, 16,
		9, 120, 73, 56, 41, 88, 105, 24, 25, 104, 89, 40, 57, 72, 121, 8,
		5, 124, 69, 60, 37, 92, 101, 28, 21, 108, 85, 44, 53, 76, 117, 12,
		13, 116, 77, 52, 45, 84, 109, 20, 29, 100, 93, 36, 61, 68, 125, 4,
		3, 126, 67, 62, 35, 94, 99, 30, 19, 110, 83, 46, 51, 78, 115, 14,
		11, 118, 75, 54, 43, 86, 107, 22, 27, 102, 91, 38, 59, 70, 123, 6,
		7, 122, 71, 58, 39, 90, 103, 26, 23, 106, 87, 42, 55, 74, 119, 10,
		15, 114, 79, 50, 47, 82, 111, 18, 31, 98, 95, 34, 63, 66, 127, 2,
	},
}

// SupportedSizes lists the bracket sizes in increasing order
var SupportedSizes = []int{2, 4, 8, 16, 32, 64, 128}

// BracketSizeFor gets the smallest table size that holds count competitors, so 5 gives 8
func BracketSizeFor(count int) (int, error) {
	if count < 1 {
		return 0, ErrNoCompetitors
	}
	for _, size := range SupportedSizes {
		if size >= count {
			return size, nil
		}
	}
	return 0, fmt.Errorf("%w: %d competitors, at most %d are supported", ErrUnsupportedBracketSize, count, MaxCompetitors)
}

// SeedOrder returns a copy of the seed table for the given bracket size
func SeedOrder(size int) ([]int, error) {
	table, ok := seedTables[size]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBracketSize, size)
	}
	out := make([]int, len(table))
	copy(out, table)
	return out, nil
}

func isSupportedSize(size int) bool {
	_, ok := seedTables[size]
	return ok
}
