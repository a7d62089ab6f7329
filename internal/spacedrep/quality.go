package spacedrep

import "github.com/abhisek/repaso/internal/grading"

var qualityByCategory = map[grading.Category]int{
	grading.Excellent:  5,
	grading.Good:       4,
	grading.Acceptable: 3,
	grading.Partial:    2,
	grading.Incorrect:  1,
	grading.Error:      0,
}

// QualityFor maps a grading category to an SM-2 grade. Unknown categories
// grade as 0.
func QualityFor(c grading.Category) int {
	return qualityByCategory[c]
}
