package background

import (
	"fmt"
	"math"
)

// PlanLoop returns how many whole copies of a clip lasting sourceDuration
// seconds must be concatenated to cover target seconds. A clip already long
// enough yields one copy, which is then only truncated.
func PlanLoop(sourceDuration, target float64) (int, error) {
	if !validDuration(sourceDuration) {
		return 0, fmt.Errorf("background plan: invalid source duration %v", sourceDuration)
	}
	if !validDuration(target) {
		return 0, fmt.Errorf("background plan: invalid target duration %v", target)
	}
	if sourceDuration >= target {
		return 1, nil
	}
	copies := int(math.Ceil(target / sourceDuration))
	for float64(copies)*sourceDuration < target {
		copies++
	}
	return copies, nil
}

func validDuration(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
