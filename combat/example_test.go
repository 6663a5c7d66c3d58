package combat_test

import (
	"fmt"

	"github.com/plus3/driftworks/combat"
)

// ExampleIntercept leads a target crossing in front of a turret at the
// origin. The target starts at (30, 0) moving (0, 40); a projectile at
// speed 50 meets it after one second.
func ExampleIntercept() {
	x, y, ok := combat.Intercept(0, 0, 30, 0, 0, 40, 50)
	fmt.Printf("moving: (%.0f, %.0f) %v\n", x, y, ok)

	x, y, ok = combat.Intercept(0, 0, 30, 0, 0, 0, 50)
	fmt.Printf("stationary: (%.0f, %.0f) %v\n", x, y, ok)

	// Output:
	// moving: (30, 40) true
	// stationary: (30, 0) false
}
