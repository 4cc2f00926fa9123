package merge

import (
	"errors"
	"fmt"
)

// ErrKeyCollision is matched by every CollisionError.
var ErrKeyCollision = errors.New("duplicate merge key")

// CollisionError is returned under PolicyStrict when deduplication would drop rows.
type CollisionError struct {
	Collisions []Collision
}

func (e *CollisionError) Error() string {
	if e == nil || len(e.Collisions) == 0 {
		return ErrKeyCollision.Error()
	}
	first := e.Collisions[0].Key
	return fmt.Sprintf("%d duplicate merge keys (first: %s, %s, %d)", len(e.Collisions), first.Name, first.School, first.Year)
}

// Is implements errors.Is support.
func (e *CollisionError) Is(target error) bool { return target == ErrKeyCollision }
