// ImageFilters describe user-provided filters to narrow the image list.
package dto

import "time"

type ImageFilters struct {
	Class      string
	DateAfter  time.Time
	DateBefore time.Time
	Limit      int
	Offset     int
}
