package domain

import "time"

// Comment is a board-scoped annotation. Authorship is restricted to the
// designated comment-capable departments at creation time; existing comments
// stay valid if the policy later changes.
type Comment struct {
	ID           string
	BoardID      string
	AuthorID     string
	DepartmentID *string
	Body         string
	CreatedAt    time.Time
}
