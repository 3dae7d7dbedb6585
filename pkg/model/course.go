package model

import (
	"fmt"

	"github.com/gosimple/slug"
)

// Course is a provisioned course. Its identifier doubles as the name of the
// registered hub service, so it is normalized into a slug before anything is
// derived from it.
type Course struct {
	ID string
}

// NewCourse normalizes the user-supplied identifier. "Calculus 101" and
// "calculus-101" name the same course.
func NewCourse(id string) Course {
	return Course{ID: slug.Make(id)}
}

// GraderAccount is the distinguished OS account owning the course's grading
// workspace. Its presence in the hub config is what marks the course as
// existing.
func (c Course) GraderAccount() string {
	return fmt.Sprintf("grader-%s", c.ID)
}

// FormgradeGroup gates access to the course's grading UI.
func (c Course) FormgradeGroup() string {
	return fmt.Sprintf("formgrade-%s", c.ID)
}

// StudentGroup holds the course's students.
func (c Course) StudentGroup() string {
	return fmt.Sprintf("nbgrader-%s", c.ID)
}
