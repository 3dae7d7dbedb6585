package model

// Student is one row of a course roster. Only the identifier is mandatory;
// the profile fields are passed through to the grading platform as given.
type Student struct {
	ID        string `validate:"required"`
	FirstName string
	LastName  string
	Email     string `validate:"omitempty,email"`
	LMSUserID string
	Password  string
}
