package model

import "fmt"

// Service is a hub service registration: the addressable backend the hub
// routes grading requests to for one course.
type Service struct {
	Name     string
	URL      string
	Command  []string
	User     string
	Cwd      string
	APIToken string
}

// NewCourseService derives the service record for a course from the grader
// account, the allocated port, and the shared admin token.
func NewCourseService(course Course, graderHome string, port int, token string) Service {
	return Service{
		Name: course.ID,
		URL:  fmt.Sprintf("http://127.0.0.1:%d", port),
		Command: []string{
			"jupyterhub-singleuser",
			fmt.Sprintf("--group=%s", course.FormgradeGroup()),
			"--debug",
		},
		User:     course.GraderAccount(),
		Cwd:      graderHome,
		APIToken: token,
	}
}
