package provision

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/classroom-sre/hub-manager/pkg/model"
)

// NewRosterCommand returns the adapter that enrolls students through the
// grading platform's own roster tool, impersonating the course's grader.
func NewRosterCommand(users systemUsers) *RosterCommand {
	return &RosterCommand{users: users}
}

type RosterCommand struct {
	users systemUsers
}

// AddStudent runs `nbgrader db student add` as the grader, in the grader's
// course directory so the platform picks up the per-course config. The admin
// token is injected into the environment for the platform's hub auth plugin;
// the tool creates the student's OS account as a side effect when it is
// absent, but never sets an OS password.
func (r *RosterCommand) AddStudent(ctx context.Context, course model.Course, grader string, token string, student model.Student) error {
	owner, err := r.users.Lookup(grader)
	if err != nil {
		return err
	}

	args := []string{
		"-u", grader,
		"--preserve-env=HOME,USER,JUPYTERHUB_API_TOKEN",
		"nbgrader", "db", "student", "add", student.ID,
	}
	if student.FirstName != "" {
		args = append(args, fmt.Sprintf("--first-name=%s", student.FirstName))
	}
	if student.LastName != "" {
		args = append(args, fmt.Sprintf("--last-name=%s", student.LastName))
	}
	if student.Email != "" {
		args = append(args, fmt.Sprintf("--email=%s", student.Email))
	}
	if student.LMSUserID != "" {
		args = append(args, fmt.Sprintf("--lms-user-id=%s", student.LMSUserID))
	}

	cmd := exec.CommandContext(ctx, "sudo", args...)
	cmd.Dir = fmt.Sprintf("%s/%s", owner.Home, course.ID)
	cmd.Env = []string{
		fmt.Sprintf("HOME=%s", owner.Home),
		fmt.Sprintf("USER=%s", owner.Name),
		fmt.Sprintf("JUPYTERHUB_API_TOKEN=%s", token),
	}
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("enrolling student %s in %s: %w: %s", student.ID, course.ID, err, output)
	}
	return nil
}
