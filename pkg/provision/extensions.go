package provision

import (
	"fmt"
	"os/exec"
)

// Component is a named notebook UI capability.
type Component string

const (
	Formgrader       Component = "formgrader"
	CreateAssignment Component = "create_assignment"
	AssignmentList   Component = "assignment_list"
	CourseList       Component = "course_list"
)

var components = map[Component]bool{
	Formgrader:       true,
	CreateAssignment: true,
	AssignmentList:   true,
	CourseList:       true,
}

// NewExtensionToggler returns the toggler that enables notebook and server
// extensions per user by shelling out to the jupyter CLI.
func NewExtensionToggler(users systemUsers) *ExtensionToggler {
	return &ExtensionToggler{users: users}
}

type ExtensionToggler struct {
	users systemUsers
}

// Enable turns on the component for the user. The jupyter CLI writes into the
// user's own config, so the command is run as that user with HOME and USER
// set accordingly.
func (t *ExtensionToggler) Enable(user string, component Component) error {
	if !components[component] {
		return fmt.Errorf("unknown component %q", component)
	}

	owner, err := t.users.Lookup(user)
	if err != nil {
		return err
	}

	args := []string{
		"-u", user,
		"jupyter", "nbextension", "enable",
		"--user", fmt.Sprintf("%s/main", component),
	}
	// create_assignment lives in the notebook view, everything else in the
	// file tree.
	if component != CreateAssignment {
		args = append(args, "--section=tree")
	}
	if err := t.run(owner, args); err != nil {
		return err
	}

	if component == CreateAssignment {
		return nil
	}
	return t.run(owner, []string{
		"-u", user,
		"jupyter", "serverextension", "enable",
		"--user", fmt.Sprintf("nbgrader.server_extensions.%s", component),
	})
}

func (t *ExtensionToggler) run(owner UserInfo, args []string) error {
	cmd := exec.Command("sudo", args...)
	cmd.Env = []string{
		fmt.Sprintf("HOME=%s", owner.Home),
		fmt.Sprintf("USER=%s", owner.Name),
	}
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("sudo %v: %w: %s", args, err, output)
	}
	return nil
}
