package provision

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/classroom-sre/hub-manager/pkg/model"
)

// NewCourseFiles returns the writer for the grader's on-disk course layout.
func NewCourseFiles() *CourseFiles {
	return &CourseFiles{}
}

type CourseFiles struct{}

// Setup creates the course directory and the grader's personal config inside
// the grader's home, all owned by the grader's uid/gid.
func (CourseFiles) Setup(course model.Course, owner UserInfo) error {
	courseDir := filepath.Join(owner.Home, course.ID)
	if err := ownedDir(courseDir, owner); err != nil {
		return err
	}

	jupyterDir := filepath.Join(owner.Home, ".jupyter")
	if err := ownedDir(jupyterDir, owner); err != nil {
		return err
	}

	configPath := filepath.Join(jupyterDir, "nbgrader_config.py")
	if err := os.WriteFile(configPath, []byte(CourseConfig(course, owner)), 0o644); err != nil {
		return fmt.Errorf("writing %q: %w", configPath, err)
	}
	if err := os.Chown(configPath, owner.UID, owner.GID); err != nil {
		return fmt.Errorf("chowning %q: %w", configPath, err)
	}
	return nil
}

// CourseConfig renders the grader's per-course config: the course root path
// and the course identifier.
func CourseConfig(course model.Course, owner UserInfo) string {
	return fmt.Sprintf(`c = get_config()
c.CourseDirectory.root = '%s'
c.CourseDirectory.course_id = '%s'
`, filepath.Join(owner.Home, course.ID), course.ID)
}

func ownedDir(path string, owner UserInfo) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("creating %q: %w", path, err)
	}
	if err := os.Chown(path, owner.UID, owner.GID); err != nil {
		return fmt.Errorf("chowning %q: %w", path, err)
	}
	return nil
}
