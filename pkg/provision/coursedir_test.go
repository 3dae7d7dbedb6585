package provision

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classroom-sre/hub-manager/pkg/model"
)

func TestCourseConfig(t *testing.T) {
	course := model.NewCourse("calc101")
	owner := UserInfo{Name: "grader-calc101", Home: "/home/grader-calc101"}

	assert.Equal(t, `c = get_config()
c.CourseDirectory.root = '/home/grader-calc101/calc101'
c.CourseDirectory.course_id = 'calc101'
`, CourseConfig(course, owner))
}

func TestCourseFilesSetup(t *testing.T) {
	home := t.TempDir()
	course := model.NewCourse("calc101")
	owner := UserInfo{
		Name: "grader-calc101",
		Home: home,
		UID:  os.Getuid(),
		GID:  os.Getgid(),
	}

	err := NewCourseFiles().Setup(course, owner)
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(home, "calc101"))

	content, err := os.ReadFile(filepath.Join(home, ".jupyter", "nbgrader_config.py"))
	require.NoError(t, err)
	assert.Equal(t, CourseConfig(course, owner), string(content))
}

func TestEnableUnknownComponent(t *testing.T) {
	toggler := NewExtensionToggler(newFakeUsers("ada"))

	err := toggler.Enable("ada", Component("spellcheck"))

	assert.ErrorContains(t, err, "unknown component")
}
