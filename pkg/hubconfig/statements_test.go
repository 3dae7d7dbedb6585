package hubconfig_test

import (
	"testing"

	"github.com/classroom-sre/hub-manager/internal/errdef"
	"github.com/classroom-sre/hub-manager/pkg/hubconfig"
	"github.com/classroom-sre/hub-manager/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatementDialect(t *testing.T) {
	course := model.NewCourse("calc101")

	assert.Equal(t, "admin_token='abc123'", hubconfig.AdminTokenStatement("abc123"))
	assert.Equal(t, "next_port=9999", hubconfig.NextPortStatement(9999))
	assert.Equal(t, "c.Authenticator.admin_users.add('grader-calc101')",
		hubconfig.AdminUserStatement(course.GraderAccount()))
	assert.Equal(t, "c.JupyterHub.load_groups.setdefault('formgrade-calc101',[]).append('grader-calc101')",
		hubconfig.FormgradeGroupStatement(course, course.GraderAccount()))
	assert.Equal(t, "c.JupyterHub.load_groups.setdefault('nbgrader-calc101',[])",
		hubconfig.StudentGroupStatement(course))
}

func TestServiceStatement(t *testing.T) {
	course := model.NewCourse("calc101")
	service := model.NewCourseService(course, "/home/grader-calc101", 9999, "abc123")

	statement := hubconfig.ServiceStatement(service)

	assert.Equal(t,
		"c.JupyterHub.services.append({'name': 'calc101', 'url': 'http://127.0.0.1:9999', "+
			"'command': ['jupyterhub-singleuser', '--group=formgrade-calc101', '--debug'], "+
			"'user': 'grader-calc101', 'cwd': '/home/grader-calc101', 'api_token': 'abc123'})",
		statement)
}

func TestServiceStatementRoundTrip(t *testing.T) {
	course := model.NewCourse("calc101")
	service := model.NewCourseService(course, "/home/grader-calc101", 9999, "abc123")

	parsed, err := hubconfig.ParseServiceStatement(hubconfig.ServiceStatement(service))

	require.NoError(t, err)
	assert.Equal(t, service, parsed)
}

func TestServiceStatementRoundTripWithQuotes(t *testing.T) {
	service := model.Service{
		Name:     "it's-a-course",
		URL:      "http://127.0.0.1:9998",
		Command:  []string{"jupyterhub-singleuser", "--debug"},
		User:     "grader-its-a-course",
		Cwd:      `/home/grader-its-a-course`,
		APIToken: "to'ken",
	}

	parsed, err := hubconfig.ParseServiceStatement(hubconfig.ServiceStatement(service))

	require.NoError(t, err)
	assert.Equal(t, service, parsed)
}

func TestParseServiceStatementRejectsOtherLines(t *testing.T) {
	lines := []string{
		"c = get_config()",
		"next_port=9999",
		"c.Authenticator.admin_users.add('grader-calc101')",
		"c.JupyterHub.services.append({'name': 'broken'",
	}
	for _, line := range lines {
		_, err := hubconfig.ParseServiceStatement(line)
		assert.True(t, errdef.IsMalformed(err), "line %q should be rejected", line)
	}
}
