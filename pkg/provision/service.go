// Package provision implements the onboarding workflows: add a course, add a
// teacher, add a student. Each workflow is a linear sequence of guarded
// steps; there is no rollback on partial failure, so every step logs itself
// before running and a crash names the step it died in.
package provision

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/classroom-sre/hub-manager/internal/errdef"
	"github.com/classroom-sre/hub-manager/internal/log"
	"github.com/classroom-sre/hub-manager/pkg/hubapi"
	"github.com/classroom-sre/hub-manager/pkg/hubconfig"
	"github.com/classroom-sre/hub-manager/pkg/model"
)

type store interface {
	Contains(substring string) (bool, error)
	Append(statement string) error
	AdminToken() (string, error)
}

type portAllocator interface {
	Allocate() (int, error)
}

type hubAPI interface {
	GetService(ctx context.Context, name string) (*hubapi.ServiceDescriptor, error)
	CreateUser(ctx context.Context, name string) (hubapi.UserOutcome, error)
	AddUserToGroup(ctx context.Context, group string, user string) error
	SetAdmin(ctx context.Context, user string) error
}

type systemUsers interface {
	Exists(name string) bool
	Create(name string, password string) error
	SetPassword(name string, password string) error
	Lookup(name string) (UserInfo, error)
}

type extensionToggler interface {
	Enable(user string, component Component) error
}

type rosterCommand interface {
	AddStudent(ctx context.Context, course model.Course, grader string, token string, student model.Student) error
}

type hubController interface {
	Restart() error
}

type courseFiles interface {
	Setup(course model.Course, owner UserInfo) error
}

// UserInfo is the OS-level identity of an account.
type UserInfo struct {
	Name string
	Home string
	UID  int
	GID  int
}

func NewService(
	logger *slog.Logger,
	store store,
	allocator portAllocator,
	api hubAPI,
	users systemUsers,
	extensions extensionToggler,
	roster rosterCommand,
	hub hubController,
	files courseFiles,
) *Service {
	return &Service{
		logger:     logger,
		store:      store,
		allocator:  allocator,
		api:        api,
		users:      users,
		extensions: extensions,
		roster:     roster,
		hub:        hub,
		files:      files,
		validate:   validator.New(),
	}
}

// Service runs the provisioning workflows. It is not safe for concurrent use;
// the store's advisory lock serializes config mutations across processes, but
// a workflow as a whole is not atomic.
type Service struct {
	logger     *slog.Logger
	store      store
	allocator  portAllocator
	api        hubAPI
	users      systemUsers
	extensions extensionToggler
	roster     rosterCommand
	hub        hubController
	files      courseFiles
	validate   *validator.Validate
}

type AddTeacherRequest struct {
	Name     string `validate:"required"`
	Course   string `validate:"required"`
	Password string
}

type AddStudentRequest struct {
	Course  string `validate:"required"`
	Student model.Student
}

// AddCourse provisions a course: the grader account, its groups, its UI
// capabilities, and the service registration. The course identifier is
// normalized into a slug first. Fails with a conflict error when the derived
// grader account already appears in the hub config; in that case nothing has
// been mutated, in particular the port counter.
func (s *Service) AddCourse(ctx context.Context, courseID string) error {
	if courseID == "" {
		return errdef.NewBadRequest("course name is required")
	}

	ctx = log.WithOperation(ctx, "add-course")
	course := model.NewCourse(courseID)
	grader := course.GraderAccount()

	exists, err := s.store.Contains(grader)
	if err != nil {
		return err
	}
	if exists {
		return errdef.NewConflict("course %q already exists", course.ID)
	}

	token, err := s.store.AdminToken()
	if err != nil {
		return err
	}

	ctx = s.step(ctx, "allocate-port", "course", course.ID)
	port, err := s.allocator.Allocate()
	if err != nil {
		return err
	}

	if !s.users.Exists(grader) {
		ctx = s.step(ctx, "create-grader-account", "grader", grader)
		// The password is random and not recorded anywhere. The grader is
		// only reachable through the token-based service launch.
		if err := s.users.Create(grader, uuid.NewString()); err != nil {
			return err
		}
	}

	ctx = s.step(ctx, "append-grants", "grader", grader)
	for _, statement := range []string{
		hubconfig.AdminUserStatement(grader),
		hubconfig.FormgradeGroupStatement(course, grader),
		hubconfig.StudentGroupStatement(course),
	} {
		if err := s.store.Append(statement); err != nil {
			return err
		}
	}

	ctx = s.step(ctx, "enable-grading-ui", "grader", grader)
	if err := s.extensions.Enable(grader, Formgrader); err != nil {
		return err
	}
	if err := s.extensions.Enable(grader, CreateAssignment); err != nil {
		return err
	}

	owner, err := s.users.Lookup(grader)
	if err != nil {
		return err
	}

	ctx = s.step(ctx, "register-service", "port", port)
	service := model.NewCourseService(course, owner.Home, port, token)
	if err := s.store.Append(hubconfig.ServiceStatement(service)); err != nil {
		return err
	}

	ctx = s.step(ctx, "setup-course-directory", "home", owner.Home)
	if err := s.files.Setup(course, owner); err != nil {
		return err
	}

	ctx = s.step(ctx, "restart-hub")
	if err := s.hub.Restart(); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "course provisioned", "course", course.ID, "port", port)
	return nil
}

// AddTeacher adds a teacher account to an existing course's formgrade group.
// A second call for the same teacher may omit the password, the account
// already exists.
func (s *Service) AddTeacher(ctx context.Context, req AddTeacherRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return errdef.NewBadRequest("invalid add teacher request: %s", err)
	}

	ctx = log.WithOperation(ctx, "add-teacher")
	course := model.NewCourse(req.Course)

	ctx = s.step(ctx, "check-course", "course", course.ID)
	if _, err := s.api.GetService(ctx, course.ID); err != nil {
		return err
	}

	if !s.users.Exists(req.Name) {
		if req.Password == "" {
			return errdef.NewBadRequest("account %q does not exist, password is required", req.Name)
		}
		ctx = s.step(ctx, "create-teacher-account", "teacher", req.Name)
		if err := s.users.Create(req.Name, req.Password); err != nil {
			return err
		}
	}

	ctx = s.step(ctx, "register-hub-user", "teacher", req.Name)
	if _, err := s.api.CreateUser(ctx, req.Name); err != nil {
		return err
	}
	if err := s.api.AddUserToGroup(ctx, course.FormgradeGroup(), req.Name); err != nil {
		return err
	}
	if err := s.api.SetAdmin(ctx, req.Name); err != nil {
		return err
	}

	ctx = s.step(ctx, "enable-teacher-ui", "teacher", req.Name)
	if err := s.extensions.Enable(req.Name, AssignmentList); err != nil {
		return err
	}
	if err := s.extensions.Enable(req.Name, CourseList); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "teacher added", "teacher", req.Name, "course", course.ID)
	return nil
}

// AddStudent enrolls a student in a course's roster. The roster command runs
// as the course's grader and creates the OS account as a side effect when it
// is absent, in which case a password is required and set explicitly
// afterwards.
func (s *Service) AddStudent(ctx context.Context, req AddStudentRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return errdef.NewBadRequest("invalid add student request: %s", err)
	}
	if err := s.validate.Struct(req.Student); err != nil {
		return errdef.NewBadRequest("invalid student %q: %s", req.Student.ID, err)
	}

	ctx = log.WithOperation(ctx, "add-student")
	course := model.NewCourse(req.Course)

	ctx = s.step(ctx, "check-course", "course", course.ID)
	if _, err := s.api.GetService(ctx, course.ID); err != nil {
		return err
	}

	existed := s.users.Exists(req.Student.ID)
	if !existed && req.Student.Password == "" {
		return errdef.NewBadRequest("account %q does not exist, password is required", req.Student.ID)
	}

	token, err := s.store.AdminToken()
	if err != nil {
		return err
	}

	ctx = s.step(ctx, "enroll-student", "student", req.Student.ID)
	if err := s.roster.AddStudent(ctx, course, course.GraderAccount(), token, req.Student); err != nil {
		return err
	}

	if !existed {
		ctx = s.step(ctx, "set-password", "student", req.Student.ID)
		if err := s.users.SetPassword(req.Student.ID, req.Student.Password); err != nil {
			return err
		}
	}

	ctx = s.step(ctx, "enable-student-ui", "student", req.Student.ID)
	if err := s.extensions.Enable(req.Student.ID, AssignmentList); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "student added", "student", req.Student.ID, "course", course.ID)
	return nil
}

func (s *Service) step(ctx context.Context, name string, args ...any) context.Context {
	ctx = log.WithStep(ctx, name)
	s.logger.InfoContext(ctx, name, args...)
	return ctx
}
