// hubctl provisions courses, teachers, and students on a multi-user notebook
// host. The hub config file is the authoritative state; hubctl mutates it,
// the OS user database, and the live hub through its management API.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/classroom-sre/hub-manager/internal/errdef"
	"github.com/classroom-sre/hub-manager/internal/log"
	"github.com/classroom-sre/hub-manager/pkg/config"
	"github.com/classroom-sre/hub-manager/pkg/hubapi"
	"github.com/classroom-sre/hub-manager/pkg/hubconfig"
	"github.com/classroom-sre/hub-manager/pkg/importer"
	"github.com/classroom-sre/hub-manager/pkg/installer"
	"github.com/classroom-sre/hub-manager/pkg/model"
	"github.com/classroom-sre/hub-manager/pkg/provision"
)

var flagSkipPackages = &cli.BoolFlag{
	Name:  "skip-packages",
	Usage: "don't install system packages, the host is already prepared",
}

var flagSystemd = &cli.BoolFlag{
	Name:  "systemd",
	Value: true,
	Usage: "install and start the hub systemd unit",
}

var flagPassword = &cli.StringFlag{
	Name:  "password",
	Usage: "initial password, required when the OS account doesn't exist yet",
}

var flagFirstName = &cli.StringFlag{Name: "first-name"}
var flagLastName = &cli.StringFlag{Name: "last-name"}
var flagEmail = &cli.StringFlag{Name: "email"}
var flagLMSUserID = &cli.StringFlag{Name: "lms-user-id"}

func main() {
	_ = godotenv.Load()

	cfg := config.New()
	logger := newLogger()
	deps := wire(cfg, logger)

	app := &cli.App{
		Name:  "hubctl",
		Usage: "provision courses, teachers, and students on a notebook hub",
		Commands: []*cli.Command{
			{
				Name:  "install",
				Usage: "install the hub and grading platform from scratch",
				Flags: []cli.Flag{flagSkipPackages, flagSystemd},
				Action: func(cCtx *cli.Context) error {
					return deps.installer.Install(cCtx.Context, installer.Options{
						SkipPackages: cCtx.Bool(flagSkipPackages.Name),
						Systemd:      cCtx.Bool(flagSystemd.Name),
					})
				},
			},
			{
				Name:  "add",
				Usage: "add a course, a teacher, or a student",
				Subcommands: []*cli.Command{
					{
						Name:      "course",
						Usage:     "provision a course with its grader account and service",
						ArgsUsage: "<name>",
						Action: func(cCtx *cli.Context) error {
							if cCtx.NArg() != 1 {
								return errdef.NewBadRequest("usage: hubctl add course <name>")
							}
							return deps.provisioner.AddCourse(cCtx.Context, cCtx.Args().Get(0))
						},
					},
					{
						Name:      "teacher",
						Usage:     "add a teacher to an existing course",
						ArgsUsage: "<name> <course>",
						Flags:     []cli.Flag{flagPassword},
						Action: func(cCtx *cli.Context) error {
							if cCtx.NArg() != 2 {
								return errdef.NewBadRequest("usage: hubctl add teacher <name> <course>")
							}
							return deps.provisioner.AddTeacher(cCtx.Context, provision.AddTeacherRequest{
								Name:     cCtx.Args().Get(0),
								Course:   cCtx.Args().Get(1),
								Password: cCtx.String(flagPassword.Name),
							})
						},
					},
					{
						Name:      "student",
						Usage:     "enroll a student in an existing course",
						ArgsUsage: "<id> <course>",
						Flags:     []cli.Flag{flagFirstName, flagLastName, flagEmail, flagLMSUserID, flagPassword},
						Action: func(cCtx *cli.Context) error {
							if cCtx.NArg() != 2 {
								return errdef.NewBadRequest("usage: hubctl add student <id> <course>")
							}
							return deps.provisioner.AddStudent(cCtx.Context, provision.AddStudentRequest{
								Course: cCtx.Args().Get(1),
								Student: model.Student{
									ID:        cCtx.Args().Get(0),
									FirstName: cCtx.String(flagFirstName.Name),
									LastName:  cCtx.String(flagLastName.Name),
									Email:     cCtx.String(flagEmail.Name),
									LMSUserID: cCtx.String(flagLMSUserID.Name),
									Password:  cCtx.String(flagPassword.Name),
								},
							})
						},
					},
				},
			},
			{
				Name:      "import",
				Usage:     "enroll students from a roster file (.csv or .xlsx)",
				ArgsUsage: "<file> <course>",
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 2 {
						return errdef.NewBadRequest("usage: hubctl import <file> <course>")
					}
					imported, err := deps.importer.Import(cCtx.Context, cCtx.Args().Get(0), cCtx.Args().Get(1))
					if err != nil {
						return err
					}
					fmt.Printf("imported %d students\n", imported)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		if errdef.IsDomain(err) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		logger.Error("operation failed", "error", err)
		os.Exit(1)
	}
}

type dependencies struct {
	provisioner *provision.Service
	importer    *importer.Importer
	installer   *installer.Service
}

func wire(cfg config.Config, logger *slog.Logger) dependencies {
	store := hubconfig.NewStore(cfg.HubConfigFile)
	allocator := hubconfig.NewAllocator(store)
	api := hubapi.NewClient(cfg.APIURL, store)
	users := provision.NewOSUsers()
	extensions := provision.NewExtensionToggler(users)
	roster := provision.NewRosterCommand(users)
	hub := provision.NewHubController("jupyterhub")
	files := provision.NewCourseFiles()

	provisioner := provision.NewService(logger, store, allocator, api, users, extensions, roster, hub, files)

	return dependencies{
		provisioner: provisioner,
		importer:    importer.New(logger, provisioner),
		installer:   installer.New(logger, cfg, store, installer.NewExecRunner(logger), users),
	}
}

func newLogger() *slog.Logger {
	pretty := os.Getenv("HUB_LOG_PRETTY") == "true"
	handler := log.NewPrettyJSONHandler(os.Stdout, &log.PrettyJSONHandlerOptions{PrettyPrint: pretty})
	return slog.New(log.New(handler))
}
