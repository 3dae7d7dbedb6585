// Package importer replays the add-student workflow once per row of a
// delimited roster file.
package importer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/classroom-sre/hub-manager/internal/errdef"
	"github.com/classroom-sre/hub-manager/pkg/model"
	"github.com/classroom-sre/hub-manager/pkg/provision"
)

// expectedHeader is the only accepted first row, exactly and in order.
var expectedHeader = []string{"id", "first_name", "last_name", "email", "lms_user_id", "password"}

type studentAdder interface {
	AddStudent(ctx context.Context, req provision.AddStudentRequest) error
}

func New(logger *slog.Logger, students studentAdder) *Importer {
	return &Importer{logger: logger, students: students}
}

// Importer validates a roster file's shape and submits its rows one at a
// time, strictly in order. A row failure aborts the remaining import; rows
// already submitted stay applied.
type Importer struct {
	logger   *slog.Logger
	students studentAdder
}

// Import dispatches on the file extension: .xlsx goes through the workbook
// reader, everything else is treated as delimited text.
func (i *Importer) Import(ctx context.Context, path string, course string) (int, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return i.ImportWorkbook(ctx, path, course)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening import file: %w", err)
	}
	defer f.Close()

	return i.ImportCSV(ctx, f, course)
}

// ImportCSV reads comma- or semicolon-delimited text. The header is checked
// before any row is processed.
func (i *Importer) ImportCSV(ctx context.Context, r io.Reader, course string) (int, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return 0, fmt.Errorf("reading import header: %w", err)
		}
		return 0, errdef.NewMalformed("import file is empty")
	}
	if err := checkHeader(splitRow(scanner.Text())); err != nil {
		return 0, err
	}

	imported := 0
	line := 1
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		if err := i.importRow(ctx, splitRow(text), line, course); err != nil {
			return imported, err
		}
		imported++
	}
	if err := scanner.Err(); err != nil {
		return imported, fmt.Errorf("reading import file: %w", err)
	}

	i.logger.InfoContext(ctx, "import finished", "course", course, "students", imported)
	return imported, nil
}

func (i *Importer) importRow(ctx context.Context, fields []string, line int, course string) error {
	if len(fields) != len(expectedHeader) {
		return errdef.NewMalformed("line %d has %d fields, expected %d", line, len(fields), len(expectedHeader))
	}

	student := model.Student{
		ID:        fields[0],
		FirstName: fields[1],
		LastName:  fields[2],
		Email:     fields[3],
		LMSUserID: fields[4],
		Password:  fields[5],
	}
	err := i.students.AddStudent(ctx, provision.AddStudentRequest{Course: course, Student: student})
	if err != nil {
		return fmt.Errorf("line %d (student %q): %w", line, student.ID, err)
	}
	return nil
}

func checkHeader(fields []string) error {
	if len(fields) != len(expectedHeader) {
		return errdef.NewMalformed("malformed import header %q, expected %q",
			strings.Join(fields, ","), strings.Join(expectedHeader, ","))
	}
	for index, field := range fields {
		if field != expectedHeader[index] {
			return errdef.NewMalformed("malformed import header %q, expected %q",
				strings.Join(fields, ","), strings.Join(expectedHeader, ","))
		}
	}
	return nil
}

func splitRow(line string) []string {
	normalized := strings.ReplaceAll(line, ";", ",")
	fields := strings.Split(normalized, ",")
	for index, field := range fields {
		fields[index] = strings.TrimSpace(field)
	}
	return fields
}
