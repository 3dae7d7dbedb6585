package importer_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/classroom-sre/hub-manager/internal/errdef"
	"github.com/classroom-sre/hub-manager/pkg/importer"
	"github.com/classroom-sre/hub-manager/pkg/model"
	"github.com/classroom-sre/hub-manager/pkg/provision"
)

type fakeAdder struct {
	requests []provision.AddStudentRequest
	failOn   string
}

func (f *fakeAdder) AddStudent(ctx context.Context, req provision.AddStudentRequest) error {
	f.requests = append(f.requests, req)
	if f.failOn != "" && req.Student.ID == f.failOn {
		return errors.New("enrollment failed")
	}
	return nil
}

func newImporter(adder *fakeAdder) *importer.Importer {
	return importer.New(slog.New(slog.NewTextHandler(io.Discard, nil)), adder)
}

const header = "id,first_name,last_name,email,lms_user_id,password"

func TestImportCSV(t *testing.T) {
	adder := &fakeAdder{}
	input := header + "\n42,Ada,Lovelace,ada@example.com,lms42,secret\n"

	imported, err := newImporter(adder).ImportCSV(context.Background(), strings.NewReader(input), "calc101")

	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	require.Len(t, adder.requests, 1)
	assert.Equal(t, "calc101", adder.requests[0].Course)
	assert.Equal(t, model.Student{
		ID:        "42",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		LMSUserID: "lms42",
		Password:  "secret",
	}, adder.requests[0].Student)
}

func TestImportCSVSemicolonDelimited(t *testing.T) {
	adder := &fakeAdder{}
	input := "id;first_name;last_name;email;lms_user_id;password\n42;Ada;Lovelace;ada@example.com;lms42;secret\n"

	imported, err := newImporter(adder).ImportCSV(context.Background(), strings.NewReader(input), "calc101")

	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	require.Len(t, adder.requests, 1)
	assert.Equal(t, "42", adder.requests[0].Student.ID)
}

func TestImportCSVHeaderValidation(t *testing.T) {
	tests := map[string]string{
		"ReorderedColumns": "first_name,id,last_name,email,lms_user_id,password",
		"MissingColumn":    "id,first_name,last_name,email,lms_user_id",
		"ExtraColumn":      header + ",shoe_size",
		"WrongNames":       "student,given,family,mail,lms,pw",
	}
	for name, badHeader := range tests {
		t.Run(name, func(t *testing.T) {
			adder := &fakeAdder{}
			input := badHeader + "\n42,Ada,Lovelace,ada@example.com,lms42,secret\n"

			_, err := newImporter(adder).ImportCSV(context.Background(), strings.NewReader(input), "calc101")

			assert.True(t, errdef.IsMalformed(err), "should be a malformed error")
			assert.ErrorContains(t, err, badHeader)
			assert.Empty(t, adder.requests, "no row may be processed after a bad header")
		})
	}
}

func TestImportCSVEmptyFile(t *testing.T) {
	adder := &fakeAdder{}

	_, err := newImporter(adder).ImportCSV(context.Background(), strings.NewReader(""), "calc101")

	assert.True(t, errdef.IsMalformed(err), "should be a malformed error")
}

func TestImportCSVRowWithWrongFieldCount(t *testing.T) {
	adder := &fakeAdder{}
	input := header + "\n42,Ada,Lovelace\n"

	imported, err := newImporter(adder).ImportCSV(context.Background(), strings.NewReader(input), "calc101")

	assert.True(t, errdef.IsMalformed(err), "should be a malformed error")
	assert.Zero(t, imported)
	assert.Empty(t, adder.requests)
}

func TestImportCSVAbortsOnFirstRowFailure(t *testing.T) {
	adder := &fakeAdder{failOn: "43"}
	input := header + "\n" +
		"42,Ada,Lovelace,ada@example.com,lms42,secret\n" +
		"43,Charles,Babbage,charles@example.com,lms43,secret\n" +
		"44,Grace,Hopper,grace@example.com,lms44,secret\n"

	imported, err := newImporter(adder).ImportCSV(context.Background(), strings.NewReader(input), "calc101")

	require.Error(t, err)
	assert.ErrorContains(t, err, `student "43"`)
	assert.Equal(t, 1, imported, "rows before the failure stay applied")
	assert.Len(t, adder.requests, 2, "rows after the failure must not be submitted")
}

func TestImportCSVSkipsBlankLines(t *testing.T) {
	adder := &fakeAdder{}
	input := header + "\n\n42,Ada,Lovelace,ada@example.com,lms42,secret\n\n"

	imported, err := newImporter(adder).ImportCSV(context.Background(), strings.NewReader(input), "calc101")

	require.NoError(t, err)
	assert.Equal(t, 1, imported)
}

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	workbook := excelize.NewFile()
	sheet := workbook.GetSheetName(0)
	for index, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, index+1)
		require.NoError(t, err)
		require.NoError(t, workbook.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "roster.xlsx")
	require.NoError(t, workbook.SaveAs(path))
	return path
}

func TestImportWorkbook(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"id", "first_name", "last_name", "email", "lms_user_id", "password"},
		{"42", "Ada", "Lovelace", "ada@example.com", "lms42", "secret"},
	})

	adder := &fakeAdder{}
	imported, err := newImporter(adder).Import(context.Background(), path, "calc101")

	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	require.Len(t, adder.requests, 1)
	assert.Equal(t, "42", adder.requests[0].Student.ID)
	assert.Equal(t, "lms42", adder.requests[0].Student.LMSUserID)
}

func TestImportWorkbookHeaderValidation(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"first_name", "id", "last_name", "email", "lms_user_id", "password"},
		{"Ada", "42", "Lovelace", "ada@example.com", "lms42", "secret"},
	})

	adder := &fakeAdder{}
	_, err := newImporter(adder).Import(context.Background(), path, "calc101")

	assert.True(t, errdef.IsMalformed(err), "should be a malformed error")
	assert.Empty(t, adder.requests)
}
