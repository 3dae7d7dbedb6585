package hubconfig

import (
	"fmt"
	"strings"

	"github.com/classroom-sre/hub-manager/internal/errdef"
	"github.com/classroom-sre/hub-manager/pkg/model"
)

// The hub reads its config as a Python script, so every statement appended
// here has to be a valid line of that dialect. The constructors below are the
// only place the dialect is spelled out.

const (
	adminTokenKey     = "admin_token"
	nextPortKey       = "next_port"
	servicePrefix     = "c.JupyterHub.services.append("
	adminUserPrefix   = "c.Authenticator.admin_users.add("
	loadGroupsPrefix  = "c.JupyterHub.load_groups.setdefault("
	serviceLineSuffix = ")"
)

// AdminTokenStatement records the admin API token, written once at install
// time.
func AdminTokenStatement(token string) string {
	return fmt.Sprintf("%s=%s", adminTokenKey, pyString(token))
}

// NextPortStatement seeds or updates the service port counter.
func NextPortStatement(port int) string {
	return fmt.Sprintf("%s=%d", nextPortKey, port)
}

// AdminUserStatement grants hub admin rights to a user.
func AdminUserStatement(user string) string {
	return fmt.Sprintf("%s%s)", adminUserPrefix, pyString(user))
}

// FormgradeGroupStatement ensures the course's formgrade group exists and adds
// the user to it.
func FormgradeGroupStatement(course model.Course, user string) string {
	return fmt.Sprintf("%s%s,[]).append(%s)", loadGroupsPrefix, pyString(course.FormgradeGroup()), pyString(user))
}

// StudentGroupStatement ensures the course's student group exists, initially
// empty.
func StudentGroupStatement(course model.Course) string {
	return fmt.Sprintf("%s%s,[])", loadGroupsPrefix, pyString(course.StudentGroup()))
}

// ServiceStatement registers a course service with the hub.
func ServiceStatement(service model.Service) string {
	var b strings.Builder
	b.WriteString(servicePrefix)
	b.WriteString("{")
	b.WriteString(fmt.Sprintf("'name': %s, ", pyString(service.Name)))
	b.WriteString(fmt.Sprintf("'url': %s, ", pyString(service.URL)))
	b.WriteString("'command': [")
	for i, arg := range service.Command {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pyString(arg))
	}
	b.WriteString("], ")
	b.WriteString(fmt.Sprintf("'user': %s, ", pyString(service.User)))
	b.WriteString(fmt.Sprintf("'cwd': %s, ", pyString(service.Cwd)))
	b.WriteString(fmt.Sprintf("'api_token': %s", pyString(service.APIToken)))
	b.WriteString("}")
	b.WriteString(serviceLineSuffix)
	return b.String()
}

// ParseServiceStatement parses a line produced by ServiceStatement back into
// a service record.
func ParseServiceStatement(line string) (model.Service, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, servicePrefix) || !strings.HasSuffix(trimmed, serviceLineSuffix) {
		return model.Service{}, errdef.NewMalformed("not a service statement: %q", line)
	}
	body := trimmed[len(servicePrefix) : len(trimmed)-len(serviceLineSuffix)]

	scanner := &pyScanner{input: body}
	fields, err := scanner.dict()
	if err != nil {
		return model.Service{}, errdef.NewMalformed("parsing service statement %q: %s", line, err)
	}

	service := model.Service{
		Name:     fields.strings["name"],
		URL:      fields.strings["url"],
		Command:  fields.lists["command"],
		User:     fields.strings["user"],
		Cwd:      fields.strings["cwd"],
		APIToken: fields.strings["api_token"],
	}
	return service, nil
}

func pyString(s string) string {
	escaped := strings.ReplaceAll(s, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `'`, `\'`)
	return "'" + escaped + "'"
}

// pyScanner parses the subset of Python literals the service statement uses:
// a flat dict of single-quoted strings and lists of single-quoted strings.
type pyScanner struct {
	input string
	pos   int
}

type pyDict struct {
	strings map[string]string
	lists   map[string][]string
}

func (p *pyScanner) dict() (pyDict, error) {
	result := pyDict{
		strings: map[string]string{},
		lists:   map[string][]string{},
	}

	if err := p.expect('{'); err != nil {
		return result, err
	}
	for {
		p.skipSpaces()
		if p.peek() == '}' {
			p.pos++
			break
		}

		key, err := p.string()
		if err != nil {
			return result, err
		}
		if err := p.expect(':'); err != nil {
			return result, err
		}

		p.skipSpaces()
		switch p.peek() {
		case '\'':
			value, err := p.string()
			if err != nil {
				return result, err
			}
			result.strings[key] = value
		case '[':
			value, err := p.list()
			if err != nil {
				return result, err
			}
			result.lists[key] = value
		default:
			return result, fmt.Errorf("unexpected value at offset %d", p.pos)
		}

		p.skipSpaces()
		if p.peek() == ',' {
			p.pos++
		}
	}
	return result, nil
}

func (p *pyScanner) list() ([]string, error) {
	if err := p.expect('['); err != nil {
		return nil, err
	}
	var items []string
	for {
		p.skipSpaces()
		if p.peek() == ']' {
			p.pos++
			return items, nil
		}
		item, err := p.string()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		p.skipSpaces()
		if p.peek() == ',' {
			p.pos++
		}
	}
}

func (p *pyScanner) string() (string, error) {
	if err := p.expect('\''); err != nil {
		return "", err
	}
	var b strings.Builder
	for p.pos < len(p.input) {
		ch := p.input[p.pos]
		p.pos++
		switch ch {
		case '\\':
			if p.pos >= len(p.input) {
				return "", fmt.Errorf("truncated escape at offset %d", p.pos)
			}
			b.WriteByte(p.input[p.pos])
			p.pos++
		case '\'':
			return b.String(), nil
		default:
			b.WriteByte(ch)
		}
	}
	return "", fmt.Errorf("unterminated string at offset %d", p.pos)
}

func (p *pyScanner) expect(ch byte) error {
	p.skipSpaces()
	if p.pos >= len(p.input) || p.input[p.pos] != ch {
		return fmt.Errorf("expected %q at offset %d", ch, p.pos)
	}
	p.pos++
	return nil
}

func (p *pyScanner) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *pyScanner) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}
