package provision

import (
	"fmt"
	"os/exec"
	"os/user"
	"strconv"
	"strings"
)

// NewOSUsers returns the system-account manager backed by the host's user
// database and the adduser/passwd tools.
func NewOSUsers() *OSUsers {
	return &OSUsers{}
}

type OSUsers struct{}

func (OSUsers) Exists(name string) bool {
	_, err := user.Lookup(name)
	return err == nil
}

// Create adds the OS account with no interactive prompts and sets its
// password. No shell is invoked, so nothing in name or password is
// interpreted.
func (u OSUsers) Create(name string, password string) error {
	cmd := exec.Command("adduser", "--disabled-password", "--gecos", "", name)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("adduser %s: %w: %s", name, err, output)
	}
	return u.SetPassword(name, password)
}

// SetPassword feeds the password twice to passwd on stdin, the same exchange
// an operator would type.
func (OSUsers) SetPassword(name string, password string) error {
	cmd := exec.Command("passwd", name)
	cmd.Stdin = strings.NewReader(password + "\n" + password + "\n")
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("passwd %s: %w: %s", name, err, output)
	}
	return nil
}

func (OSUsers) Lookup(name string) (UserInfo, error) {
	account, err := user.Lookup(name)
	if err != nil {
		return UserInfo{}, fmt.Errorf("looking up account %q: %w", name, err)
	}
	uid, err := strconv.Atoi(account.Uid)
	if err != nil {
		return UserInfo{}, fmt.Errorf("account %q has non-numeric uid %q", name, account.Uid)
	}
	gid, err := strconv.Atoi(account.Gid)
	if err != nil {
		return UserInfo{}, fmt.Errorf("account %q has non-numeric gid %q", name, account.Gid)
	}
	return UserInfo{
		Name: account.Username,
		Home: account.HomeDir,
		UID:  uid,
		GID:  gid,
	}, nil
}
