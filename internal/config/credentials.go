package config

import (
	"bufio"
	"os"
	"strings"

	pkgerrors "github.com/turtacn/patentsview-graph/pkg/errors"
)

// ConnectionDescriptor is everything the graph writer needs to open a
// session.
type ConnectionDescriptor struct {
	URI      string
	Database string
	Username string
	Password string
}

// String redacts the password.
func (d ConnectionDescriptor) String() string {
	db := d.Database
	if db == "" {
		db = "<default>"
	}
	return d.Username + "@" + d.URI + "/" + db
}

// ReadCredentials reads a plain text file whose first line is the username
// and second line the password. Surrounding whitespace is trimmed on both;
// any further lines are ignored.
func ReadCredentials(path string) (username, password string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", pkgerrors.Wrap(err, pkgerrors.ErrCodeCredentialFile, "cannot open credential file").WithDetail(path)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	var lines []string
	for len(lines) < 2 && sc.Scan() {
		lines = append(lines, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return "", "", pkgerrors.Wrap(err, pkgerrors.ErrCodeCredentialFile, "cannot read credential file").WithDetail(path)
	}
	if len(lines) < 2 {
		return "", "", pkgerrors.New(pkgerrors.ErrCodeCredentialFile, "credential file must contain a username line and a password line").WithDetail(path)
	}
	if lines[0] == "" {
		return "", "", pkgerrors.New(pkgerrors.ErrCodeCredentialFile, "credential file has an empty username").WithDetail(path)
	}
	return lines[0], lines[1], nil
}

// NewConnectionDescriptor combines the store settings with the credential
// file at credPath.
func NewConnectionDescriptor(cfg Neo4jConfig, credPath string) (ConnectionDescriptor, error) {
	user, pass, err := ReadCredentials(credPath)
	if err != nil {
		return ConnectionDescriptor{}, err
	}
	return ConnectionDescriptor{
		URI:      cfg.URI,
		Database: cfg.Database,
		Username: user,
		Password: pass,
	}, nil
}

//Personal.AI order the ending
