// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rohandhobale/drivesync/pkg/adapter/config/settings"
	"github.com/rohandhobale/drivesync/pkg/adapter/db/postgres"
	"github.com/rohandhobale/drivesync/pkg/adapter/db/postgres/schemarp"
	"github.com/rohandhobale/drivesync/pkg/adapter/hash/scram"
	"github.com/rohandhobale/drivesync/pkg/core/log"
	"github.com/rohandhobale/drivesync/pkg/core/repo"
	scrami "github.com/rohandhobale/drivesync/pkg/core/scram"
)

var errInvalidPort = errors.New("database port must be in [1, 65535]")

var (
	minMaxConns    = 1
	maxMaxConns    = 500
	minMaxLifetime = settings.Duration(time.Minute)
	maxMaxLifetime = settings.Duration(24 * time.Hour)
)

// Database contains the database related configuration settings.
type Database struct {
	Host    string // domain name or IP address of the DBMS server
	Port    int    // port number of the DBMS server
	Name    string // database name
	PassDir string `yaml:"pass-dir"` // path of the passwords dir

	// RoleSuffix specifies a possibly empty suffix for the database
	// role names. Normally, repo.AdminRole and repo.NormalRole roles
	// are used. In the parallel test cases, it is required to create
	// multiple non-colliding roles in the same database cluster and
	// so having a unique (per test) role suffix helps with parallelism.
	RoleSuffix repo.Role `yaml:"role-suffix,omitempty"`

	// AuthMethod specifies how passwords should be hashed before being
	// sent to the DBMS. Either of scram-sha-1 and scram-sha-256 (the
	// default value) may be used.
	AuthMethod string `yaml:"auth-method,omitempty"`

	// MaxConns limits the open connections of each pool (default 20).
	MaxConns *int `yaml:"max-conns,omitempty"`

	// ConnMaxLifetime recycles the pooled connections (default 30m).
	ConnMaxLifetime *settings.Duration `yaml:"conn-max-lifetime,omitempty"`

	hasher scrami.Hasher `yaml:"-"`
}

// ConnectionPool creates a database connection pool for the `r` role
// (suffixed by d.RoleSuffix). The password is taken from the .pgpass
// file in the d.PassDir folder which has lines like this:
//
//	host:port:dbname:role:password
//
// If no connection could be established, the passwords may have been
// renewed by an incomplete initialization. So the .pgpass.new file is
// tried too and, if it works, it is moved over the .pgpass file.
func (d Database) ConnectionPool(
	ctx context.Context, r repo.Role,
) (repo.Pool, error) {
	path := filepath.Join(d.PassDir, ".pgpass")
	u, err := d.ConnectionURL(r, path)
	if err != nil {
		return nil, fmt.Errorf("using %q pass-file: %w", path, err)
	}
	p, err := postgres.NewPool(ctx, u, d.poolOptions()...)
	if err == nil {
		return p, nil
	}
	newPath := filepath.Join(d.PassDir, ".pgpass.new")
	log.Warn(
		ctx, "connection failed, trying the renewed passwords",
		log.Err("err", err),
	)
	u, err = d.ConnectionURL(r, newPath)
	if err != nil {
		return nil, fmt.Errorf("using %q pass-file: %w", newPath, err)
	}
	p, err = postgres.NewPool(ctx, u, d.poolOptions()...)
	if err != nil {
		return nil, fmt.Errorf("can use neither pass-file: %w", err)
	}
	if err = os.Rename(newPath, path); err != nil {
		p.Close()
		return nil, fmt.Errorf("os.Rename: %w", err)
	}
	return p, nil
}

func (d Database) poolOptions() []postgres.PoolOption {
	var opts []postgres.PoolOption
	if d.MaxConns != nil {
		opts = append(opts, postgres.WithMaxConns(*d.MaxConns))
	}
	if d.ConnMaxLifetime != nil {
		opts = append(opts, postgres.WithConnMaxLifetime(
			time.Duration(*d.ConnMaxLifetime),
		))
	}
	return opts
}

// ConnectionURL returns the postgresql URL for connecting as the `r`
// role, reading its password from the `path` pgpass formatted file.
// Empty lines and lines starting with `#` are ignored.
func (d Database) ConnectionURL(
	r repo.Role, path string,
) (string, error) {
	passLines, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading pass-file: %w", err)
	}
	r = r + d.RoleSuffix
	prfx := fmt.Sprintf("%s:%d:%s:%s:", d.Host, d.Port, d.Name, r)
	var pass string
	for _, line := range strings.Split(string(passLines), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || line[0] == '#' {
			continue
		}
		if strings.HasPrefix(line, prfx) {
			pass = line[len(prfx):]
			break
		}
	}
	if pass == "" {
		return "", errors.New("no matching password line")
	}
	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(string(r), pass),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	return u.String(), nil
}

// NewSchemaRepo instantiates a Schema repository which suffixes role
// names and hashes passwords as configured. ValidateAndNormalize must
// be called beforehand.
func (d Database) NewSchemaRepo() repo.Schema {
	return schemarp.New(d.RoleSuffix, d.hasher)
}

// SchemaInitializer wraps the `tx` transaction of the normal role.
func (d Database) SchemaInitializer(tx repo.Tx) (
	repo.SchemaInitializer, error,
) {
	return schemarp.NewInitializer(tx), nil
}

// RenewPasswords generates random passwords for `roles` and records
// them in the .pgpass.new file before calling `change` which should
// update them in the database (in a transaction). After the commit,
// the returned finalizer moves .pgpass.new over the .pgpass file.
//
// The `d.RoleSuffix` will be appended to the given role names in the
// file. The `change` function must add the same suffix itself.
func (d Database) RenewPasswords(
	ctx context.Context,
	change func(
		ctx context.Context, roles []repo.Role, passwords []string,
	) error,
	roles ...repo.Role,
) (finalizer func() error, err error) {
	passwords := make([]string, len(roles))
	b := make([]byte, 16) // 128 bits
	prfx := fmt.Sprintf("%s:%d:%s", d.Host, d.Port, d.Name)
	var lines strings.Builder
	for i, r := range roles {
		if _, err = rand.Read(b); err != nil {
			return nil, fmt.Errorf("rand.Read for i=%d: %w", i, err)
		}
		passwords[i] = base64.RawStdEncoding.EncodeToString(b)
		fmt.Fprintf(&lines, "%s:%s:%s\n", prfx, r+d.RoleSuffix, passwords[i])
	}
	orgPath := filepath.Join(d.PassDir, ".pgpass")
	newPath := filepath.Join(d.PassDir, ".pgpass.new")
	err = os.WriteFile(newPath, []byte(lines.String()), 0o600)
	if err != nil {
		return nil, fmt.Errorf("writing %q file: %w", newPath, err)
	}
	if err = change(ctx, roles, passwords); err != nil {
		return nil, fmt.Errorf("passwords change callback: %w", err)
	}
	return func() error {
		return os.Rename(newPath, orgPath)
	}, nil
}

// ValidateAndNormalize checks the database settings, fills the default
// port and auth method, and instantiates the passwords hasher.
func (d *Database) ValidateAndNormalize() error {
	switch {
	case d.Host == "":
		return errors.New("database host is required")
	case d.Name == "":
		return errors.New("database name is required")
	case d.Port == 0:
		d.Port = 5432
	case d.Port < 0 || d.Port > 65535:
		return errInvalidPort
	}
	settings.Default(&d.MaxConns, 20)
	settings.Default(&d.ConnMaxLifetime, settings.Duration(30*time.Minute))
	if err := settings.VerifyRange(
		&d.MaxConns, &minMaxConns, &maxMaxConns,
	); err != nil {
		return fmt.Errorf("max-conns=%d: %w", *err.Value, err)
	}
	if err := settings.VerifyRange(
		&d.ConnMaxLifetime, &minMaxLifetime, &maxMaxLifetime,
	); err != nil {
		return fmt.Errorf(
			"conn-max-lifetime=%v: %w", time.Duration(*err.Value), err,
		)
	}
	switch am := d.AuthMethod; am {
	case "scram-sha-1":
		d.hasher = scram.SHA1()
	case "":
		d.AuthMethod = "scram-sha-256"
		fallthrough
	case "scram-sha-256":
		d.hasher = scram.SHA256()
	default:
		return fmt.Errorf(
			"unsupported database authentication method: %q", am,
		)
	}
	return nil
}
