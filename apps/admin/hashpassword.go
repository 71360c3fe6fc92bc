package main

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// hashPassword prints the bcrypt hash to set as the admin password hash.
func (cli *commandLine) hashPassword(pwd []byte) error {
	hash, err := bcrypt.GenerateFromPassword(pwd, bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}
	fmt.Fprintln(cli.out, string(hash))
	return nil
}
