package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML document accepted by SeedUsers:
//
//	users:
//	  - username: alice
//	    password: pw123
//	  - username: bob
//	    password_hash: $2a$10$...
type SeedFile struct {
	Users []SeedUser `yaml:"users"`
}

// SeedUser is one entry of a SeedFile.
type SeedUser struct {
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
}

// SeedResult counts what SeedUsers did.
type SeedResult struct {
	Created int
	Skipped int
}

// ParseSeedFile decodes a seed document, rejecting unknown fields.
func ParseSeedFile(r io.Reader) (SeedFile, error) {
	var doc SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return doc, nil
		}
		return doc, fmt.Errorf("seed file: %w", err)
	}
	for i, u := range doc.Users {
		if strings.TrimSpace(u.Username) == "" {
			return doc, fmt.Errorf("seed file: entry %d has no username", i+1)
		}
		if (u.Password == "") == (u.PasswordHash == "") {
			return doc, fmt.Errorf("seed file: entry %q needs exactly one of password or password_hash", u.Username)
		}
	}
	return doc, nil
}

// SeedUsersFromFile reads path and seeds its users.
func SeedUsersFromFile(ctx context.Context, repo UserRepository, hasher PasswordHasher, path string) (SeedResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return SeedResult{}, err
	}
	defer f.Close()
	doc, err := ParseSeedFile(f)
	if err != nil {
		return SeedResult{}, err
	}
	return SeedUsers(ctx, repo, hasher, doc)
}

// SeedUsers creates the listed users. It is idempotent: existing usernames
// are skipped and keep their stored credential.
func SeedUsers(ctx context.Context, repo UserRepository, hasher PasswordHasher, doc SeedFile) (SeedResult, error) {
	var res SeedResult
	for _, u := range doc.Users {
		username := strings.TrimSpace(u.Username)
		digest := u.PasswordHash
		if digest == "" {
			var err error
			if digest, err = hasher.Hash(u.Password); err != nil {
				return res, fmt.Errorf("seed %q: %w", username, err)
			}
		} else if _, err := hasher.Verify("", digest); errors.Is(err, ErrMalformedDigest) {
			return res, fmt.Errorf("seed %q: %w", username, err)
		}

		if _, err := repo.CreateUser(ctx, username, digest); err != nil {
			if errors.Is(err, ErrUsernameTaken) {
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("seed %q: %w", username, err)
		}
		res.Created++
		log.Printf("seed user created username=%s", username)
	}
	return res, nil
}
