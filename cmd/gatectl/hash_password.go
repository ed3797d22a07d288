package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"cardgate/core"
)

func newHashPasswordCmd(cfg *core.Config) *cobra.Command {
	cost := cfg.BcryptCost
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Read a password and print its bcrypt digest for seed files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}
			digest, err := core.NewBcryptHasher(cost, nil).Hash(password)
			if err != nil {
				return err
			}
			cmd.Println(digest)
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", cost, "bcrypt work factor")
	return cmd
}

// readPassword prompts without echo on a terminal and reads one line otherwise.
func readPassword(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
