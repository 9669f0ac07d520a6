package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter reads login details from the terminal. The password is read
// without echo when the input is a terminal.
type Prompter struct {
	in  *bufio.Reader
	fd  int
	out io.Writer
}

func NewPrompter() *Prompter {
	return newPrompter(os.Stdin, int(os.Stdin.Fd()), os.Stderr)
}

func newPrompter(in io.Reader, fd int, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), fd: fd, out: out}
}

func (p *Prompter) Username() (string, error) {
	return p.line("Username: ")
}

func (p *Prompter) Password() (string, error) {
	if p.fd < 0 || !term.IsTerminal(p.fd) {
		return p.line("Password: ")
	}
	fmt.Fprint(p.out, "Password: ")
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out) // newline after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

func (p *Prompter) TwoStepCode() (string, error) {
	return p.line("Enter the security code sent to your email: ")
}

func (p *Prompter) line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	text, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && text != "") {
		return "", err
	}
	return strings.TrimRight(text, "\r\n"), nil
}
