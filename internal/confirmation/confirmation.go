package confirmation

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

// Service prompts the operator before a destructive operation proceeds. It
// is used by the standalone prune command, where a retention sweep runs
// outside the scheduled backup pass and deletes artifacts interactively.
type Service interface {
	Confirm(summary string) (bool, error)
}

type service struct {
	in  *bufio.Reader
	out io.Writer
}

// NewService creates a confirmation service reading from stdin
func NewService() Service {
	return &service{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
	}
}

// NewServiceWithStreams creates a confirmation service over arbitrary
// streams. Used for tests.
func NewServiceWithStreams(in io.Reader, out io.Writer) Service {
	return &service{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Confirm shows the summary and asks for an explicit yes. Anything other
// than "y" or "yes" declines, and an interrupt declines as well.
func (s *service) Confirm(summary string) (bool, error) {
	fmt.Fprintln(s.out, summary)
	fmt.Fprint(s.out, "Proceed? [y/N]: ")

	interruptChan := make(chan os.Signal, 1)
	signal.Notify(interruptChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interruptChan)

	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)
	go func() {
		line, err := s.in.ReadString('\n')
		if err != nil && err != io.EOF {
			errChan <- err
			return
		}
		inputChan <- line
	}()

	select {
	case <-interruptChan:
		fmt.Fprintln(s.out, "\nAborted.")
		return false, nil
	case err := <-errChan:
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	case line := <-inputChan:
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes", nil
	}
}
