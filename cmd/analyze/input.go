package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// addressList is a repeatable, comma-separated flag value.
type addressList []string

func (l *addressList) String() string {
	return strings.Join(*l, ",")
}

func (l *addressList) Set(v string) error {
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			*l = append(*l, p)
		}
	}
	return nil
}

// prompt writes question and reads one trimmed line. ok is false at EOF.
func prompt(w io.Writer, in *bufio.Scanner, question string) (string, bool) {
	fmt.Fprint(w, question)
	if !in.Scan() {
		return "", false
	}
	return strings.TrimSpace(in.Text()), true
}

func isExit(s string) bool {
	s = strings.ToLower(s)
	return s == "exit" || s == "quit"
}

func isYes(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "y" || s == "yes"
}
