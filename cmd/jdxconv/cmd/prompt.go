package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const (
	firstPrompt = "Press ENTER to convert every molecule in the database. Otherwise, enter one or more molecule names separated by ';'"
	nextPrompt  = "Enter more molecule names separated by ';', or END to finish"
)

// promptMoleculeNames reads molecule names interactively. An empty first line selects
// every name in all. Otherwise lines are read until END (any case) or end of input.
func promptMoleculeNames(in io.Reader, out io.Writer, all []string) ([]string, error) {
	scanner := bufio.NewScanner(in)

	fmt.Fprintln(out, firstPrompt)
	if !scanner.Scan() {
		return nil, scanner.Err()
	}
	line := strings.TrimSpace(scanner.Text())
	if line == "" {
		if len(all) == 0 {
			return nil, fmt.Errorf("the molecule database is empty; enter names instead")
		}
		return all, nil
	}

	var names []string
	for {
		if strings.EqualFold(line, "end") {
			break
		}
		names = append(names, splitNames(line)...)

		fmt.Fprintln(out, nextPrompt)
		if !scanner.Scan() {
			break
		}
		line = strings.TrimSpace(scanner.Text())
	}
	return names, scanner.Err()
}

// splitNames splits a ';'-separated list, dropping blanks.
func splitNames(s string) []string {
	var names []string
	for _, part := range strings.Split(s, ";") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}
