// Package console provides an interactive SQL shell on the lorepo database.
package console

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/lorepo/lorepo/internal/database"
	"github.com/pkg/errors"
	"github.com/sanity-io/litter"
)

const (
	prompt     = "lorepo> "
	contPrompt = "   ...> "

	// ModeJSON renders rows as indented JSON.
	ModeJSON = "json"
	// ModeDump renders rows as Go values, column types included.
	ModeDump = "dump"
)

// A Console evaluates SQL statements against the database.
type Console struct {
	db   database.Client
	out  io.Writer
	mode string
}

// New returns a console writing its results to out.
func New(db database.Client, out io.Writer) *Console {
	return &Console{
		db:   db,
		out:  out,
		mode: ModeJSON,
	}
}

// Run reads statements until EOF or `.quit`.
// A statement ends with a semicolon and may span several lines.
func (c *Console) Run(ctx context.Context, history string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     history,
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          c.out,
	})
	if err != nil {
		return errors.Wrap(err, "could not init readline")
	}
	defer rl.Close()

	red := color.New(color.FgRed)

	var statement strings.Builder
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			statement.Reset()
			rl.SetPrompt(prompt)
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "could not read line")
		}

		line = strings.TrimSpace(line)
		if statement.Len() == 0 && line == ".quit" {
			return nil
		}

		statement.WriteString(line)
		statement.WriteByte(' ')
		if !complete(line) {
			rl.SetPrompt(contPrompt)
			continue
		}

		if err = c.Eval(ctx, statement.String()); err != nil {
			red.Fprintf(c.out, "Error: %s\n", err)
		}
		statement.Reset()
		rl.SetPrompt(prompt)
	}
}

// Eval runs one statement and prints its result.
// Rows are printed as JSON, other statements print the number of affected rows.
func (c *Console) Eval(ctx context.Context, statement string) error {
	statement = strings.TrimSpace(statement)

	switch statement {
	case "", ";":
		return nil
	case ".tables":
		statement = "SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name;"
	}

	if mode, ok := strings.CutPrefix(statement, ".mode"); ok {
		return c.setMode(strings.TrimSpace(mode))
	}
	if strings.HasPrefix(statement, ".") {
		return errors.Errorf("unknown command: %s", statement)
	}

	if !returnsRows(statement) {
		n, err := c.db.Exec(ctx, statement)
		if err != nil {
			return err
		}

		fmt.Fprintln(c.out, "Affected rows:", n)
		return nil
	}

	rows, err := c.db.Query(ctx, statement)
	if err != nil {
		return err
	}

	if c.mode == ModeDump {
		_, err = fmt.Fprintln(c.out, litter.Sdump(rows))
		return err
	}
	return jsondump(c.out, rows)
}

func (c *Console) setMode(mode string) error {
	switch mode {
	case "":
		fmt.Fprintln(c.out, "Mode:", c.mode)
	case ModeJSON, ModeDump:
		c.mode = mode
	default:
		return errors.Errorf("unknown mode %q (expected %s or %s)", mode, ModeJSON, ModeDump)
	}
	return nil
}

func complete(line string) bool {
	return strings.HasSuffix(line, ";") || strings.HasPrefix(line, ".")
}

func returnsRows(statement string) bool {
	keyword, _, _ := strings.Cut(statement, " ")
	switch strings.ToUpper(strings.TrimSuffix(keyword, ";")) {
	case "SELECT", "PRAGMA", "WITH", "EXPLAIN", "VALUES":
		return true
	}
	return false
}

func jsondump(w io.Writer, v any) error {
	d, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "could not render rows")
	}

	_, err = fmt.Fprintln(w, string(d))
	return err
}
