package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"notesync/internal/client/domain/entities"
	"notesync/internal/client/domain/result"
	"notesync/internal/client/ports/api"
)

// Команды CLI.
const (
	CmdRegister = "register"
	CmdLogin    = "login"
	CmdLogout   = "logout"
	CmdList     = "list"
	CmdGet      = "get"
	CmdCreate   = "create"
	CmdUpdate   = "update"
	CmdDelete   = "delete"
)

const usage = `usage: notesync [-metrics] [-ephemeral] <command> [flags]

commands:
  register -email E -password P [-username U]
  login    -email E -password P
  logout
  list     [-page N] [-size N]
  get      ID
  create   -title T [-content C]
  update   ID -title T [-content C]
  delete   ID
`

// Ошибки разбора аргументов.
var (
	ErrUsage         = errors.New("invalid usage")
	ErrUnknownCmd    = errors.New("unknown command")
	ErrMissingNoteID = errors.New("note id argument is required")
)

// statusOK печатается для операций без значения.
type statusOK struct {
	Status string `json:"status"`
}

// run выполняет одну команду над фасадом и печатает результат в out в виде JSON.
func run(ctx context.Context, notes api.NotesAPI, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", ErrUsage)
	}

	name, rest := args[0], args[1:]
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	switch name {
	case CmdRegister, CmdLogin:
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password")
		username := fs.String("username", "", "display name")
		if err := parse(fs, rest); err != nil {
			return err
		}
		creds := entities.Credentials{Username: *username, Email: *email, Password: *password}
		if name == CmdRegister {
			return printUnit(out, notes.Register(ctx, creds))
		}
		return printUnit(out, notes.Login(ctx, creds))

	case CmdLogout:
		if err := parse(fs, rest); err != nil {
			return err
		}
		return printUnit(out, notes.Logout(ctx))

	case CmdList:
		page := fs.Int("page", 1, "page number starting at 1")
		size := fs.Int("size", 20, "page size")
		if err := parse(fs, rest); err != nil {
			return err
		}
		return printResult(out, notes.ListNotes(ctx, *page, *size))

	case CmdGet, CmdDelete:
		if err := parse(fs, rest); err != nil {
			return err
		}
		id, err := noteID(fs)
		if err != nil {
			return err
		}
		if name == CmdGet {
			return printResult(out, notes.GetNote(ctx, id))
		}
		return printUnit(out, notes.DeleteNote(ctx, id))

	case CmdCreate:
		title := fs.String("title", "", "note title")
		content := fs.String("content", "", "note content")
		if err := parse(fs, rest); err != nil {
			return err
		}
		return printResult(out, notes.CreateNote(ctx, entities.NewDraft(*title, *content)))

	case CmdUpdate:
		if len(rest) == 0 {
			return ErrMissingNoteID
		}
		id := rest[0]
		title := fs.String("title", "", "note title")
		content := fs.String("content", "", "note content")
		if err := parse(fs, rest[1:]); err != nil {
			return err
		}
		return printResult(out, notes.UpdateNote(ctx, id, *title, *content, time.Now().UTC()))

	default:
		return fmt.Errorf("%w: %q", ErrUnknownCmd, name)
	}
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUsage, fs.Name(), err)
	}
	return nil
}

func noteID(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", ErrMissingNoteID
	}
	return fs.Arg(0), nil
}

func printResult[T any](out io.Writer, r result.Result[T]) error {
	value, err := r.Get()
	if err != nil {
		return err
	}
	return writeJSON(out, value)
}

func printUnit(out io.Writer, r result.Result[result.Unit]) error {
	if err := r.Err(); err != nil {
		return err
	}
	return writeJSON(out, statusOK{Status: "ok"})
}

func writeJSON(out io.Writer, value any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
