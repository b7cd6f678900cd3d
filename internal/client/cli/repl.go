package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for REPL output.
var printlnFn = fmt.Println

// execIface is the command surface runREPL dispatches to.
type execIface interface {
	Help(ctx context.Context, args []string) error
	Token(ctx context.Context, args []string) error
	Reviewer(ctx context.Context, args []string) error
	Cases(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	New(ctx context.Context, args []string) error
	Status(ctx context.Context, args []string) error
	Answer(ctx context.Context, args []string) error
	Checklist(ctx context.Context, args []string) error
	Photo(ctx context.Context, args []string) error
	Video(ctx context.Context, args []string) error
	RemoveMedia(ctx context.Context, args []string) error
	Media(ctx context.Context, args []string) error
	RetryMedia(ctx context.Context, args []string) error
	Sync(ctx context.Context, args []string) error
	Pull(ctx context.Context, args []string) error
	Queue(ctx context.Context, args []string) error
	Dead(ctx context.Context, args []string) error
	Retry(ctx context.Context, args []string) error
}

// errUsage makes the REPL print the command's usage line.
var errUsage = errors.New("usage")

var usage = map[string]string{
	"show":        "show <case>",
	"status":      "status <case> <assigned|in_progress|in_review|completed|cancelled>",
	"answer":      "answer <case> <question> <value> [note...]",
	"photo":       "photo <case> <question|-> <file>",
	"video":       "video <case> <question|-> <file>",
	"rm-media":    "rm-media <media>",
	"media":       "media <case>",
	"retry":       "retry <seq>",
	"retry-media": "retry-media <media>",
	"reviewer":    "reviewer [id|-]",
}

const helpText = `Commands:
  cases [status]             list local cases
  show <case>                case details, answers and media
  new                        create a case
  status <case> <status>     change case status
  checklist                  list inspection questions
  answer <case> <q> <value>  answer a checklist question
  photo|video <case> <q> <file>
                             attach media (use - for no question)
  media <case>               list media of a case
  rm-media <media>           delete media
  retry-media <media>        retry failed media
  sync                       sync now
  pull                       fetch cases for the reviewer
  reviewer [id|-]            show or set the reviewer id
  queue                      pending operations and media
  dead                       dead-lettered operations
  retry <seq>                requeue a dead operation
  token                      set the gateway access token
  exit | quit                leave`

// runREPL reads commands from in until EOF, "exit" or ctx is done.
// Command errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in *bufio.Reader) {
	handlers := map[string]func(context.Context, []string) error{
		"help":        a.Help,
		"token":       a.Token,
		"reviewer":    a.Reviewer,
		"cases":       a.Cases,
		"show":        a.Show,
		"new":         a.New,
		"status":      a.Status,
		"answer":      a.Answer,
		"checklist":   a.Checklist,
		"photo":       a.Photo,
		"video":       a.Video,
		"rm-media":    a.RemoveMedia,
		"media":       a.Media,
		"retry-media": a.RetryMedia,
		"sync":        a.Sync,
		"pull":        a.Pull,
		"queue":       a.Queue,
		"dead":        a.Dead,
		"retry":       a.Retry,
	}

	for ctx.Err() == nil {
		printlnFn(fmt.Sprintf("fs %s> ", statusFn()))
		line, err := in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}
		h, ok := handlers[cmd]
		if !ok {
			printlnFn("Unknown command:", cmd)
			continue
		}
		if err := h(ctx, args); err != nil {
			if errors.Is(err, errUsage) {
				printlnFn("Usage:", usage[cmd])
			} else {
				printlnFn("Error:", err)
			}
		}
	}
}
