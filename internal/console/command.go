package console

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the closed set of console commands.
type Kind int

const (
	KindNone Kind = iota // empty input line
	KindHelp
	KindExit
	KindClient
	KindRefs
	KindRef
	KindServices
	KindService
	KindCache
	KindDegrades
	KindDegrade
)

var kindNames = map[string]Kind{
	"help":     KindHelp,
	"exit":     KindExit,
	"client":   KindClient,
	"refs":     KindRefs,
	"ref":      KindRef,
	"services": KindServices,
	"service":  KindService,
	"cache":    KindCache,
	"degrades": KindDegrades,
	"degrade":  KindDegrade,
}

func (k Kind) String() string {
	for name, kind := range kindNames {
		if kind == k {
			return name
		}
	}
	return "none"
}

// Flags accepted by cache and degrade.
const (
	FlagSize  = "-size"
	FlagClear = "-clear"
	FlagPull  = "-pull"
	FlagAdd   = "-add"
	FlagDel   = "-del"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadArgument    = errors.New("bad argument")
	ErrMalformed      = errors.New("malformed command")
)

// ParseError keeps the offending input so it can be echoed back.
type ParseError struct {
	Input string
	Kind  Kind
	Err   error
}

func (e *ParseError) Error() string { return fmt.Sprintf("%v: %q", e.Err, e.Input) }
func (e *ParseError) Unwrap() error { return e.Err }

// Command is one validated input line.
type Command struct {
	Kind  Kind
	Input string // trimmed line as typed
	Flag  string // cache and degrade only
	Arg   string // name operand of ref, service, degrade -add and degrade -del
}

// Parse tokenizes one line on whitespace and validates arity and flags.
// Command names and flags are case-sensitive.
func Parse(line string) (Command, error) {
	input := strings.TrimSpace(line)
	if input == "" {
		return Command{Kind: KindNone}, nil
	}

	tokens := strings.Fields(input)
	kind, ok := kindNames[tokens[0]]
	if !ok {
		return Command{}, &ParseError{Input: input, Err: ErrUnknownCommand}
	}

	cmd := Command{Kind: kind, Input: input}
	malformed := &ParseError{Input: input, Kind: kind, Err: ErrMalformed}
	args := tokens[1:]

	switch kind {
	case KindHelp, KindExit, KindClient, KindRefs, KindServices, KindDegrades:
		if len(args) != 0 {
			return Command{}, malformed
		}

	case KindRef, KindService:
		if len(args) != 1 {
			return Command{}, malformed
		}
		cmd.Arg = args[0]

	case KindCache:
		if len(args) == 0 {
			return Command{}, malformed
		}
		switch args[0] {
		case FlagSize, FlagClear:
		default:
			return Command{}, &ParseError{Input: input, Kind: kind, Err: ErrBadArgument}
		}
		if len(args) != 1 {
			return Command{}, malformed
		}
		cmd.Flag = args[0]

	case KindDegrade:
		if len(args) == 0 {
			return Command{}, malformed
		}
		want := 0
		switch args[0] {
		case FlagPull:
			want = 1
		case FlagAdd, FlagDel:
			want = 2
		default:
			return Command{}, &ParseError{Input: input, Kind: kind, Err: ErrBadArgument}
		}
		if len(args) != want {
			return Command{}, malformed
		}
		cmd.Flag = args[0]
		if want == 2 {
			cmd.Arg = args[1]
		}
	}

	return cmd, nil
}
