package console

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/MrSnakeDoc/rpcconsole/internal/degrade"
	"github.com/MrSnakeDoc/rpcconsole/internal/domain"
	"github.com/MrSnakeDoc/rpcconsole/internal/logger"
	"github.com/MrSnakeDoc/rpcconsole/internal/observability"
)

// ReferenceStore is the read side of the reference registry.
type ReferenceStore interface {
	List() []*domain.Reference
	Get(name string) (*domain.Reference, error)
}

// ServiceStore is the read side of the service registry.
type ServiceStore interface {
	List() []*domain.Service
	Get(name string) (*domain.Service, error)
}

// DegradeStore is the degrade registry as the console drives it.
type DegradeStore interface {
	List() []string
	Count() int
	Add(name string) int
	Remove(name string) int
	Pull(ctx context.Context) (int, error)
}

// CacheControl is the cache manager.
type CacheControl interface {
	Size() int
	Clear() int
}

// Outcomes recorded per command.
const (
	OutcomeOK         = "ok"
	OutcomeUsage      = "usage"
	OutcomeUnknown    = "unknown"
	OutcomeNotFound   = "not_found"
	OutcomeFetchError = "fetch_error"
	OutcomeError      = "error"
)

// Result is the response to one input line.
type Result struct {
	Body    string
	Close   bool // exit: close without writing anything
	Outcome string
}

// Deps are the registries the dispatcher reads and mutates. The dispatcher
// itself holds no state.
type Deps struct {
	AppName     string
	LocalIP     string
	References  ReferenceStore
	Services    ServiceStore
	Degrades    DegradeStore
	Cache       CacheControl
	PullTimeout time.Duration // bounds degrade -pull, default 10s
	Logger      logger.Logger
}

// Dispatcher turns input lines into registry operations.
type Dispatcher struct {
	d Deps
}

func NewDispatcher(d Deps) *Dispatcher {
	if d.PullTimeout <= 0 {
		d.PullTimeout = 10 * time.Second
	}
	if d.Logger == nil {
		d.Logger = logger.NewNop()
	}
	return &Dispatcher{d: d}
}

// Handle parses and executes one line. It never panics: anything
// unexpected becomes an "Error command" response and is logged.
func (d *Dispatcher) Handle(ctx context.Context, line string) (res Result) {
	cmd, err := Parse(line)
	if err != nil {
		res = d.parseFailure(err)
		observability.RecordCommand(commandLabel(err), res.Outcome)
		return res
	}
	if cmd.Kind == KindNone {
		return Result{Outcome: OutcomeOK}
	}

	defer func() {
		if r := recover(); r != nil {
			d.d.Logger.Error("console command panicked",
				logger.String("input", cmd.Input),
				logger.Any("panic", r),
				logger.String("stack", string(debug.Stack())))
			res = Result{Body: errorCommand(cmd.Input), Outcome: OutcomeError}
		}
		observability.RecordCommand(cmd.Kind.String(), res.Outcome)
	}()

	return d.Execute(ctx, cmd)
}

// Execute runs one validated command.
func (d *Dispatcher) Execute(ctx context.Context, cmd Command) Result {
	switch cmd.Kind {
	case KindNone:
		return Result{Outcome: OutcomeOK}
	case KindExit:
		return Result{Close: true, Outcome: OutcomeOK}
	case KindHelp:
		return ok(helpText)
	case KindClient:
		return ok("Application: " + d.d.AppName + NewLine + "IP: " + d.d.LocalIP + NewLine)
	case KindRefs:
		refs := d.d.References.List()
		names := make([]string, len(refs))
		for i, r := range refs {
			names[i] = r.Name
		}
		return ok(numbered(names))
	case KindRef:
		ref, err := d.d.References.Get(cmd.Arg)
		if err != nil {
			return d.lookupFailure(cmd, "Reference", err)
		}
		return ok(ref.String() + NewLine)
	case KindServices:
		svcs := d.d.Services.List()
		names := make([]string, len(svcs))
		for i, s := range svcs {
			names[i] = s.Name
		}
		return ok(numbered(names))
	case KindService:
		svc, err := d.d.Services.Get(cmd.Arg)
		if err != nil {
			return d.lookupFailure(cmd, "Service", err)
		}
		return ok(svc.String() + NewLine)
	case KindCache:
		if cmd.Flag == FlagClear {
			return ok(fmt.Sprintf("%d%s", d.d.Cache.Clear(), NewLine))
		}
		return ok(fmt.Sprintf("%d%s", d.d.Cache.Size(), NewLine))
	case KindDegrades:
		return ok(numbered(d.d.Degrades.List()))
	case KindDegrade:
		return d.degrade(ctx, cmd)
	default:
		return Result{Body: unknownCommand(cmd.Input), Outcome: OutcomeUnknown}
	}
}

func (d *Dispatcher) degrade(ctx context.Context, cmd Command) Result {
	switch cmd.Flag {
	case FlagAdd:
		n := d.d.Degrades.Add(cmd.Arg)
		d.d.Logger.Info("service degraded from console", logger.String("service", cmd.Arg), logger.Int("total", n))
		return ok(total(n))
	case FlagDel:
		n := d.d.Degrades.Remove(cmd.Arg)
		d.d.Logger.Info("service restored from console", logger.String("service", cmd.Arg), logger.Int("total", n))
		return ok(total(n))
	case FlagPull:
		pullCtx, cancel := context.WithTimeout(ctx, d.d.PullTimeout)
		defer cancel()

		n, err := d.d.Degrades.Pull(pullCtx)
		switch {
		case err == nil:
			return ok(total(n))
		case errors.Is(err, degrade.ErrNoSource):
			return Result{Body: "No degrade source configured." + NewLine, Outcome: OutcomeFetchError}
		case errors.Is(err, degrade.ErrFetch):
			d.d.Logger.Warn("console degrade pull failed", logger.Error(err))
			return Result{Body: fmt.Sprintf("Pull degrades failed, keeping %d entries.%s", n, NewLine), Outcome: OutcomeFetchError}
		default:
			d.d.Logger.Error("console degrade pull error", logger.String("input", cmd.Input), logger.Error(err))
			return Result{Body: errorCommand(cmd.Input), Outcome: OutcomeError}
		}
	default:
		return Result{Body: badArgument(cmd.Input, cmd.Kind), Outcome: OutcomeUsage}
	}
}

func (d *Dispatcher) lookupFailure(cmd Command, what string, err error) Result {
	if errors.Is(err, domain.ErrNotFound) {
		return Result{Body: what + " [" + cmd.Arg + "] does not exist" + NewLine, Outcome: OutcomeNotFound}
	}
	d.d.Logger.Error("console lookup failed", logger.String("input", cmd.Input), logger.Error(err))
	return Result{Body: errorCommand(cmd.Input), Outcome: OutcomeError}
}

func (d *Dispatcher) parseFailure(err error) Result {
	var pe *ParseError
	if !errors.As(err, &pe) {
		d.d.Logger.Error("console parse failed", logger.Error(err))
		return Result{Body: errorCommand(""), Outcome: OutcomeError}
	}

	switch {
	case errors.Is(err, ErrUnknownCommand):
		return Result{Body: unknownCommand(pe.Input), Outcome: OutcomeUnknown}
	case errors.Is(err, ErrBadArgument):
		return Result{Body: badArgument(pe.Input, pe.Kind), Outcome: OutcomeUsage}
	default:
		d.d.Logger.Debug("malformed console command", logger.String("input", pe.Input))
		return Result{Body: errorCommand(pe.Input), Outcome: OutcomeUsage}
	}
}

// commandLabel keeps metric label cardinality bounded for bad input.
func commandLabel(err error) string {
	var pe *ParseError
	if errors.As(err, &pe) && pe.Kind != KindNone {
		return pe.Kind.String()
	}
	return "invalid"
}

func ok(body string) Result { return Result{Body: body, Outcome: OutcomeOK} }
