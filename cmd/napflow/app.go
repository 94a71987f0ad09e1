package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hammamikhairi/napflow/internal/clock"
	"github.com/hammamikhairi/napflow/internal/conversation"
	"github.com/hammamikhairi/napflow/internal/display"
	"github.com/hammamikhairi/napflow/internal/domain"
	"github.com/hammamikhairi/napflow/internal/engine"
	"github.com/hammamikhairi/napflow/internal/logger"
)

// printer is the slice of the terminal UI the app writes to.
type printer interface {
	PrintChat(text string)
	PrintSuccess(text string)
	PrintHint(text string)
	PrintUrgent(text string)
	PrintBlock(text string)
}

type cliApp struct {
	engine *engine.Engine
	parser domain.IntentParser
	clock  clock.Clock
	log    *logger.Logger
	out    printer

	mu        sync.Mutex
	lastPhase domain.Phase
	askName   bool // next unrecognised line is taken as the display name
}

// runInteractive wires the engine to the terminal UI and blocks until the
// user quits.
func runInteractive(ctx context.Context, flags *globalFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := setup(flags)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The notifier prints through the UI, which needs the engine as its
	// status source, so it is bound late.
	var ui *display.UI
	notifier := conversation.NewCLINotifier(e.log, func(format string, a ...interface{}) {
		ui.Printf(format, a...)
	}, true)

	rep, err := e.newAlarm(notifier)
	if err != nil {
		return err
	}

	app := &cliApp{
		parser: conversation.NewKeywordParser(e.log),
		clock:  clock.System{},
		log:    e.log,
	}
	eng, err := e.newEngine(rep, engine.WithObserver(app.onState))
	if err != nil {
		return err
	}
	defer eng.Close()

	ui = display.NewUI(eng)
	app.engine = eng
	app.mu.Lock()
	app.out = ui
	app.mu.Unlock()

	fmt.Println(display.RenderBanner())
	fmt.Println(display.BannerStyle.Render("  Type 'help' for commands, 'quit' to exit."))
	fmt.Println()

	go func() {
		ui.WaitReady()
		app.run(ctx, ui.InputChan())
		ui.Quit()
	}()

	// Bubble Tea owns the terminal and blocks until quit.
	if err := ui.Run(); err != nil {
		e.log.Error("display: %v", err)
		return err
	}
	cancel()
	return nil
}

// run greets the user and handles input lines until ctx ends, the input
// channel closes or the user quits.
func (a *cliApp) run(ctx context.Context, input <-chan string) {
	a.greet(ctx)

	for {
		var line string
		var ok bool

		select {
		case <-ctx.Done():
			return
		case line, ok = <-input:
			if !ok {
				return
			}
		}

		if !a.handleLine(ctx, line) {
			return
		}
	}
}

func (a *cliApp) greet(ctx context.Context) {
	p, err := a.engine.Load(ctx)
	if err != nil {
		a.out.PrintUrgent(fmt.Sprintf("Could not load your profile: %v", err))
		a.out.PrintHint("Naps are still logged; XP and your name are saved once the store is reachable again.")
		return
	}

	if !p.Onboarded() {
		a.mu.Lock()
		a.askName = true
		a.mu.Unlock()
		a.out.PrintChat("Welcome to napflow! What should I call you?")
		return
	}

	prog := a.engine.Progress()
	a.out.PrintChat(fmt.Sprintf("Welcome back, %s. You are a %s with %d XP.", p.Name, prog.Current.Name, p.XP))
	cfg := a.engine.Config()
	a.out.PrintHint(fmt.Sprintf("Selected: %s (%s). Type 'start' when you're ready.", cfg.Label, display.FormatDuration(cfg.Duration)))
}

// handleLine parses and dispatches one input line. It returns false when
// the user asked to quit.
func (a *cliApp) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}

	intent, err := a.parser.Parse(ctx, line)
	if err != nil {
		a.log.Error("parsing input: %v", err)
		return true
	}

	a.mu.Lock()
	askName := a.askName
	a.mu.Unlock()
	if askName && intent.Type == domain.IntentUnknown {
		intent = &domain.Intent{Type: domain.IntentName, Payload: line}
	}

	a.log.Debug("intent: %s (payload=%q)", intent.Type, intent.Payload)
	return a.handleIntent(ctx, intent)
}

func (a *cliApp) handleIntent(ctx context.Context, intent *domain.Intent) bool {
	switch intent.Type {
	case domain.IntentStart:
		a.start(intent.Payload)
	case domain.IntentSelect:
		a.selectNap(intent.Payload)
	case domain.IntentCancel:
		a.cancel()
	case domain.IntentAcknowledge:
		a.acknowledge(ctx)
	case domain.IntentPresets:
		a.out.PrintBlock(display.RenderPresets(a.engine.Config()))
	case domain.IntentStatus:
		a.status()
	case domain.IntentStats:
		a.stats(ctx)
	case domain.IntentName:
		a.rename(ctx, intent.Payload)
	case domain.IntentHelp:
		a.showHelp()
	case domain.IntentQuit:
		if a.engine.Cancel() {
			a.out.PrintHint("Nap cancelled.")
		}
		a.out.PrintChat("Sleep well. Bye!")
		return false
	default:
		a.out.PrintHint(fmt.Sprintf("I didn't catch %q. Type 'help' for commands.", intent.Payload))
	}
	return true
}

func (a *cliApp) start(choice string) {
	cfg := a.engine.Config()
	if choice != "" {
		var err error
		if cfg, err = domain.ParseChoice(choice); err != nil {
			a.out.PrintUrgent(choiceError(choice, err))
			return
		}
	}

	if err := a.engine.Start(cfg); err != nil {
		switch {
		case errors.Is(err, domain.ErrSessionActive):
			if a.engine.Snapshot().Phase == domain.PhaseRunning {
				a.out.PrintChat("A nap is already running. Type 'cancel' to stop it.")
			} else {
				a.out.PrintChat("Your alarm is still ringing. Type 'ok' first.")
			}
		default:
			a.out.PrintUrgent(fmt.Sprintf("Could not start: %v", err))
		}
		return
	}

	a.out.PrintSuccess(fmt.Sprintf("%s started: %s. Close your eyes.", cfg.Label, display.FormatDuration(cfg.Duration)))
}

func (a *cliApp) selectNap(choice string) {
	cfg, err := domain.ParseChoice(choice)
	if err != nil {
		a.out.PrintUrgent(choiceError(choice, err))
		return
	}

	wasRunning := a.engine.Snapshot().Phase == domain.PhaseRunning
	if err := a.engine.ChangeConfig(cfg); err != nil {
		if errors.Is(err, domain.ErrAlarmPending) {
			a.out.PrintChat("Your alarm is still ringing. Type 'ok' first.")
			return
		}
		a.out.PrintUrgent(fmt.Sprintf("Could not select: %v", err))
		return
	}

	if wasRunning {
		a.out.PrintHint("The running nap was discarded.")
	}
	a.out.PrintChat(fmt.Sprintf("Selected %s (%s). Type 'start' when you're ready.", cfg.Label, display.FormatDuration(cfg.Duration)))
}

func (a *cliApp) cancel() {
	phase := a.engine.Snapshot().Phase
	if !a.engine.Cancel() {
		a.out.PrintHint("Nothing to cancel.")
		return
	}
	if phase == domain.PhaseAlarming {
		a.out.PrintHint("Alarm silenced. No XP for this one.")
		return
	}
	a.out.PrintHint("Nap cancelled. No XP for this one.")
}

func (a *cliApp) acknowledge(ctx context.Context) {
	c, err := a.engine.Acknowledge(ctx)
	if c == nil {
		if err != nil {
			a.out.PrintUrgent(fmt.Sprintf("Could not finish the nap: %v", err))
			return
		}
		a.out.PrintHint("No alarm is ringing.")
		return
	}

	a.out.PrintSuccess(fmt.Sprintf("Good morning! +%d XP for %d minutes. Streak: %d day(s).",
		c.Award.XP, c.Award.Minutes, c.Award.Streak))
	if c.LevelUp {
		a.out.PrintSuccess(fmt.Sprintf("Level up! You are now a %s.", c.After.Current.Name))
	} else if !c.After.MaxLevel() {
		a.out.PrintHint(fmt.Sprintf("%d XP to %s.", c.After.XPToNext, c.After.Next.Name))
	}
	if err != nil {
		a.out.PrintUrgent(fmt.Sprintf("Your progress could not be saved: %v", err))
	}
}

func (a *cliApp) status() {
	s := a.engine.Snapshot()
	switch s.Phase {
	case domain.PhaseRunning:
		a.out.PrintChat(fmt.Sprintf("%s: %s left of %s.", s.Label, display.FormatDuration(s.Remaining), display.FormatDuration(s.Total)))
	case domain.PhaseAlarming, domain.PhaseComplete:
		a.out.PrintChat("Your alarm is ringing. Type 'ok' when you're awake.")
	default:
		a.out.PrintChat(fmt.Sprintf("No nap running. Selected: %s (%s).", s.Label, display.FormatDuration(s.Total)))
	}
}

func (a *cliApp) stats(ctx context.Context) {
	today := domain.DateOf(a.clock.Now())
	week, err := a.engine.Weekly(ctx, today)
	if err != nil {
		a.out.PrintUrgent(fmt.Sprintf("Could not load this week's naps: %v", err))
	}
	a.out.PrintBlock(display.RenderStats(a.engine.Profile(), a.engine.Progress(), week, today))
}

func (a *cliApp) rename(ctx context.Context, name string) {
	if err := a.engine.Rename(ctx, name); err != nil {
		if errors.Is(err, domain.ErrInvalidName) {
			a.out.PrintUrgent(fmt.Sprintf("Names must be 1-%d characters.", engine.MaxNameLength))
			return
		}
		a.out.PrintUrgent(fmt.Sprintf("Could not save your name: %v", err))
		return
	}

	a.mu.Lock()
	first := a.askName
	a.askName = false
	a.mu.Unlock()

	p := a.engine.Profile()
	if first {
		a.out.PrintChat(fmt.Sprintf("Nice to meet you, %s.", p.Name))
		a.out.PrintBlock(display.RenderPresets(a.engine.Config()))
		a.out.PrintHint("Pick a preset or a number of minutes, then type 'start'.")
		return
	}
	a.out.PrintChat(fmt.Sprintf("I'll call you %s from now on.", p.Name))
}

// onState is the engine observer. It runs on the countdown goroutine and
// only reacts to the nap running out.
func (a *cliApp) onState(s domain.TimerState) {
	a.mu.Lock()
	prev := a.lastPhase
	a.lastPhase = s.Phase
	out := a.out
	a.mu.Unlock()

	if out == nil || prev != domain.PhaseRunning || s.Phase != domain.PhaseAlarming {
		return
	}
	out.PrintUrgent(fmt.Sprintf("%s is over. Type 'ok' when you're awake.", s.Label))
}

func (a *cliApp) showHelp() {
	a.out.PrintBlock(helpText)
}

func choiceError(choice string, err error) string {
	if errors.Is(err, domain.ErrInvalidConfig) {
		return fmt.Sprintf("%q is not a preset or a length between %s and %s.",
			choice, display.FormatDuration(domain.MinNapDuration), display.FormatDuration(domain.MaxNapDuration))
	}
	return err.Error()
}

const helpText = `  Commands:
    start [preset|minutes]   start a nap (e.g. "start", "nap 25", "start recharge")
    focus | refresh | recharge
    <minutes>                select a nap length without starting
    presets                  list the presets
    cancel                   stop the running nap (no XP)
    ok                       I'm awake: silence the alarm and collect XP
    status                   time left
    stats                    level, XP, streak and this week's naps
    name <your name>         change your display name
    quit                     exit`
