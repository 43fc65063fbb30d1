package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/actuator"
	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/buttons"
	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/config"
	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/display"
	"github.com/XTrauX/TFG-Caja-de-Control-de-Riego/internal/logging"
)

// Control loop timing.
const (
	TickInterval  = 50 * time.Millisecond
	HoldThreshold = 3 * time.Second  // PAUSE hold in STOP opens CONFIGURING
	StandbyDim    = 15 * time.Second // inactivity before the display blanks
	blinkInterval = 500 * time.Millisecond
	transientShow = 4 * time.Second // last-watered / preview overlays
)

// ErrRestartRequested is returned by Run when the operator asked for a
// device restart. The daemon exits and the supervisor brings it back up.
var ErrRestartRequested = errors.New("device restart requested")

// session is the runtime record of an active watering operation.
type session struct {
	btn      *buttons.Button
	zone     int
	idx      int
	duration config.Duration
	endsAt   time.Time

	paused     time.Duration // remaining when the session was paused
	autoPaused bool          // pause caused by divergence, eligible for auto-resume
	graceUsed  bool          // the per-session divergence grace was consumed

	multi    bool
	group    GroupView
	seqIndex int // 0-based position in group.Zones
}

// Deps wires a Controller to its collaborators. Engine, Actuator, Store and
// Config are mandatory; the rest default to no-op implementations.
type Deps struct {
	Engine   *buttons.Engine
	LEDs     buttons.LEDDriver
	Display  display.Display
	Sounder  display.Sounder
	Actuator *actuator.Client
	Encoder  Encoder
	Store    *config.Store
	Config   *config.Config
	Observer Observer

	// Strict makes endpoint-unreachable conditions fatal while online.
	Strict bool

	// Portal opens the provisioning/update service (CONFIGURING secondary
	// action). Nil disables the action.
	Portal func() error

	// NetworkReset clears network provisioning (boot-time combination).
	NetworkReset func() error

	Now func() time.Time
}

// Controller owns all mutable runtime state of the box and drives the
// cooperative control loop. It is single-threaded: every method except
// Snapshot must be called from the loop goroutine.
type Controller struct {
	engine   *buttons.Engine
	leds     buttons.LEDDriver
	disp     display.Display
	sounder  display.Sounder
	act      *actuator.Client
	enc      Encoder
	store    *config.Store
	cfg      *config.Config
	observer Observer
	strict   bool
	portal   func() error
	netReset func() error
	now      func() time.Time

	state State
	fault Fault
	sess  *session

	cfgSession        configSession
	awaitPauseRelease bool

	// pendingNext is the single-tick signal that advances a group
	// sequence: set in FINISHING, consumed at the top of STANDBY.
	pendingNext bool

	verifyDue  bool
	nextVerify time.Time

	blinkLEDs []int
	blinkOn   bool
	blinkNext time.Time

	lastActivity   time.Time
	dimmed         bool
	transientUntil time.Time
	pauseHeldSince time.Time
	stopEnteredAt  time.Time

	lastWatered map[int]time.Time
	restart     bool
}

// New builds a controller. It does not touch hardware; call Boot before
// the first Tick.
func New(deps Deps) *Controller {
	c := &Controller{
		engine:   deps.Engine,
		leds:     deps.LEDs,
		disp:     deps.Display,
		sounder:  deps.Sounder,
		act:      deps.Actuator,
		enc:      deps.Encoder,
		store:    deps.Store,
		cfg:      deps.Config,
		observer: deps.Observer,
		strict:   deps.Strict,
		portal:   deps.Portal,
		netReset: deps.NetworkReset,
		now:      deps.Now,

		state:       Standby,
		fault:       FaultNone,
		lastWatered: make(map[int]time.Time),
	}
	if c.leds == nil {
		c.leds = buttons.NopLEDs{}
	}
	if c.disp == nil {
		c.disp = display.Nop{}
	}
	if c.sounder == nil {
		c.sounder = display.NopSounder{}
	}
	if c.enc == nil {
		c.enc = NopEncoder{}
	}
	if c.observer == nil {
		c.observer = NopObserver{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	// PAUSE hold detection is scoped to STOP by setState; the boot state
	// is STANDBY, set without a transition.
	if p := c.engine.Lookup(buttons.Pause); p != nil {
		p.HoldDisabled = true
	}
	return c
}

// State returns the current top-level state.
func (c *Controller) State() State { return c.state }

// Fault returns the current fault phase (FaultNone outside ERROR).
func (c *Controller) Fault() Fault { return c.fault }

// Boot absorbs stale physical input, services the boot-time button
// combinations and probes the endpoint. A failed probe is fatal only under
// strict verification; otherwise the box degrades and carries on.
func (c *Controller) Boot(ctx context.Context) {
	now := c.now()
	c.lastActivity = now
	c.nextVerify = now.Add(actuator.VerifyInterval)

	c.engine.Flush()

	if c.engine.Down(buttons.EncoderSW) {
		switch {
		case c.engine.Down(buttons.Group1):
			c.bootRestoreDefault()
		case c.engine.Down(buttons.Group3) && c.netReset != nil:
			c.disp.ShowText(display.CodePortal)
			if err := c.netReset(); err != nil {
				logging.Error("Network reset failed", zap.Error(err))
			}
		}
	}

	if err := c.act.Ping(ctx); err != nil {
		if c.strict && !c.act.Offline() {
			c.fatalFault(ctx, FaultNetwork, fmt.Sprintf("boot probe: %v", err))
			return
		}
		logging.Warn("Endpoint unreachable at boot, degrading", zap.Error(err))
		c.observer.FaultRaised(FaultNetwork, "boot probe failed, degraded")
	}

	c.updateModeLEDs()
	c.showDuration()
}

func (c *Controller) bootRestoreDefault() {
	if err := c.store.RestoreDefault(); err != nil {
		logging.Error("Default restore failed", zap.Error(err))
		return
	}
	fresh, err := c.store.Load()
	if err != nil {
		logging.Error("Reload after default restore failed", zap.Error(err))
		return
	}
	*c.cfg = *fresh
	c.disp.ShowText(display.CodeDefaultLoaded)
	c.sounder.BeepOK(1)
}

// Run drives the control loop until the context is cancelled or a restart
// is requested.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.Tick(ctx)
			if c.restart {
				return ErrRestartRequested
			}
		}
	}
}

// RestartRequested reports whether the operator asked for a restart.
func (c *Controller) RestartRequested() bool { return c.restart }

/// Tick runs one pass of the loop: poll input, dispatch by state, then
// periodic maintenance.
func (c *Controller) Tick(ctx context.Context) {
	now := c.now()

	// Level-set maintenance flag; a missed tick just defers to the next.
	if !now.Before(c.nextVerify) {
		c.verifyDue = true
	}

	delta := c.enc.Delta()
	ev := c.engine.Poll()

	// A press while dimmed only wakes the display.
	if ev != nil && ev.Pressed && c.dimmed {
		c.wake()
		ev = nil
	}
	if ev != nil && ev.Pressed {
		c.lastActivity = now
	}

	switch c.state {
	case Standby:
		c.handleStandby(ctx, ev, delta, now)
	case Watering:
		c.handleWatering(ctx, ev, now)
	case Pause:
		c.handlePause(ctx, ev, now)
	case Finishing:
		c.handleFinishing(ctx, now)
	case Stop:
		c.handleStop(ev, now)
	case Configuring:
		c.handleConfiguring(ctx, ev, delta)
	case Error:
		c.handleError(ctx, ev)
	}

	c.serviceVerification(ctx, now)
	c.advanceBlink(now)
}

// --- STANDBY ---

func (c *Controller) handleStandby(ctx context.Context, ev *buttons.Event, delta int, now time.Time) {
	if c.pendingNext {
		c.pendingNext = false
		c.startGroupZone(ctx, c.sess.seqIndex+1, now)
		return
	}

	if !c.transientUntil.IsZero() && now.After(c.transientUntil) {
		c.transientUntil = time.Time{}
		c.clearZoneLEDs()
		c.showDuration()
	}

	if delta != 0 && !c.encoderEngaged() {
		c.cfg.Duration = adjustDuration(c.cfg.Duration, delta)
		c.showDuration()
		c.lastActivity = now
	}

	if ev == nil {
		if !c.dimmed && now.Sub(c.lastActivity) >= StandbyDim {
			c.dim()
		}
		return
	}
	if !ev.Pressed {
		return
	}

	switch ev.Button.Kind {
	case buttons.KindZone:
		if c.encoderEngaged() {
			c.previewFactor(ctx, ev.Button, now)
			return
		}
		c.startSingle(ctx, ev.Button, now)

	case buttons.KindAction:
		switch ev.Button.ID {
		case buttons.Multi:
			if c.encoderEngaged() {
				c.previewGroup(ctx, now)
				return
			}
			c.startGroup(ctx, now)
		case buttons.Pause:
			if c.encoderEngaged() {
				c.toggleOffline(ctx)
				return
			}
			c.showLastWatered(now)
		case buttons.Stop:
			c.stopAll(ctx)
			c.enterStop(now)
		}
	}
}

func (c *Controller) startSingle(ctx context.Context, b *buttons.Button, now time.Time) {
	zone := c.cfg.ZoneByNumber(b.Zone)
	if zone == nil {
		c.fatalFault(ctx, FaultConfig, fmt.Sprintf("zone %d missing from configuration", b.Zone))
		return
	}
	c.sess = &session{
		btn:      b,
		zone:     b.Zone,
		idx:      zone.Idx,
		duration: c.cfg.Duration,
	}
	c.activateZone(ctx, now)
}

func (c *Controller) startGroup(ctx context.Context, now time.Time) {
	ordinal, view, err := ResolveGroup(c.cfg, c.engine.SelectorGroup())
	if err != nil {
		c.fatalFault(ctx, FaultConfig, err.Error())
		return
	}
	logging.Info("Group sequence starting",
		zap.Int("ordinal", ordinal),
		zap.String("group", view.Name),
		zap.Int("size", view.Size()),
	)
	c.sess = &session{multi: true, group: view}
	c.leds.SetLED(buttons.GroupLED(view.Position), true)
	c.startGroupZone(ctx, 0, now)
}

func (c *Controller) startGroupZone(ctx context.Context, i int, now time.Time) {
	s := c.sess
	s.seqIndex = i
	zoneNum := s.group.Zones[i]
	zone := c.cfg.ZoneByNumber(zoneNum)
	if zone == nil {
		c.fatalFault(ctx, FaultConfig, fmt.Sprintf("group %q references missing zone %d", s.group.Name, zoneNum))
		return
	}

	factor, name, err := c.act.DurationFactor(ctx, zone.Idx)
	if err != nil {
		if errors.Is(err, actuator.ErrFactorUnavailable) && c.strict && !c.act.Offline() {
			c.fatalFault(ctx, FaultEndpoint, err.Error())
			return
		}
		logging.Warn("Factor lookup degraded", zap.Int("zone", zoneNum), zap.Error(err))
		c.observer.FaultRaised(FaultEndpoint, "factor lookup degraded")
	}
	if name != "" {
		zone.Name = name
	}

	s.btn = c.engine.Lookup(buttons.ZoneIDs[zoneNum-1])
	s.zone = zoneNum
	s.idx = zone.Idx
	s.duration = scaleDuration(c.cfg.Duration, factor)
	c.activateZone(ctx, now)
}

// activateZone starts watering the session's current zone. Zero-duration
// and unbound zones short-circuit straight to FINISHING.
func (c *Controller) activateZone(ctx context.Context, now time.Time) {
	s := c.sess
	s.graceUsed = false
	s.autoPaused = false
	c.lastWatered[s.zone] = now

	seq, total := c.sequencePosition()
	c.observer.SessionStarted(s.zone, seq, total)

	if s.duration.IsZero() || s.idx == 0 {
		if s.duration.IsZero() {
			c.disp.ShowText(display.CodeZeroTime)
		}
		c.setState(Finishing)
		return
	}

	if err := c.act.Switch(ctx, s.idx, true); err != nil {
		c.fatalFault(ctx, FaultCommandOn, err.Error())
		return
	}
	s.endsAt = now.Add(time.Duration(s.duration.TotalSeconds()) * time.Second)
	c.leds.SetLED(s.btn.LED, true)
	c.sounder.Beep(1)
	c.nextVerify = now.Add(actuator.VerifyInterval)
	c.verifyDue = false
	c.setState(Watering)
}

func (c *Controller) previewFactor(ctx context.Context, b *buttons.Button, now time.Time) {
	zone := c.cfg.ZoneByNumber(b.Zone)
	if zone == nil {
		return
	}
	factor, _, err := c.act.DurationFactor(ctx, zone.Idx)
	if err != nil {
		if errors.Is(err, actuator.ErrFactorUnavailable) && c.strict && !c.act.Offline() {
			c.fatalFault(ctx, FaultEndpoint, err.Error())
			return
		}
		logging.Warn("Factor preview degraded", zap.Int("zone", b.Zone), zap.Error(err))
	}
	c.disp.ShowValue(factor)
	c.sounder.Beep(1)
	c.transientUntil = now.Add(transientShow)
}

func (c *Controller) previewGroup(ctx context.Context, now time.Time) {
	_, view, err := ResolveGroup(c.cfg, c.engine.SelectorGroup())
	if err != nil {
		c.fatalFault(ctx, FaultConfig, err.Error())
		return
	}
	for _, z := range view.Zones {
		c.leds.SetLED(buttons.ZoneLED(z), true)
	}
	c.disp.ShowValue(view.Size())
	c.sounder.Beep(1)
	c.transientUntil = now.Add(transientShow)
}

func (c *Controller) showLastWatered(now time.Time) {
	today := 0
	for zone, when := range c.lastWatered {
		if sameDay(when, now) {
			c.leds.SetLED(buttons.ZoneLED(zone), true)
			today++
		}
	}
	c.disp.ShowTime(now.Hour(), now.Minute())
	c.sounder.Beep(1)
	c.transientUntil = now.Add(transientShow)
	logging.Debug("Last-watered overlay", zap.Int("zones_today", today))
}

func (c *Controller) toggleOffline(ctx context.Context) {
	going := !c.act.Offline()
	c.act.SetOffline(going)
	c.updateModeLEDs()
	c.sounder.BeepOK(1)
	logging.Info("Offline mode toggled", zap.Bool("offline", going))
	if !going && c.strict {
		c.reconcileOnline(ctx)
	}
}

// reconcileOnline runs when leaving offline mode under strict verification:
// any actuator found on against local intent is switched off.
func (c *Controller) reconcileOnline(ctx context.Context) {
	for _, z := range c.cfg.Zones {
		if z.Idx == 0 {
			continue
		}
		ok, err := c.act.Verify(ctx, z.Idx, false)
		if err != nil {
			logging.Warn("Online reconcile query failed", zap.Int("zone", z.Zone), zap.Error(err))
			continue
		}
		if !ok {
			if err := c.act.Switch(ctx, z.Idx, false); err != nil {
				logging.Warn("Online reconcile off failed", zap.Int("zone", z.Zone), zap.Error(err))
			}
		}
	}
}

// --- WATERING ---

func (c *Controller) handleWatering(ctx context.Context, ev *buttons.Event, now time.Time) {
	s := c.sess
	remaining := s.endsAt.Sub(now)
	if remaining <= 0 {
		c.setState(Finishing)
		return
	}
	total := int(remaining.Round(time.Second).Seconds())
	c.disp.ShowTime(total/60, total%60)

	if ev == nil || !ev.Pressed {
		return
	}
	switch ev.Button.ID {
	case buttons.Pause:
		if c.encoderEngaged() {
			// End the current zone early.
			c.setState(Finishing)
			return
		}
		c.pauseSession(ctx, remaining, false)
	case buttons.Stop:
		c.stopAll(ctx)
		c.enterStop(now)
	}
}

func (c *Controller) pauseSession(ctx context.Context, remaining time.Duration, auto bool) {
	s := c.sess
	if err := c.act.Switch(ctx, s.idx, false); err != nil {
		c.fatalFault(ctx, FaultCommandOff, err.Error())
		return
	}
	s.paused = remaining
	s.autoPaused = auto
	c.setBlink(s.btn.LED)
	c.setState(Pause)
}

func (c *Controller) resumeSession(ctx context.Context, now time.Time) {
	s := c.sess
	if c.act.Sim().PauseResumeError {
		c.fatalFault(ctx, FaultCommandOn, "simulated resume failure")
		return
	}
	if err := c.act.Switch(ctx, s.idx, true); err != nil {
		c.fatalFault(ctx, FaultCommandOn, err.Error())
		return
	}
	s.endsAt = now.Add(s.paused)
	s.autoPaused = false
	c.setBlink()
	c.leds.SetLED(s.btn.LED, true)
	c.setState(Watering)
}

// --- PAUSE ---

func (c *Controller) handlePause(ctx context.Context, ev *buttons.Event, now time.Time) {
	if ev == nil || !ev.Pressed {
		return
	}
	switch ev.Button.ID {
	case buttons.Pause:
		c.resumeSession(ctx, now)
	case buttons.Stop:
		c.stopAll(ctx)
		c.enterStop(now)
	}
}

// --- FINISHING ---

func (c *Controller) handleFinishing(ctx context.Context, now time.Time) {
	s := c.sess
	if s == nil {
		c.setState(Standby)
		return
	}
	if err := c.act.Switch(ctx, s.idx, false); err != nil {
		c.fatalFault(ctx, FaultCommandOff, err.Error())
		return
	}
	c.leds.SetLED(s.btn.LED, false)

	if s.multi && s.seqIndex+1 < s.group.Size() {
		c.observer.SessionFinished(s.zone, false)
		c.sounder.Beep(1)
		c.pendingNext = true
		c.setState(Standby)
		return
	}

	c.observer.SessionFinished(s.zone, true)
	if s.multi {
		c.sounder.BeepEnd(1)
		c.leds.SetLED(buttons.GroupLED(s.group.Position), false)
	} else {
		c.sounder.Beep(2)
	}
	c.sess = nil
	c.showDuration()
	c.setState(Standby)
}

// --- STOP ---

func (c *Controller) enterStop(now time.Time) {
	c.sess = nil
	c.pendingNext = false
	c.setBlink()
	c.clearZoneLEDs()
	c.stopEnteredAt = now
	c.pauseHeldSince = time.Time{}
	c.disp.ShowText(display.CodeStop)
	c.setState(Stop)
}

func (c *Controller) handleStop(ev *buttons.Event, now time.Time) {
	if !c.dimmed && now.Sub(c.stopEnteredAt) >= StandbyDim {
		c.dim()
	}
	if ev == nil {
		return
	}
	switch ev.Button.ID {
	case buttons.Stop:
		if !ev.Pressed {
			c.wake()
			c.showDuration()
			c.setState(Standby)
		}
	case buttons.Pause:
		if !ev.Pressed {
			c.pauseHeldSince = time.Time{}
			return
		}
		if c.pauseHeldSince.IsZero() {
			c.pauseHeldSince = now
			return
		}
		if now.Sub(c.pauseHeldSince) >= HoldThreshold {
			c.pauseHeldSince = time.Time{}
			if c.encoderEngaged() {
				logging.Info("Restart requested from panel")
				c.restart = true
				return
			}
			c.enterConfiguring()
		}
	}
}

// --- CONFIGURING ---

func (c *Controller) enterConfiguring() {
	c.wake()
	c.cfgSession.reset()
	c.awaitPauseRelease = true
	c.disp.ShowText(display.CodeConfig)
	c.setBlink(buttons.LEDBlue)
	c.sounder.BeepOK(1)
	c.setState(Configuring)
}

func (c *Controller) handleConfiguring(ctx context.Context, ev *buttons.Event, delta int) {
	if delta != 0 {
		c.cfgSession.adjust(delta)
		c.showEditValue()
	}
	if ev == nil {
		return
	}

	switch ev.Button.ID {
	case buttons.Pause:
		if !ev.Pressed {
			c.awaitPauseRelease = false
			return
		}
		if c.awaitPauseRelease {
			return
		}
		if c.encoderEngaged() {
			c.openPortal()
			return
		}
		c.cfgSession.openDuration(c.cfg)
		c.showEditValue()
		c.sounder.Beep(1)

	case buttons.Multi:
		if !ev.Pressed {
			return
		}
		if c.encoderEngaged() {
			c.cloneDefault()
			return
		}
		if _, open := c.cfgSession.target.(*editGroup); open {
			if c.cfgSession.commitGroup(c.cfg) {
				c.sounder.BeepOK(1)
			} else {
				c.sounder.LongBeep(1)
			}
			c.disp.ShowText(display.CodeConfig)
			return
		}
		position := selectorPosition(c.engine.SelectorGroup())
		c.cfgSession.openGroup(c.cfg, position)
		c.disp.ShowText(display.CodePush)
		c.sounder.Beep(1)

	case buttons.Stop:
		if !ev.Pressed {
			c.exitConfiguring()
		}

	default:
		if ev.Button.Kind == buttons.KindZone && ev.Pressed {
			if g, open := c.cfgSession.target.(*editGroup); open {
				if c.cfgSession.addZone(ev.Button.Zone) {
					c.disp.ShowValue(len(g.working))
					c.sounder.Beep(1)
				} else {
					c.sounder.LongBeep(1)
				}
				return
			}
			c.cfgSession.openBinding(c.cfg, ev.Button.Zone)
			c.showEditValue()
			c.sounder.Beep(1)
		}
	}
}

func (c *Controller) showEditValue() {
	switch t := c.cfgSession.target.(type) {
	case *editDuration:
		c.disp.ShowTime(t.value.Minutes, t.value.Seconds)
	case *editBinding:
		c.disp.ShowValue(t.value)
	}
}

func (c *Controller) openPortal() {
	if c.portal == nil {
		c.sounder.LongBeep(1)
		return
	}
	c.disp.ShowText(display.CodePortal)
	if err := c.portal(); err != nil {
		logging.Error("Portal action failed", zap.Error(err))
		c.sounder.LongBeep(2)
	} else {
		c.sounder.BeepOK(1)
	}
	c.disp.ShowText(display.CodeConfig)
}

func (c *Controller) cloneDefault() {
	if err := c.store.CloneAsDefault(); err != nil {
		logging.Error("Default clone failed", zap.Error(err))
		c.sounder.LongBeep(2)
		return
	}
	c.disp.ShowText(display.CodeDefaultSaved)
	c.sounder.BeepOK(1)
}

func (c *Controller) exitConfiguring() {
	c.cfgSession.closeTarget(c.cfg)
	c.showDuration()
	if c.cfgSession.dirty {
		if err := c.store.Save(c.cfg); err != nil {
			// Never drop an edit silently: keep it in memory, report loudly.
			logging.Error("Config save failed, edits held in memory", zap.Error(err))
			c.observer.FaultRaised(FaultConfig, fmt.Sprintf("save failed: %v", err))
			c.sounder.LongBeep(2)
		} else {
			c.disp.ShowText(display.CodeSaved)
			c.sounder.BeepOK(1)
		}
	}
	c.cfgSession.reset()
	c.setBlink()
	c.updateModeLEDs()
	c.setState(Standby)
}

// --- ERROR ---

func (c *Controller) handleError(ctx context.Context, ev *buttons.Event) {
	if ev == nil || !ev.Pressed {
		return
	}
	switch ev.Button.ID {
	case buttons.Pause:
		// Acknowledge: clear the fault and fall back to offline mode.
		c.act.SetOffline(true)
		c.act.Sim().Clear()
		c.setBlink()
		c.leds.SetLED(buttons.LEDRed, false)
		c.updateModeLEDs()
		c.sounder.BeepOK(1)
		c.showDuration()
		c.setState(Standby)
	case buttons.Stop:
		c.stopAll(ctx)
		if c.engine.Down(buttons.Pause) {
			c.enterStop(c.now())
			return
		}
		logging.Info("Restart requested from ERROR")
		c.restart = true
	}
}

// --- faults ---

// fatalFault tears the session down and enters ERROR. Actuator teardown
// here is best-effort and never re-classified, so a fault handler cannot
// recurse into itself.
func (c *Controller) fatalFault(ctx context.Context, f Fault, detail string) {
	if c.state == Error {
		return
	}
	if s := c.sess; s != nil && s.idx != 0 {
		if err := c.act.Switch(ctx, s.idx, false); err != nil {
			logging.Warn("Teardown off failed", zap.Int("idx", s.idx), zap.Error(err))
		}
	}
	c.sess = nil
	c.pendingNext = false
	c.clearZoneLEDs()

	c.fault = f
	logging.LogFault(f.Code(), detail)
	c.observer.FaultRaised(f, detail)
	c.disp.ShowText(f.Code())
	c.sounder.LongBeep(3)
	c.setBlink(buttons.LEDRed)
	c.setState(Error)
}

// --- maintenance ---

func (c *Controller) serviceVerification(ctx context.Context, now time.Time) {
	if !c.verifyDue {
		return
	}
	if c.state != Watering && c.state != Pause {
		c.verifyDue = false
		c.nextVerify = now.Add(actuator.VerifyInterval)
		return
	}
	c.verifyDue = false
	c.nextVerify = now.Add(actuator.VerifyInterval)

	s := c.sess
	expectOn := c.state == Watering
	ok, err := c.act.Verify(ctx, s.idx, expectOn)
	if err != nil {
		if c.strict && !c.act.Offline() {
			f := FaultEndpoint
			if errors.Is(err, actuator.ErrProtocol) {
				f = FaultProtocol
			}
			c.fatalFault(ctx, f, err.Error())
			return
		}
		logging.Warn("Verification query degraded", zap.Error(err))
		c.observer.FaultRaised(FaultEndpoint, "verification query degraded")
		return
	}

	if ok {
		if c.state == Watering {
			s.graceUsed = false
		} else if s.autoPaused {
			// External interference settled; resume the countdown.
			c.resumeSession(ctx, now)
		}
		return
	}

	c.observer.VerificationMismatch(s.zone)
	if s.graceUsed {
		c.fatalFault(ctx, FaultDivergence, fmt.Sprintf("zone %d diverged after grace", s.zone))
		return
	}
	s.graceUsed = true
	if c.state == Watering {
		remaining := s.endsAt.Sub(now)
		c.pauseSession(ctx, remaining, true)
		return
	}
	// Paused with the valve externally re-opened: insist on off.
	if err := c.act.Switch(ctx, s.idx, false); err != nil {
		c.fatalFault(ctx, FaultCommandOff, err.Error())
	}
}

// --- helpers ---

func (c *Controller) setState(to State) {
	if c.state == to {
		return
	}
	from := c.state
	c.state = to
	if to != Error {
		c.fault = FaultNone
	}
	// PAUSE hold detection is only meaningful while stopped.
	if p := c.engine.Lookup(buttons.Pause); p != nil {
		p.HoldDisabled = to != Stop
	}
	logging.LogStateChange(from.String(), to.String())
	c.observer.StateChanged(from, to, c.fault)
}

func (c *Controller) sequencePosition() (seq, total int) {
	s := c.sess
	if s == nil {
		return 1, 1
	}
	if !s.multi {
		return 1, 1
	}
	return s.seqIndex + 1, s.group.Size()
}

func (c *Controller) stopAll(ctx context.Context) {
	for _, z := range c.cfg.Zones {
		if z.Idx == 0 {
			continue
		}
		if err := c.act.Switch(ctx, z.Idx, false); err != nil {
			logging.Warn("Stop-all off failed", zap.Int("zone", z.Zone), zap.Error(err))
		}
	}
	c.clearZoneLEDs()
}

func (c *Controller) clearZoneLEDs() {
	for z := 1; z <= buttons.NumZones; z++ {
		c.leds.SetLED(buttons.ZoneLED(z), false)
	}
	for p := 1; p <= buttons.NumGroups; p++ {
		c.leds.SetLED(buttons.GroupLED(p), false)
	}
}

func (c *Controller) encoderEngaged() bool {
	return c.engine.Sample(buttons.EncoderSW)
}

func (c *Controller) showDuration() {
	c.disp.ShowTime(c.cfg.Duration.Minutes, c.cfg.Duration.Seconds)
}

func (c *Controller) updateModeLEDs() {
	offline := c.act.Offline()
	c.leds.SetLED(buttons.LEDGreen, !offline)
	c.leds.SetLED(buttons.LEDBlue, offline)
}

func (c *Controller) dim() {
	c.dimmed = true
	c.disp.Clear()
	c.leds.SetDim(true)
}

func (c *Controller) wake() {
	if !c.dimmed {
		return
	}
	c.dimmed = false
	c.leds.SetDim(false)
	c.disp.Refresh()
	c.lastActivity = c.now()
}

// setBlink replaces the blink targets; no arguments stops blinking and
// leaves the old targets off.
func (c *Controller) setBlink(leds ...int) {
	for _, led := range c.blinkLEDs {
		c.leds.SetLED(led, false)
	}
	c.blinkLEDs = leds
	c.blinkOn = true
	c.blinkNext = c.now().Add(blinkInterval)
	for _, led := range leds {
		c.leds.SetLED(led, true)
	}
}

func (c *Controller) advanceBlink(now time.Time) {
	if len(c.blinkLEDs) == 0 || now.Before(c.blinkNext) {
		return
	}
	c.blinkOn = !c.blinkOn
	c.blinkNext = now.Add(blinkInterval)
	for _, led := range c.blinkLEDs {
		c.leds.SetLED(led, c.blinkOn)
	}
}

// Snapshot returns a copy of the observable state for the status API.
// It reads single-writer state without synchronization; the daemon calls it
// from the serving goroutine accepting slightly stale values.
func (c *Controller) Snapshot() Snapshot {
	now := c.now()
	snap := Snapshot{
		State:    c.state.String(),
		Offline:  c.act.Offline(),
		Strict:   c.strict,
		Duration: fmt.Sprintf("%02d:%02d", c.cfg.Duration.Minutes, c.cfg.Duration.Seconds),
	}
	if c.state == Error {
		snap.Fault = c.fault.String()
		snap.FaultCode = c.fault.Code()
	}
	if s := c.sess; s != nil {
		snap.Zone = s.zone
		if z := c.cfg.ZoneByNumber(s.zone); z != nil {
			snap.ZoneName = z.Name
		}
		switch c.state {
		case Watering:
			snap.Remaining = formatClock(s.endsAt.Sub(now))
		case Pause:
			snap.Remaining = formatClock(s.paused)
		}
		if s.multi {
			snap.SeqIndex = s.seqIndex + 1
			snap.SeqTotal = s.group.Size()
			snap.GroupName = s.group.Name
		}
	}
	if len(c.lastWatered) > 0 {
		snap.LastWatered = make(map[int]string, len(c.lastWatered))
		for zone, when := range c.lastWatered {
			snap.LastWatered[zone] = when.Format(time.RFC3339)
		}
	}
	return snap
}

func sameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
