// Package controller wires the settings controls to the preference store.
//
// The stored record is loaded once to initialize the controls. After that,
// every control change is written in the background, and records saved by
// other writers (portal, CLI, restore) are reflected back into the controls.
// All control state is touched only from Drain, which the frontend calls on
// its render thread.
package controller

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"flow-settings/pkg/controls"
	"flow-settings/pkg/prefs"
	"flow-settings/pkg/theme"
)

// Store is the read side of the preference store
type Store interface {
	Load(ctx context.Context) (prefs.Record, error)
	// Watch returns a channel already holding the current record
	Watch(ctx context.Context) <-chan prefs.Record
}

// Writer is the fire-and-forget write side
type Writer interface {
	Submit(key string, value any) error
	OnResult(fn func(key string, err error))
}

// Status is the outcome of the most recent save
type Status struct {
	Text  string
	Error bool
}

// Row is one line of the settings screen. Exactly one of Switch and Slider
// is set.
type Row struct {
	Key    string
	Label  string
	Switch *controls.Switch
	Slider *controls.Slider
}

// Controller owns the four settings controls
type Controller struct {
	Volume    *controls.Slider
	Bluetooth *controls.Switch
	Vibration *controls.Switch
	DarkMode  *controls.Switch

	store  Store
	writer Writer
	log    *zap.Logger

	mu    sync.Mutex
	queue []func()

	// Render-thread state
	firstTime bool
	applying  bool
	status    Status
	submitted map[string][]any // values written per key, not yet echoed back
}

// maxSubmitted bounds the per-key history of unconfirmed writes
const maxSubmitted = 64

// New creates the controls and binds their listeners
func New(store Store, writer Writer, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}

	c := &Controller{
		Volume:    controls.NewSlider(prefs.Label(prefs.KeyVolume), prefs.MinVolume, prefs.MaxVolume, 1),
		Bluetooth: controls.NewSwitch(prefs.Label(prefs.KeyBluetooth)),
		Vibration: controls.NewSwitch(prefs.Label(prefs.KeyVibration)),
		DarkMode:  controls.NewSwitch(prefs.Label(prefs.KeyDarkMode)),
		store:     store,
		writer:    writer,
		log:       log.Named("controller"),
		firstTime: true,
		submitted: make(map[string][]any),
	}

	c.initUI()
	writer.OnResult(func(key string, err error) {
		c.RunOnUI(func() { c.setSaveStatus(key, err) })
	})
	return c
}

func (c *Controller) initUI() {
	c.Volume.OnChange(func(value float64, _ bool) {
		c.save(prefs.KeyVolume, int(value))
	})

	c.Bluetooth.OnCheckedChange(func(checked bool) {
		c.save(prefs.KeyBluetooth, checked)
	})

	c.Vibration.OnCheckedChange(func(checked bool) {
		c.save(prefs.KeyVibration, checked)
	})

	c.DarkMode.OnCheckedChange(func(checked bool) {
		if checked {
			enableDarkMode()
		} else {
			disableDarkMode()
		}
		c.save(prefs.KeyDarkMode, checked)
	})
}

// save submits a background write unless an externally saved record is
// being applied to the controls
func (c *Controller) save(key string, value any) {
	if c.applying {
		return
	}
	if err := c.writer.Submit(key, value); err != nil {
		c.log.Warn("Failed to submit preference", zap.String("key", key), zap.Error(err))
		c.setSaveStatus(key, err)
		return
	}
	hist := append(c.submitted[key], value)
	if len(hist) > maxSubmitted {
		hist = hist[len(hist)-maxSubmitted:]
	}
	c.submitted[key] = hist
}

func enableDarkMode() {
	theme.SetDefaultNightMode(theme.ModeNightYes)
	theme.ApplyDayNight()
}

func disableDarkMode() {
	theme.SetDefaultNightMode(theme.ModeNightNo)
	theme.ApplyDayNight()
}

// Init loads the stored record in the background and applies it to the
// controls on the render thread. Only the first loaded record is applied.
func (c *Controller) Init(ctx context.Context) {
	go func() {
		rec, err := c.store.Load(ctx)
		if err != nil {
			c.log.Warn("Failed to load preferences, using defaults", zap.Error(err))
		}
		c.RunOnUI(func() { c.applyFirst(rec) })
	}()
}

// Follow reflects records saved by any writer into the controls until ctx
// is done. Call it before the first frame.
func (c *Controller) Follow(ctx context.Context) {
	updates := c.store.Watch(ctx)

	// Watch hands over the current record right away. Queue it now so it
	// runs before any input of the first frame can submit a write.
	if rec, ok := <-updates; ok {
		c.queueUpdate(rec)
	}

	go func() {
		for rec := range updates {
			c.queueUpdate(rec)
		}
	}()
}

func (c *Controller) queueUpdate(rec prefs.Record) {
	c.RunOnUI(func() {
		if c.firstTime {
			c.applyFirst(rec)
			return
		}
		c.applyExternal(rec)
	})
}

func (c *Controller) applyFirst(rec prefs.Record) {
	if !c.firstTime {
		return
	}
	c.apply(rec)
	c.firstTime = false
}

// apply sets every control from rec without writing it back. Side effects
// such as the theme switch still run.
func (c *Controller) apply(rec prefs.Record) {
	c.applying = true
	defer func() { c.applying = false }()

	c.Vibration.SetChecked(rec.Vibration)
	c.DarkMode.SetChecked(rec.DarkMode)
	c.Bluetooth.SetChecked(rec.Bluetooth)
	c.Volume.SetValue(float64(rec.Volume))
}

// applyExternal applies a watched record, skipping keys that only echo this
// controller's own writes. Watched records arrive in store order, so once the
// latest submitted value comes back the older ones can no longer show up.
func (c *Controller) applyExternal(rec prefs.Record) {
	cur := c.Record()
	for _, key := range prefs.Keys() {
		value, _ := rec.Get(key)
		hist := c.submitted[key]
		if i := slices.Index(hist, value); i >= 0 {
			if i == len(hist)-1 {
				c.submitted[key] = hist[i:]
			}
			continue
		}
		delete(c.submitted, key)
		cur, _ = cur.With(key, value)
	}
	c.apply(cur)
}

// Ready reports whether the stored record has been applied
func (c *Controller) Ready() bool {
	return !c.firstTime
}

// RunOnUI queues fn to run on the render thread during the next Drain.
// It is safe to call from any goroutine.
func (c *Controller) RunOnUI(fn func()) {
	c.mu.Lock()
	c.queue = append(c.queue, fn)
	c.mu.Unlock()
}

// Drain runs the queued work. Call it once per frame from the render thread.
func (c *Controller) Drain() int {
	c.mu.Lock()
	pending := c.queue
	c.queue = nil
	c.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
	return len(pending)
}

// Record returns the values currently shown by the controls
func (c *Controller) Record() prefs.Record {
	return prefs.Record{
		Volume:    int(c.Volume.Value()),
		Bluetooth: c.Bluetooth.Checked(),
		Vibration: c.Vibration.Checked(),
		DarkMode:  c.DarkMode.Checked(),
	}
}

// Rows returns the screen rows in display order
func (c *Controller) Rows() []Row {
	return []Row{
		{Key: prefs.KeyVolume, Label: c.Volume.Label, Slider: c.Volume},
		{Key: prefs.KeyBluetooth, Label: c.Bluetooth.Label, Switch: c.Bluetooth},
		{Key: prefs.KeyVibration, Label: c.Vibration.Label, Switch: c.Vibration},
		{Key: prefs.KeyDarkMode, Label: c.DarkMode.Label, Switch: c.DarkMode},
	}
}

// Activate performs the primary action of a row: toggling a switch
func (c *Controller) Activate(row int) {
	rows := c.Rows()
	if row < 0 || row >= len(rows) {
		return
	}
	if sw := rows[row].Switch; sw != nil {
		sw.Toggle()
	}
}

// Adjust moves a slider by steps, or turns a switch on (steps > 0) or off
// (steps < 0)
func (c *Controller) Adjust(row, steps int) {
	rows := c.Rows()
	if row < 0 || row >= len(rows) || steps == 0 {
		return
	}
	if s := rows[row].Slider; s != nil {
		s.Increment(steps)
		return
	}
	rows[row].Switch.SetChecked(steps > 0)
}

// Status returns the outcome of the most recent save
func (c *Controller) Status() Status {
	return c.status
}

// ClearStatus removes the status message
func (c *Controller) ClearStatus() {
	c.status = Status{}
}

func (c *Controller) setSaveStatus(key string, err error) {
	if err != nil {
		c.status = Status{Text: fmt.Sprintf("Error: Failed to save %s", prefs.Label(key)), Error: true}
		return
	}
	c.status = Status{Text: fmt.Sprintf("✓ %s saved", prefs.Label(key))}
}
