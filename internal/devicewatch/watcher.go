package devicewatch

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"soundpills/internal/config"
	"soundpills/internal/logging"
)

// Removal describes a sound device that left the system.
type Removal struct {
	Card    string
	DevPath string
	DevName string
}

// Watcher delivers sound card removal events to a callback.
type Watcher struct {
	logger   *slog.Logger
	card     string
	onRemove func(Removal)

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	done    chan struct{}
	running bool
}

// New returns a watcher for the configured capture card, or nil when device
// watching is disabled.
func New(cfg *config.Config, logger *slog.Logger, onRemove func(Removal)) *Watcher {
	if cfg == nil || !cfg.Audio.WatchDevice {
		return nil
	}
	return &Watcher{
		logger:   logging.NewComponentLogger(logger, "devicewatch"),
		card:     normalizeCard(cfg.Audio.DeviceCard),
		onRemove: onRemove,
	}
}

// Start connects to the udev netlink socket and begins watching.
func (w *Watcher) Start(ctx context.Context) error {
	if w == nil {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		logging.WarnWithContext(w.logger, "failed to connect to netlink socket; device removal will not be detected", "netlink_connect_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "netlink sockets are Linux only; set audio.watch_device = false elsewhere"),
			logging.String(logging.FieldImpact, "capture keeps running until ffmpeg exits on its own"),
		)
		return nil
	}

	w.conn = conn
	w.quit = make(chan struct{})
	w.done = make(chan struct{})
	w.running = true

	go w.loop(ctx, conn, w.quit, w.done)

	w.logger.Info("device watcher started",
		logging.String(logging.FieldEventType, "devicewatch_started"),
		logging.String("card", w.card),
	)
	return nil
}

// Stop shuts the watcher down and waits for its loop to exit.
func (w *Watcher) Stop() {
	if w == nil {
		return
	}

	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.quit)
	done := w.done
	conn := w.conn
	w.quit = nil
	w.conn = nil
	w.running = false
	w.mu.Unlock()

	<-done
	_ = conn.Close()

	w.logger.Info("device watcher stopped",
		logging.String(logging.FieldEventType, "devicewatch_stopped"),
	)
}

// Running reports whether the watcher is active.
func (w *Watcher) Running() bool {
	if w == nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) loop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, Matcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			w.handleEvent(uevent)
		case err := <-errs:
			logging.WarnWithContext(w.logger, "netlink monitor error", "netlink_monitor_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "device removal may go unnoticed"),
			)
		}
	}
}

// Matcher accepts removal events from the sound subsystem.
func Matcher() netlink.Matcher {
	action := "remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "sound",
		},
	})
	return rules
}

func (w *Watcher) handleEvent(uevent netlink.UEvent) {
	removal := Removal{
		Card:    CardFromDevPath(uevent.Env["DEVPATH"]),
		DevPath: uevent.Env["DEVPATH"],
		DevName: uevent.Env["DEVNAME"],
	}
	if removal.Card == "" {
		w.logger.Debug("ignoring sound event without card", logging.String("kobj", uevent.KObj))
		return
	}
	if w.card != "" && removal.Card != w.card {
		w.logger.Debug("ignoring removal of other card",
			logging.String("card", removal.Card),
			logging.String("watched_card", w.card),
		)
		return
	}

	w.logger.Info("sound card removed",
		logging.String(logging.FieldEventType, "sound_card_removed"),
		logging.String("card", removal.Card),
		logging.String("devpath", removal.DevPath),
	)
	if w.onRemove != nil {
		w.onRemove(removal)
	}
}

// CardFromDevPath extracts the "cardN" segment from a sysfs DEVPATH such as
// /devices/pci0000:00/.../sound/card1/pcmC1D0c.
func CardFromDevPath(devpath string) string {
	for segment := range strings.SplitSeq(devpath, "/") {
		if strings.HasPrefix(segment, "card") && len(segment) > len("card") {
			return segment
		}
	}
	return ""
}

// normalizeCard accepts "1", "card1", or "hw:1,0" and returns "card1".
func normalizeCard(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ""
	}
	value = strings.TrimPrefix(value, "hw:")
	if idx := strings.IndexByte(value, ','); idx >= 0 {
		value = value[:idx]
	}
	if strings.HasPrefix(value, "card") {
		return value
	}
	return "card" + value
}
