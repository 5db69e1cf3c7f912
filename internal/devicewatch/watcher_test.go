package devicewatch

import (
	"context"
	"testing"

	"github.com/pilebones/go-udev/netlink"

	"soundpills/internal/config"
)

func watchConfig(card string) *config.Config {
	cfg := config.Default()
	cfg.Audio.WatchDevice = true
	cfg.Audio.DeviceCard = card
	return &cfg
}

func TestNewDisabled(t *testing.T) {
	if w := New(nil, nil, nil); w != nil {
		t.Fatal("expected nil watcher for nil config")
	}
	cfg := config.Default()
	if w := New(&cfg, nil, nil); w != nil {
		t.Fatal("expected nil watcher when watch_device is off")
	}
}

func TestNilWatcherIsSafe(t *testing.T) {
	var w *Watcher
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start on nil watcher: %v", err)
	}
	w.Stop()
	if w.Running() {
		t.Fatal("nil watcher should not be running")
	}
}

func TestStopWithoutStart(t *testing.T) {
	w := New(watchConfig(""), nil, nil)
	w.Stop()
	w.Stop()
	if w.Running() {
		t.Fatal("expected watcher to be stopped")
	}
}

func TestMatcher(t *testing.T) {
	matcher := Matcher()
	remove := netlink.UEvent{Action: netlink.REMOVE, Env: map[string]string{"SUBSYSTEM": "sound"}}
	if !matcher.Evaluate(remove) {
		t.Fatal("expected sound removal to match")
	}
	add := netlink.UEvent{Action: netlink.ADD, Env: map[string]string{"SUBSYSTEM": "sound"}}
	if matcher.Evaluate(add) {
		t.Fatal("expected add to be ignored")
	}
	block := netlink.UEvent{Action: netlink.REMOVE, Env: map[string]string{"SUBSYSTEM": "block"}}
	if matcher.Evaluate(block) {
		t.Fatal("expected other subsystems to be ignored")
	}
}

func TestCardFromDevPath(t *testing.T) {
	cases := []struct {
		devpath string
		want    string
	}{
		{"/devices/pci0000:00/0000:00:14.0/usb1/1-2/1-2:1.0/sound/card2", "card2"},
		{"/devices/pci0000:00/0000:00:1f.3/sound/card0/pcmC0D0c", "card0"},
		{"/devices/virtual/sound/timer", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := CardFromDevPath(tc.devpath); got != tc.want {
			t.Errorf("CardFromDevPath(%q) = %q, want %q", tc.devpath, got, tc.want)
		}
	}
}

func TestNormalizeCard(t *testing.T) {
	for input, want := range map[string]string{
		"":       "",
		"1":      "card1",
		"Card3":  "card3",
		"hw:2,0": "card2",
	} {
		if got := normalizeCard(input); got != want {
			t.Errorf("normalizeCard(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestHandleEventFiltersByCard(t *testing.T) {
	var removed []Removal
	w := New(watchConfig("hw:1,0"), nil, func(r Removal) { removed = append(removed, r) })

	w.handleEvent(netlink.UEvent{Action: netlink.REMOVE, Env: map[string]string{
		"SUBSYSTEM": "sound", "DEVPATH": "/devices/x/sound/card0",
	}})
	w.handleEvent(netlink.UEvent{Action: netlink.REMOVE, Env: map[string]string{
		"SUBSYSTEM": "sound", "DEVPATH": "/devices/virtual/sound/seq",
	}})
	w.handleEvent(netlink.UEvent{Action: netlink.REMOVE, Env: map[string]string{
		"SUBSYSTEM": "sound", "DEVPATH": "/devices/x/sound/card1/controlC1", "DEVNAME": "snd/controlC1",
	}})

	if len(removed) != 1 {
		t.Fatalf("expected one removal, got %+v", removed)
	}
	if removed[0].Card != "card1" || removed[0].DevName != "snd/controlC1" {
		t.Fatalf("unexpected removal %+v", removed[0])
	}
}

func TestHandleEventAnyCard(t *testing.T) {
	calls := 0
	w := New(watchConfig(""), nil, func(Removal) { calls++ })
	w.handleEvent(netlink.UEvent{Action: netlink.REMOVE, Env: map[string]string{
		"SUBSYSTEM": "sound", "DEVPATH": "/devices/x/sound/card4",
	}})
	if calls != 1 {
		t.Fatalf("expected callback for any card, got %d calls", calls)
	}
}
