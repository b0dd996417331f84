package sensors

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/Dicklesworthstone/axon_dashboard/internal/model"
)

// ErrNoBattery is returned when the host exposes no battery.
var ErrNoBattery = errors.New("no battery present")

const (
	upowerName    = "org.freedesktop.UPower"
	displayDevice = dbus.ObjectPath("/org/freedesktop/UPower/devices/DisplayDevice")
	deviceIface   = "org.freedesktop.UPower.Device"
	propsIface    = "org.freedesktop.DBus.Properties"
)

// UPower Device.State values.
const (
	stateUnknown uint32 = iota
	stateCharging
	stateDischarging
	stateEmpty
	stateFullyCharged
	statePendingCharge
	statePendingDischarge
)

// BatteryMonitor follows the UPower display device. It does not poll:
// a new status is published only when UPower emits PropertiesChanged.
type BatteryMonitor struct {
	conn    *dbus.Conn
	signals chan *dbus.Signal
	updates chan model.BatteryStatus
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	log     *slog.Logger

	mu     sync.RWMutex
	props  map[string]dbus.Variant
	latest model.BatteryStatus
}

// NewBatteryMonitor connects to the system bus and subscribes to battery
// changes. It fails with ErrNoBattery on machines without one.
func NewBatteryMonitor(logger *slog.Logger) (*BatteryMonitor, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}

	props := make(map[string]dbus.Variant)
	obj := conn.Object(upowerName, displayDevice)
	if err := obj.Call(propsIface+".GetAll", 0, deviceIface).Store(&props); err != nil {
		conn.Close()
		return nil, fmt.Errorf("read upower display device: %w", err)
	}
	status, present := statusFromProps(props)
	if !present {
		conn.Close()
		return nil, ErrNoBattery
	}

	if err := conn.AddMatchSignal(matchOptions()...); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe battery changes: %w", err)
	}

	m := &BatteryMonitor{
		conn:    conn,
		signals: make(chan *dbus.Signal, 16),
		updates: make(chan model.BatteryStatus, 1),
		done:    make(chan struct{}),
		log:     logger,
		props:   props,
		latest:  status,
	}
	m.updates <- status
	conn.Signal(m.signals)

	m.wg.Add(1)
	go m.listen()
	return m, nil
}

func matchOptions() []dbus.MatchOption {
	return []dbus.MatchOption{
		dbus.WithMatchObjectPath(displayDevice),
		dbus.WithMatchInterface(propsIface),
		dbus.WithMatchMember("PropertiesChanged"),
	}
}

// Updates delivers the latest status after each change. Only the newest
// undelivered value is kept.
func (m *BatteryMonitor) Updates() <-chan model.BatteryStatus {
	return m.updates
}

// Latest returns the last known status.
func (m *BatteryMonitor) Latest() model.BatteryStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

// Close unsubscribes and waits for the listener to exit.
func (m *BatteryMonitor) Close() {
	m.once.Do(func() {
		close(m.done)
		m.wg.Wait()
		m.conn.RemoveSignal(m.signals)
		_ = m.conn.RemoveMatchSignal(matchOptions()...)
		m.conn.Close()
	})
}

func (m *BatteryMonitor) listen() {
	defer m.wg.Done()
	for {
		select {
		case sig, ok := <-m.signals:
			if !ok {
				return
			}
			if sig.Path != displayDevice || len(sig.Body) < 2 {
				continue
			}
			if iface, _ := sig.Body[0].(string); iface != deviceIface {
				continue
			}
			changed, ok := sig.Body[1].(map[string]dbus.Variant)
			if !ok {
				continue
			}
			m.apply(changed)
		case <-m.done:
			return
		}
	}
}

func (m *BatteryMonitor) apply(changed map[string]dbus.Variant) {
	m.mu.Lock()
	for k, v := range changed {
		m.props[k] = v
	}
	status, present := statusFromProps(m.props)
	if !present || status == m.latest {
		m.mu.Unlock()
		return
	}
	m.latest = status
	m.mu.Unlock()

	m.log.Debug("battery changed", "level", status.Level, "charging", status.Charging)
	publish(m.updates, status)
}

// publish replaces any undelivered value in a size-1 channel.
func publish[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

// statusFromProps converts UPower device properties into the battery
// model. Times follow the web Battery API: 0 when full, +Inf when unknown.
func statusFromProps(props map[string]dbus.Variant) (model.BatteryStatus, bool) {
	var present bool
	if v, ok := props["IsPresent"]; ok {
		present, _ = v.Value().(bool)
	}
	if !present {
		return model.BatteryStatus{}, false
	}

	var state uint32
	if v, ok := props["State"]; ok {
		state, _ = v.Value().(uint32)
	}
	var pct float64
	if v, ok := props["Percentage"]; ok {
		pct, _ = v.Value().(float64)
	}
	toFull := int64Prop(props, "TimeToFull")
	toEmpty := int64Prop(props, "TimeToEmpty")

	st := model.BatteryStatus{
		Level:              math.Max(0, math.Min(1, pct/100)),
		ChargingTimeSec:    math.Inf(1),
		DischargingTimeSec: math.Inf(1),
	}
	switch state {
	case stateCharging, statePendingCharge:
		st.Charging = true
		if toFull > 0 {
			st.ChargingTimeSec = float64(toFull)
		}
	case stateFullyCharged:
		st.Charging = true
		st.ChargingTimeSec = 0
	case stateDischarging, statePendingDischarge, stateEmpty:
		if toEmpty > 0 {
			st.DischargingTimeSec = float64(toEmpty)
		}
	}
	return st, true
}

func int64Prop(props map[string]dbus.Variant, key string) int64 {
	v, ok := props[key]
	if !ok {
		return 0
	}
	switch n := v.Value().(type) {
	case int64:
		return n
	case uint64:
		return int64(n)
	case int32:
		return int64(n)
	}
	return 0
}
