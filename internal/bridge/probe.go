package bridge

import (
	"context"
	"fmt"
	"log/slog"

	godbus "github.com/godbus/dbus/v5"
)

// Probe picks the host capability once at startup. The returned close
// func releases any bus connection and is never nil. A nil Host with
// ErrNoBridge means the dashboard should simulate.
func Probe(ctx context.Context, mode Mode, log *slog.Logger) (Host, func(), error) {
	noop := func() {}

	switch mode {
	case ModeNone:
		return nil, noop, ErrNoBridge
	case ModeLocal:
		l := NewLocal()
		if !l.Available(ctx) {
			return nil, noop, fmt.Errorf("local bridge: %w", ErrNoBridge)
		}
		return l, noop, nil
	case ModeDBus:
		c, closeFn, err := dialService(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("dbus bridge: %v: %w", err, ErrNoBridge)
		}
		return c, closeFn, nil
	}

	c, closeFn, err := dialService(ctx)
	if err == nil {
		log.Info("using D-Bus host bridge", "name", BusName)
		return c, closeFn, nil
	}
	log.Debug("D-Bus host bridge unavailable", "error", err)
	if l := NewLocal(); l.Available(ctx) {
		log.Info("using in-process host bridge")
		return l, noop, nil
	}
	return nil, noop, ErrNoBridge
}

func dialService(ctx context.Context) (*Client, func(), error) {
	conn, err := godbus.ConnectSessionBus(godbus.WithContext(ctx))
	if err != nil {
		return nil, nil, fmt.Errorf("connect session bus: %w", err)
	}
	has, err := nameHasOwner(ctx, conn)
	if err != nil || !has {
		conn.Close()
		if err == nil {
			err = fmt.Errorf("%s has no owner", BusName)
		}
		return nil, nil, err
	}
	return NewClient(conn), func() { conn.Close() }, nil
}
