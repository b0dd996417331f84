package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	godbus "github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	BusName   = "org.axon.Telemetry"
	ObjPath   = "/org/axon/Telemetry"
	IfaceName = "org.axon.Telemetry"

	callTimeout = 3 * time.Second
)

const introspectXML = `
<node>
  <interface name="` + IfaceName + `">
    <method name="GetStats">
      <arg direction="out" type="s" name="json"/>
    </method>
    <method name="GetStorage">
      <arg direction="out" type="s" name="json"/>
    </method>
  </interface>
` + introspect.IntrospectDataString + `
</node>`

// Service exposes a Host on the session bus so an unprivileged dashboard
// can read metrics from a process that is allowed to.
type Service struct {
	host Host
}

func NewService(host Host) *Service {
	return &Service{host: host}
}

// Export registers the service on conn and claims BusName.
func (s *Service) Export(conn *godbus.Conn) error {
	if err := conn.Export(s, ObjPath, IfaceName); err != nil {
		return fmt.Errorf("export object: %w", err)
	}
	if err := conn.Export(introspect.Introspectable(introspectXML), ObjPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("export introspection: %w", err)
	}

	reply, err := conn.RequestName(BusName, godbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("request name: %w", err)
	}
	if reply != godbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("name %s already taken", BusName)
	}
	return nil
}

// GetStats returns the host stats as JSON.
func (s *Service) GetStats() (string, *godbus.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	st, err := s.host.GetStats(ctx)
	if err != nil {
		return "", godbus.MakeFailedError(err)
	}
	return encode(st)
}

// GetStorage returns the storage report as JSON.
func (s *Service) GetStorage() (string, *godbus.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	rep, err := s.host.GetStorage(ctx)
	if err != nil {
		return "", godbus.MakeFailedError(err)
	}
	return encode(rep)
}

func encode(v any) (string, *godbus.Error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", godbus.MakeFailedError(err)
	}
	return string(data), nil
}

// Client is a Host backed by a remote Service.
type Client struct {
	obj godbus.BusObject
}

func NewClient(conn *godbus.Conn) *Client {
	return &Client{obj: conn.Object(BusName, ObjPath)}
}

func (c *Client) GetStats(ctx context.Context) (*Stats, error) {
	var st Stats
	if err := c.call(ctx, "GetStats", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) GetStorage(ctx context.Context) (*StorageReport, error) {
	var rep StorageReport
	if err := c.call(ctx, "GetStorage", &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

func (c *Client) call(ctx context.Context, method string, out any) error {
	var jsonStr string
	if err := c.obj.CallWithContext(ctx, IfaceName+"."+method, 0).Store(&jsonStr); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		return fmt.Errorf("decode %s: %w", method, err)
	}
	return nil
}

// nameHasOwner asks the bus daemon whether BusName is claimed.
func nameHasOwner(ctx context.Context, conn *godbus.Conn) (bool, error) {
	var has bool
	err := conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.NameHasOwner", 0, BusName).Store(&has)
	return has, err
}
