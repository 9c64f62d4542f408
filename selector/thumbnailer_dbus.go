package selector

import (
	"context"

	"github.com/godbus/dbus/v5"
)

// Session thumbnailing service. Optional, so any code talking to it must be
// fail-safe.
const (
	thumbnailerBusName   = "mobi.phosh.Thumbnailer"
	thumbnailerPath      = dbus.ObjectPath("/mobi/phosh/Thumbnailer")
	thumbnailerInterface = "mobi.phosh.Thumbnailer"

	thumbnailFilesMethod   = thumbnailerInterface + ".ThumbnailFiles"
	thumbnailingDoneSignal = thumbnailerInterface + ".ThumbnailingDone"
)

// DBusThumbnailer requests thumbnails from the session thumbnailing service.
// Requests carry the URI list and an empty options mapping; results arrive
// through the ThumbnailingDone signal and are forwarded to the done callback
// as a URI → path mapping.
type DBusThumbnailer struct {
	conn    *dbus.Conn
	obj     dbus.BusObject
	signals chan *dbus.Signal
	done    func(map[string]string)
}

// NewDBusThumbnailer connects to the session thumbnailer. A nil conn uses
// the shared session bus.
func NewDBusThumbnailer(conn *dbus.Conn, done func(map[string]string)) (*DBusThumbnailer, error) {
	if conn == nil {
		c, err := dbus.SessionBus()
		if err != nil {
			return nil, err
		}
		conn = c
	}

	t := &DBusThumbnailer{
		conn: conn,
		obj:  conn.Object(thumbnailerBusName, thumbnailerPath),
		done: done,
	}

	err := conn.AddMatchSignal(
		dbus.WithMatchInterface(thumbnailerInterface),
		dbus.WithMatchMember("ThumbnailingDone"),
	)
	if err != nil {
		return nil, err
	}

	t.signals = make(chan *dbus.Signal, 16)
	conn.Signal(t.signals)
	go t.watch()

	return t, nil
}

// ThumbnailFiles issues one batched request for the given URIs.
func (t *DBusThumbnailer) ThumbnailFiles(ctx context.Context, uris []string) error {
	options := map[string]dbus.Variant{}
	return t.obj.CallWithContext(ctx, thumbnailFilesMethod, 0, uris, options).Err
}

func (t *DBusThumbnailer) watch() {
	for sig := range t.signals {
		thumbs := parseThumbnailingDone(sig)
		if len(thumbs) == 0 {
			continue
		}
		if t.done != nil {
			t.done(thumbs)
		}
	}
}

// parseThumbnailingDone extracts the URI → path mapping from a
// ThumbnailingDone(a{sv} thumbnails, a{sv} options) signal.
func parseThumbnailingDone(sig *dbus.Signal) map[string]string {
	if sig == nil || sig.Name != thumbnailingDoneSignal || len(sig.Body) < 1 {
		return nil
	}
	raw, ok := sig.Body[0].(map[string]dbus.Variant)
	if !ok {
		return nil
	}
	thumbs := make(map[string]string, len(raw))
	for uri, v := range raw {
		if path, ok := v.Value().(string); ok && path != "" {
			thumbs[uri] = path
		}
	}
	return thumbs
}

// Close stops signal delivery. The underlying bus connection is shared and
// stays open.
func (t *DBusThumbnailer) Close() error {
	err := t.conn.RemoveMatchSignal(
		dbus.WithMatchInterface(thumbnailerInterface),
		dbus.WithMatchMember("ThumbnailingDone"),
	)
	t.conn.RemoveSignal(t.signals)
	close(t.signals)
	return err
}
