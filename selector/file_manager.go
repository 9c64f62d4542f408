package selector

import (
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	fileManagerBusName   = "org.freedesktop.FileManager1"
	fileManagerPath      = dbus.ObjectPath("/org/freedesktop/FileManager1")
	fileManagerInterface = "org.freedesktop.FileManager1"
)

const fileManagerIntrospection = `
<node>
  <interface name="org.freedesktop.FileManager1">
    <method name="ShowFolders">
      <arg type="as" name="URIs" direction="in"/>
      <arg type="s" name="StartupId" direction="in"/>
    </method>
    <method name="ShowItems">
      <arg type="as" name="URIs" direction="in"/>
      <arg type="s" name="StartupId" direction="in"/>
    </method>
    <method name="ShowItemProperties">
      <arg type="as" name="URIs" direction="in"/>
      <arg type="s" name="StartupId" direction="in"/>
    </method>
  </interface>
  ` + introspect.IntrospectDataString + `
</node>`

// FileManagerHandler receives the inbound file-manager operations. The
// methods are simple forwarding calls into the directory-view and
// file-properties components.
type FileManagerHandler interface {
	ShowFolders(uris []string, startupID string)
	ShowItems(uris []string, startupID string)
	ShowItemProperties(uris []string, startupID string)
}

// FileManager exports org.freedesktop.FileManager1 on the session bus so
// other applications can ask us to show folders, items or properties.
type FileManager struct {
	conn    *dbus.Conn
	busName string
	primary bool
}

type fileManagerObject struct {
	handler FileManagerHandler
}

func (o fileManagerObject) ShowFolders(uris []string, startupID string) *dbus.Error {
	logger.Debug().Strs("uris", uris).Msg("ShowFolders")
	o.handler.ShowFolders(uris, startupID)
	return nil
}

func (o fileManagerObject) ShowItems(uris []string, startupID string) *dbus.Error {
	logger.Debug().Strs("uris", uris).Msg("ShowItems")
	o.handler.ShowItems(uris, startupID)
	return nil
}

func (o fileManagerObject) ShowItemProperties(uris []string, startupID string) *dbus.Error {
	logger.Debug().Strs("uris", uris).Msg("ShowItemProperties")
	o.handler.ShowItemProperties(uris, startupID)
	return nil
}

// ExportFileManager registers the FileManager1 interface and requests the
// well-known name, allowing a later file manager to take over (and taking
// over from an earlier one). A nil conn uses the shared session bus.
func ExportFileManager(conn *dbus.Conn, handler FileManagerHandler) (*FileManager, error) {
	return exportFileManager(conn, handler, fileManagerBusName)
}

func exportFileManager(conn *dbus.Conn, handler FileManagerHandler, busName string) (*FileManager, error) {
	if conn == nil {
		c, err := dbus.SessionBus()
		if err != nil {
			return nil, err
		}
		conn = c
	}

	obj := fileManagerObject{handler: handler}
	if err := conn.Export(obj, fileManagerPath, fileManagerInterface); err != nil {
		return nil, err
	}
	err := conn.Export(introspect.Introspectable(fileManagerIntrospection),
		fileManagerPath, "org.freedesktop.DBus.Introspectable")
	if err != nil {
		_ = conn.Export(nil, fileManagerPath, fileManagerInterface)
		return nil, err
	}

	reply, err := conn.RequestName(busName,
		dbus.NameFlagAllowReplacement|dbus.NameFlagReplaceExisting)
	if err != nil {
		_ = conn.Export(nil, fileManagerPath, fileManagerInterface)
		_ = conn.Export(nil, fileManagerPath, "org.freedesktop.DBus.Introspectable")
		return nil, err
	}

	fm := &FileManager{
		conn:    conn,
		busName: busName,
		primary: reply == dbus.RequestNameReplyPrimaryOwner,
	}
	if fm.primary {
		logger.Debug().Str("name", busName).Msg("owned bus name")
	} else {
		logger.Warn().Str("name", busName).Msg("bus name held elsewhere, waiting in queue")
	}
	return fm, nil
}

// Primary reports whether we currently own the well-known name.
func (m *FileManager) Primary() bool {
	return m.primary
}

// Close releases the name and removes the exported object.
func (m *FileManager) Close() error {
	_, err := m.conn.ReleaseName(m.busName)
	_ = m.conn.Export(nil, fileManagerPath, fileManagerInterface)
	_ = m.conn.Export(nil, fileManagerPath, "org.freedesktop.DBus.Introspectable")
	return err
}
