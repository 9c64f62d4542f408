package selector

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
)

type recordingHandler struct {
	mu      sync.Mutex
	method  string
	uris    []string
	startup string
}

func (h *recordingHandler) record(method string, uris []string, startupID string) {
	h.mu.Lock()
	h.method = method
	h.uris = uris
	h.startup = startupID
	h.mu.Unlock()
}

func (h *recordingHandler) ShowFolders(uris []string, startupID string) {
	h.record("ShowFolders", uris, startupID)
}

func (h *recordingHandler) ShowItems(uris []string, startupID string) {
	h.record("ShowItems", uris, startupID)
}

func (h *recordingHandler) ShowItemProperties(uris []string, startupID string) {
	h.record("ShowItemProperties", uris, startupID)
}

func sessionBusOrSkip(t *testing.T) *dbus.Conn {
	t.Helper()
	if os.Getenv("DBUS_SESSION_BUS_ADDRESS") == "" {
		t.Skip("no session bus available")
	}
	conn, err := dbus.SessionBus()
	if err != nil {
		t.Skipf("cannot connect to session bus: %v", err)
	}
	return conn
}

func TestFileManagerExport(t *testing.T) {
	conn := sessionBusOrSkip(t)

	// A private name keeps the test off the real file manager registration.
	busName := fmt.Sprintf("org.example.fileselect.Test%d", os.Getpid())

	h := &recordingHandler{}
	fm, err := exportFileManager(conn, h, busName)
	if err != nil {
		t.Fatalf("exportFileManager: %v", err)
	}
	defer fm.Close()

	if !fm.Primary() {
		t.Fatal("fresh test name should be owned immediately")
	}

	obj := conn.Object(busName, fileManagerPath)
	call := obj.Call(fileManagerInterface+".ShowItems", 0,
		[]string{"file:///tmp/x"}, "startup-1")
	if call.Err != nil {
		t.Fatalf("ShowItems call failed: %v", call.Err)
	}

	if !waitFor(t, 2*time.Second, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.method == "ShowItems"
	}) {
		t.Fatal("handler never invoked")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.uris) != 1 || h.uris[0] != "file:///tmp/x" || h.startup != "startup-1" {
		t.Errorf("handler got %v / %q", h.uris, h.startup)
	}
}

func TestFileManagerIntrospection(t *testing.T) {
	conn := sessionBusOrSkip(t)

	busName := fmt.Sprintf("org.example.fileselect.Introspect%d", os.Getpid())
	fm, err := exportFileManager(conn, &recordingHandler{}, busName)
	if err != nil {
		t.Fatalf("exportFileManager: %v", err)
	}
	defer fm.Close()

	var xml string
	err = conn.Object(busName, fileManagerPath).
		Call("org.freedesktop.DBus.Introspectable.Introspect", 0).Store(&xml)
	if err != nil {
		t.Fatalf("Introspect: %v", err)
	}
	for _, method := range []string{"ShowFolders", "ShowItems", "ShowItemProperties"} {
		if !strings.Contains(xml, `<method name="`+method+`"`) {
			t.Errorf("introspection missing %s", method)
		}
	}
}
