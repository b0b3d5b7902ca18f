package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// Editor names the application whose owner file marks a document as open.
type Editor int

const (
	EditorWord Editor = iota
	EditorLibreOffice
)

// ownerUser is the account name written into generated owner files.
const ownerUser = "docvault-test"

// WriteDocument writes body to path, creating parent directories, and returns
// path.
func WriteDocument(t testing.TB, path, body string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// OwnerFilePath returns where editor keeps its owner file for doc.
func OwnerFilePath(doc string, editor Editor) string {
	dir, name := filepath.Split(doc)
	if editor == EditorLibreOffice {
		return filepath.Join(dir, ".~lock."+name+"#")
	}
	return filepath.Join(dir, "~$"+name)
}

// OpenInEditor simulates editor opening doc by writing its owner file. The
// returned func closes the document again by removing that file.
func OpenInEditor(t testing.TB, doc string, editor Editor) (string, func()) {
	t.Helper()

	owner := OwnerFilePath(doc, editor)
	if err := os.WriteFile(owner, ownerFileBody(editor), 0o644); err != nil {
		t.Fatalf("write owner file %s: %v", owner, err)
	}
	closeDoc := func() {
		t.Helper()
		if err := os.Remove(owner); err != nil && !os.IsNotExist(err) {
			t.Fatalf("remove owner file %s: %v", owner, err)
		}
	}
	return owner, closeDoc
}

// ownerFileBody mimics the content each editor writes. Word stores a
// length-prefixed user name padded to 162 bytes; LibreOffice writes one CSV
// line ending in a semicolon.
func ownerFileBody(editor Editor) []byte {
	if editor == EditorLibreOffice {
		return []byte(fmt.Sprintf(",%s,localhost,15.03.2024 10:00,file:///home/%s/.config/libreoffice/4;", ownerUser, ownerUser))
	}
	body := make([]byte, 162)
	body[0] = byte(len(ownerUser))
	copy(body[1:], ownerUser)
	return body
}
