package localfs

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}
	return req.MultipartForm.File["file"][0]
}

func TestStore_SavePDF(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	content := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")
	path, err := store.Save(fileHeader(t, "contract.PDF", content))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if filepath.Dir(path) != dir || !strings.HasSuffix(path, ".pdf") {
		t.Fatalf("unexpected path: %s", path)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatal("saved content differs from upload")
	}

	if err := store.Remove(path); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if err := store.Remove(path); err != nil {
		t.Fatalf("second Remove returned error: %v", err)
	}
}

func TestStore_RejectsUnsupportedType(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	_, err = store.Save(fileHeader(t, "payload.pdf", []byte("#!/bin/sh\necho hi\n")))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestStore_AcceptsImage(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
	path, err := store.Save(fileHeader(t, "photo", png))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if !strings.HasSuffix(path, ".png") {
		t.Fatalf("expected detected extension, got %s", path)
	}
}
