package upload

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func minimalPDF() []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
	}
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestCheckAcceptsReadablePDF(t *testing.T) {
	data := minimalPDF()
	c := NewChecker(0, nil)
	if err := c.Check("lease.PDF", bytes.NewReader(data), int64(len(data))); err != nil {
		t.Fatalf("expected valid pdf, got %v", err)
	}
}

func TestCheckRejections(t *testing.T) {
	c := NewChecker(64, []string{"pdf", ".DOCX"})
	doc := []byte("word document")
	cases := []struct {
		name     string
		filename string
		data     []byte
		want     error
	}{
		{"extension", "notes.txt", doc, ErrUnsupportedType},
		{"doc not configured", "contract.doc", doc, ErrUnsupportedType},
		{"empty", "contract.docx", nil, ErrEmptyFile},
		{"too large", "contract.docx", []byte(strings.Repeat("x", 65)), ErrTooLarge},
		{"not a pdf", "contract.pdf", []byte("plain text pretending"), ErrUnreadablePDF},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := c.Check(tc.filename, bytes.NewReader(tc.data), int64(len(tc.data)))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if err := c.Check("contract.docx", bytes.NewReader(doc), int64(len(doc))); err != nil {
		t.Fatalf("docx should pass without structural checks: %v", err)
	}
}

func TestDefaults(t *testing.T) {
	c := NewChecker(-1, nil)
	if c.MaxBytes() != DefaultMaxBytes {
		t.Fatalf("unexpected max bytes %d", c.MaxBytes())
	}
	for _, name := range []string{"a.pdf", "b.doc", "c.DOCX"} {
		if !c.Allowed(name) {
			t.Fatalf("%s should be allowed by default", name)
		}
	}
	if c.Allowed("d.epub") {
		t.Fatal("epub is not a default extension")
	}
}
