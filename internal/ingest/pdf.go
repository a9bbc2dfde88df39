// Package ingest turns an uploaded PDF into per-page text and document
// metadata, and scrubs PII before the text leaves the process.
package ingest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/greenloan/validator-cli/internal/model"
)

// minPageChars is the threshold below which a page counts as having no
// usable text layer.
const minPageChars = 20

// Document is the result of ingesting one PDF.
type Document struct {
	Meta      model.DocumentMeta
	Pages     []model.PageInfo
	PageTexts []string
}

// Processor extracts text from PDFs using the pdftotext CLI tool and lays
// out the per-document directory under the upload dir.
type Processor struct {
	binPath   string
	uploadDir string
	now       func() time.Time
}

// NewProcessor creates a Processor. If binPath is empty, "pdftotext" is used.
func NewProcessor(binPath, uploadDir string) *Processor {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &Processor{binPath: binPath, uploadDir: uploadDir, now: time.Now}
}

// Process ingests the PDF at the given path: assigns a document ID from the
// content hash, extracts per-page text, and persists the original file plus
// the combined text under the upload dir.
func (p *Processor) Process(ctx context.Context, pdfPath string) (*Document, error) {
	raw, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", pdfPath)
	}

	sum := fmt.Sprintf("%x", sha256.Sum256(raw))
	docID := fmt.Sprintf("DOC-%s-%s", p.now().UTC().Format("20060102150405"), sum[:6])

	docDir := filepath.Join(p.uploadDir, docID)
	if err := os.MkdirAll(docDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "ingest: create %s", docDir)
	}
	filename := filepath.Base(pdfPath)
	if err := os.WriteFile(filepath.Join(docDir, filename), raw, 0o644); err != nil {
		return nil, eris.Wrap(err, "ingest: store original")
	}

	text, err := p.extractText(ctx, pdfPath)
	if err != nil {
		return nil, err
	}
	pageTexts := SplitPages(text)

	pages := make([]model.PageInfo, len(pageTexts))
	for i, pt := range pageTexts {
		pages[i] = model.PageInfo{
			PageNo:    i + 1,
			HasText:   len(strings.TrimSpace(pt)) > minPageChars,
			CharCount: len(pt),
		}
	}

	if err := os.WriteFile(filepath.Join(docDir, "full_text.txt"), []byte(text), 0o644); err != nil {
		return nil, eris.Wrap(err, "ingest: store full text")
	}

	zap.L().Info("ingest: document processed",
		zap.String("doc_id", docID),
		zap.String("filename", filename),
		zap.Int("pages", len(pages)),
	)

	return &Document{
		Meta: model.DocumentMeta{
			DocID:     docID,
			Filename:  filename,
			SHA256:    sum,
			Pages:     len(pages),
			CreatedAt: p.now().UTC(),
		},
		Pages:     pages,
		PageTexts: pageTexts,
	}, nil
}

// extractText runs pdftotext -layout over the whole document and returns
// stdout. Pages are separated by form feeds.
func (p *Processor) extractText(ctx context.Context, pdfPath string) (string, error) {
	cmd := exec.CommandContext(ctx, p.binPath, "-layout", pdfPath, "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "ingest: pdftotext failed for %s: %s", pdfPath, stderr.String())
	}
	return stdout.String(), nil
}

// SplitPages splits pdftotext output on form feeds. The trailing form feed
// pdftotext emits after the last page is dropped.
func SplitPages(text string) []string {
	pages := strings.Split(text, "\f")
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages
}

// PageText returns the stored combined text of a document.
func PageText(uploadDir, docID string) ([]string, error) {
	raw, err := os.ReadFile(filepath.Join(uploadDir, docID, "full_text.txt"))
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read text for %s", docID)
	}
	return SplitPages(string(raw)), nil
}
