package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
)

// ReadDocument loads the text of an uploaded bid document. PDF files go
// through the PDF parser; anything else is read as plain text.
func ReadDocument(ctx context.Context, path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return readPDF(ctx, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	return string(data), nil
}

func readPDF(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	parser, err := pdf.NewPDFParser(ctx, &pdf.Config{})
	if err != nil {
		return "", fmt.Errorf("failed to create pdf parser: %w", err)
	}

	docs, err := parser.Parse(ctx, f)
	if err != nil {
		return "", fmt.Errorf("failed to parse pdf: %w", err)
	}

	var b strings.Builder
	for _, doc := range docs {
		b.WriteString(doc.Content)
		b.WriteString("\n")
	}
	return b.String(), nil
}
