package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/schema"
)

// idKey is the metadata key holding a document's identifier.
const idKey = "id"

// maxLineSize bounds a single line of plain-text input.
const maxLineSize = 1 << 20

// inputDocument is the JSON input form of a document.
type inputDocument struct {
	PageContent string         `json:"page_content"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// openInput returns the reader for a file argument, where no argument or
// "-" means stdin.
func openInput(stdin io.Reader, args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	return f, nil
}

// readDocuments parses either a JSON array of {page_content, metadata}
// objects or plain text with one document per non-blank line. Documents
// without an "id" metadata entry get a random UUID.
func readDocuments(r io.Reader) ([]schema.Document, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return nil, errors.New("no documents in input")
	}

	var docs []schema.Document
	if trimmed[0] == '[' {
		docs, err = parseJSONDocuments(trimmed)
	} else {
		docs, err = parseLines(trimmed)
	}
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, errors.New("no documents in input")
	}

	for i := range docs {
		if docs[i].Metadata == nil {
			docs[i].Metadata = map[string]any{}
		}
		if _, ok := docs[i].Metadata[idKey]; !ok {
			docs[i].Metadata[idKey] = uuid.NewString()
		}
	}
	return docs, nil
}

func parseJSONDocuments(data []byte) ([]schema.Document, error) {
	var in []inputDocument
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("failed to parse JSON documents: %w", err)
	}
	docs := make([]schema.Document, 0, len(in))
	for _, d := range in {
		docs = append(docs, schema.Document{PageContent: d.PageContent, Metadata: d.Metadata})
	}
	return docs, nil
}

func parseLines(data []byte) ([]schema.Document, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var docs []schema.Document
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		docs = append(docs, schema.Document{PageContent: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lines: %w", err)
	}
	return docs, nil
}
