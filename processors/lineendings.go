package processors

import "bytes"

// LineEndings normalises generated text to LF line endings and, optionally,
// guarantees a final newline. Templates edited on Windows otherwise leak CRLF
// into sources that toolchains and diff tools treat inconsistently.
type LineEndings struct {
	FinalNewline bool
}

func NewLineEndings() *LineEndings {
	return &LineEndings{FinalNewline: true}
}

func (l *LineEndings) ProcessContent(filePath string, content []byte) ([]byte, error) {
	out := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	if l.FinalNewline && len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	return out, nil
}
