// Package content holds helpers shared by the modules that scan file content
// as text.
package content

import (
	"bytes"

	"github.com/nao1215/fileingest/internal/model"
)

// textExtensions lists the extensions of files scanned as text.
var textExtensions = map[string]bool{
	"html":  true,
	"htm":   true,
	"txt":   true,
	"csv":   true,
	"json":  true,
	"url":   true,
	"xml":   true,
	"plist": true,
	"log":   true,
	"md":    true,
	"ini":   true,
	"conf":  true,
	"yaml":  true,
	"yml":   true,
	"pem":   true,
	"key":   true,
	"env":   true,
}

// IsText reports whether the file is scanned as text, judged by its extension.
func IsText(f *model.File) bool {
	return textExtensions[f.Extension()]
}

// IsHTML reports whether the file is an HTML document.
func IsHTML(f *model.File) bool {
	ext := f.Extension()
	return ext == "html" || ext == "htm"
}

// ReadText reads at most limit bytes of the file as text.
// NUL bytes are replaced by spaces so that regular expressions do not join
// strings across binary fields.
func ReadText(f *model.File, limit int64) (string, error) {
	data, err := f.ReadContent(limit)
	if err != nil {
		return "", err
	}
	if bytes.IndexByte(data, 0) >= 0 {
		data = bytes.ReplaceAll(data, []byte{0}, []byte{' '})
	}
	return string(data), nil
}
