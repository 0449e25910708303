package api

import (
	"errors"
	"fmt"
	"mime"
	"strings"
)

const (
	MediaTypeAny         = "*/*"
	MediaTypeArrowStream = "application/vnd.apache.arrow.stream"
	MediaTypeCSV         = "text/csv"
	MediaTypeJSON        = "application/json"
	MediaTypeText        = "text/plain"
	MediaTypeTSV         = "text/tab-separated-values"
	MediaTypeYAML        = "application/yaml"
	MediaTypeXYAML       = "application/x-yaml"
)

type ErrUnsupportedMimeType struct {
	Type string
}

func (m *ErrUnsupportedMimeType) Error() string {
	return fmt.Sprintf("unsupported MIME type: %s", m.Type)
}

// MediaTypeToFormat returns the output format of the media type value s. If s
// is MediaTypeAny or undefined the default format dflt will be returned.
// A list of media types as found in an Accept header yields the format of
// the first one that is supported.
func MediaTypeToFormat(s string, dflt string) (string, error) {
	var firstErr error
	for _, part := range strings.Split(s, ",") {
		format, err := mediaTypeToFormat(part, dflt)
		if err == nil {
			return format, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return "", firstErr
}

func mediaTypeToFormat(s string, dflt string) (string, error) {
	if s = strings.TrimSpace(s); s == "" {
		return dflt, nil
	}
	typ, _, err := mime.ParseMediaType(s)
	if err != nil && !errors.Is(err, mime.ErrInvalidMediaParameter) {
		return "", err
	}
	switch typ {
	case MediaTypeAny, "":
		return dflt, nil
	case MediaTypeArrowStream:
		return "arrow", nil
	case MediaTypeCSV:
		return "csv", nil
	case MediaTypeJSON:
		return "json", nil
	case MediaTypeText:
		return "txt", nil
	case MediaTypeTSV:
		return "tsv", nil
	case MediaTypeYAML, MediaTypeXYAML:
		return "yaml", nil
	}
	return "", &ErrUnsupportedMimeType{typ}
}

func FormatToMediaType(format string) (string, error) {
	switch format {
	case "arrow":
		return MediaTypeArrowStream, nil
	case "csv":
		return MediaTypeCSV + "; charset=utf-8", nil
	case "json":
		return MediaTypeJSON, nil
	case "tsv":
		return MediaTypeTSV + "; charset=utf-8", nil
	case "txt":
		return MediaTypeText + "; charset=utf-8", nil
	case "yaml":
		return MediaTypeYAML, nil
	default:
		return "", fmt.Errorf("unknown format type: %s", format)
	}
}
