// Package export renders completed courses as downloadable documents.
package export

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hazyhaar/coursecast/coursejob"
)

// Format identifies a supported export document type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatPPTX Format = "pptx"
)

// ErrUnsupportedFormat is returned for formats other than pdf and pptx.
var ErrUnsupportedFormat = errors.New("export: unsupported format")

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatPPTX:
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	default:
		return "application/octet-stream"
	}
}

// Build renders the course in the requested format.
func Build(course *coursejob.Course, format Format) ([]byte, error) {
	if course == nil {
		return nil, errors.New("export: nil course")
	}
	switch format {
	case FormatPDF:
		return BuildPDF(course)
	case FormatPPTX:
		return BuildPPTX(course)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

var slugPattern = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Filename derives the attachment filename from the course title.
func Filename(course *coursejob.Course, format Format) string {
	base := "course"
	if course != nil && course.CourseTitle != "" {
		if s := strings.Trim(slugPattern.ReplaceAllString(course.CourseTitle, "-"), "-"); s != "" {
			base = s
		}
	}
	if len(base) > 60 {
		base = base[:60]
	}
	return base + "." + string(format)
}
