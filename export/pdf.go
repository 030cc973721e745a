package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/hazyhaar/coursecast/coursejob"
)

// Page layout for the pdfcpu create grammar: A4 with the origin at the
// upper left, text placed line by line.
const (
	pdfMarginX    = 50.0
	pdfTopY       = 60.0
	pdfLineHeight = 16.0
	pdfMaxLines   = 44
	pdfWrapWidth  = 92
)

type pdfDocument struct {
	Paper  string             `json:"paper"`
	Origin string             `json:"origin"`
	Pages  map[string]pdfPage `json:"pages"`
}

type pdfPage struct {
	Content pdfContent `json:"content"`
}

type pdfContent struct {
	Text []pdfText `json:"text"`
}

type pdfText struct {
	Value    string     `json:"value"`
	Position [2]float64 `json:"position"`
	Font     pdfFont    `json:"font"`
}

type pdfFont struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// BuildPDF renders the course as a PDF: a title page followed by one page
// per module listing its lessons.
func BuildPDF(course *coursejob.Course) ([]byte, error) {
	doc := pdfDocument{
		Paper:  "A4",
		Origin: "upperLeft",
		Pages:  map[string]pdfPage{},
	}

	doc.Pages["1"] = titlePage(course)
	for i, module := range course.Modules {
		doc.Pages[strconv.Itoa(i+2)] = modulePage(i+1, module)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("export: marshal pdf description: %w", err)
	}
	var buf bytes.Buffer
	if err := api.Create(nil, bytes.NewReader(raw), &buf, model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("export: render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func titlePage(course *coursejob.Course) pdfPage {
	p := newPageWriter()
	p.add(firstLine(course.CourseTitle, "Course"), 22)
	p.skip()
	p.addWrapped(course.Hook, 12)
	p.skip()
	p.add(fmt.Sprintf("Difficulty: %s", course.Difficulty), 11)
	p.add(fmt.Sprintf("Estimated total: %d minutes", course.EstimatedTotalMinutes), 11)
	p.add(fmt.Sprintf("Modules: %d", len(course.Modules)), 11)
	p.add(fmt.Sprintf("Source videos: %d", course.Source.VideosCount), 11)
	return p.page()
}

func modulePage(n int, module coursejob.Module) pdfPage {
	p := newPageWriter()
	p.add(fmt.Sprintf("Module %d: %s", n, firstLine(module.Title, "Untitled")), 16)
	p.skip()
	for _, obj := range module.Objectives {
		p.addWrapped("Objective: "+obj, 11)
	}
	p.skip()
	for _, lesson := range module.Lessons {
		p.add(fmt.Sprintf("%s (%d min, %s)", firstLine(lesson.Title, "Lesson"),
			lesson.EstimatedMinutes, lesson.Difficulty), 12)
		p.addWrapped(lesson.Summary, 10)
		if lesson.VideoURL != "" {
			p.add(lesson.VideoURL, 9)
		}
		p.skip()
	}
	if len(module.Quiz) > 0 {
		p.add(fmt.Sprintf("Quiz: %d questions", len(module.Quiz)), 11)
	}
	return p.page()
}

// pageWriter accumulates positioned text lines down a single page.
type pageWriter struct {
	texts []pdfText
	y     float64
}

func newPageWriter() *pageWriter {
	return &pageWriter{y: pdfTopY}
}

func (p *pageWriter) add(value string, size int) {
	if strings.TrimSpace(value) == "" || len(p.texts) >= pdfMaxLines {
		return
	}
	p.texts = append(p.texts, pdfText{
		Value:    value,
		Position: [2]float64{pdfMarginX, p.y},
		Font:     pdfFont{Name: "Helvetica", Size: size},
	})
	p.y += pdfLineHeight
}

func (p *pageWriter) addWrapped(value string, size int) {
	for _, line := range wrapText(value, pdfWrapWidth) {
		p.add(line, size)
	}
}

func (p *pageWriter) skip() {
	p.y += pdfLineHeight / 2
}

func (p *pageWriter) page() pdfPage {
	if len(p.texts) == 0 {
		p.add("(empty)", 11)
	}
	return pdfPage{Content: pdfContent{Text: p.texts}}
}

// wrapText breaks text into lines of at most width characters on word
// boundaries.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) <= width {
			current += " " + word
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}

func firstLine(s, fallback string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return fallback
	}
	return s
}
