package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kalambet/jobassist/internal/storage"
)

// maxResumeBytes caps the size of an imported resume file.
const maxResumeBytes = 10 << 20

// ErrInvalidDocument is returned when a resume file cannot be read as a PDF.
var ErrInvalidDocument = errors.New("invalid pdf document")

// ExtractPDFText returns the plain text of a PDF document.
func ExtractPDFText(r io.ReaderAt, size int64) (text string, err error) {
	// The pdf reader panics on some malformed documents.
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: malformed: %v", ErrInvalidDocument, p)
		}
	}()

	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	plain, err := doc.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: extracting text: %v", ErrInvalidDocument, err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return string(b), nil
}

type section int

const (
	sectionNone section = iota
	sectionSummary
	sectionSkills
	sectionExperience
	sectionEducation
	sectionCertifications
)

var headings = map[string]section{
	"summary":                 sectionSummary,
	"profile":                 sectionSummary,
	"objective":               sectionSummary,
	"about me":                sectionSummary,
	"skills":                  sectionSkills,
	"technical skills":        sectionSkills,
	"core skills":             sectionSkills,
	"experience":              sectionExperience,
	"work experience":         sectionExperience,
	"professional experience": sectionExperience,
	"employment history":      sectionExperience,
	"education":               sectionEducation,
	"certifications":          sectionCertifications,
	"certificates":            sectionCertifications,
	"licenses":                sectionCertifications,
}

var (
	bulletPrefix  = regexp.MustCompile(`^[\-\*•·▪●◦]+\s*`)
	skillSplitter = regexp.MustCompile(`[,;|•·]`)
)

// ParseResumeText splits resume text into sections by recognizing common
// headings. Text before the first heading is treated as the summary.
func ParseResumeText(text string) storage.ParsedResume {
	var p storage.ParsedResume
	var summary []string
	current := sectionSummary

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key := strings.ToLower(strings.TrimRight(line, ":"))
		if s, ok := headings[key]; ok {
			current = s
			continue
		}
		line = bulletPrefix.ReplaceAllString(line, "")
		if line == "" {
			continue
		}

		switch current {
		case sectionSummary:
			summary = append(summary, line)
		case sectionSkills:
			for _, s := range skillSplitter.Split(line, -1) {
				if s = strings.TrimSpace(s); s != "" {
					p.Skills = append(p.Skills, s)
				}
			}
		case sectionExperience:
			p.Experience = append(p.Experience, line)
		case sectionEducation:
			p.Education = append(p.Education, line)
		case sectionCertifications:
			p.Certifications = append(p.Certifications, line)
		}
	}
	p.Summary = strings.Join(summary, " ")
	return p
}

// ImportResumePDF reads a PDF resume from path, parses it and stores it for
// userID.
func (c *Catalog) ImportResumePDF(ctx context.Context, userID, path string, makeDefault bool) (storage.Resume, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return storage.Resume{}, fmt.Errorf("reading resume: %w", err)
	}
	return c.ImportResume(ctx, userID, filepath.Base(path), data, makeDefault)
}

// ImportResume parses PDF bytes and stores the resume. A document without
// recognizable text is stored unparsed.
func (c *Catalog) ImportResume(ctx context.Context, userID, fileName string, data []byte, makeDefault bool) (storage.Resume, error) {
	if len(data) > maxResumeBytes {
		return storage.Resume{}, fmt.Errorf("%w: %s is larger than %d bytes", ErrInvalidDocument, fileName, maxResumeBytes)
	}
	text, err := ExtractPDFText(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return storage.Resume{}, err
	}

	r := storage.Resume{
		UserID:    userID,
		FileName:  fileName,
		IsDefault: makeDefault,
	}
	if parsed := ParseResumeText(text); !isEmptyParse(parsed) {
		r.Parsed = &parsed
	}
	return c.AddResume(ctx, r)
}

func isEmptyParse(p storage.ParsedResume) bool {
	return p.Summary == "" && len(p.Skills) == 0 && len(p.Experience) == 0 &&
		len(p.Education) == 0 && len(p.Certifications) == 0
}
