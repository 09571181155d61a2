// Package toolstest provides a scripted tools.Runner for tests that must not
// depend on Poppler, Tesseract, pdftk or Ghostscript being installed.
package toolstest

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tendant/simple-searchable-pdf/internal/tools"
)

// Call records one invocation.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// HandlerFunc scripts the behavior of one tool.
type HandlerFunc func(c Call) (tools.Output, error)

// FakeRunner dispatches calls to per-tool handlers and records them.
type FakeRunner struct {
	mu       sync.Mutex
	calls    []Call
	handlers map[string]HandlerFunc
}

// New returns a runner with no handlers installed.
func New() *FakeRunner {
	return &FakeRunner{handlers: map[string]HandlerFunc{}}
}

// Handle installs h for tool name, replacing any previous handler.
func (f *FakeRunner) Handle(name string, h HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[name] = h
}

// Run implements tools.Runner.
func (f *FakeRunner) Run(ctx context.Context, dir, name string, args ...string) (tools.Output, error) {
	c := Call{Dir: dir, Name: name, Args: append([]string(nil), args...)}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	h := f.handlers[name]
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return tools.Output{}, err
	}
	if h == nil {
		return tools.Output{}, Fail(c, 127, "no handler for "+name)
	}
	return h(c)
}

// Calls returns every recorded call.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the recorded calls of one tool.
func (f *FakeRunner) CallsTo(name string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Fail builds the error a real runner returns for a non-zero exit.
func Fail(c Call, code int, output string) error {
	return &tools.ToolError{Tool: c.Name, Args: c.Args, ExitCode: code, Output: output}
}

// Resolve makes p absolute relative to the call's working directory.
func (c Call) Resolve(p string) string {
	if filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// Simulation models the five tools closely enough to drive the whole
// pipeline: files appear where the real tools would write them.
type Simulation struct {
	// Pages is the page count pdftoppm renders for any input.
	Pages int
	// Text maps a PDF base name to what pdftotext prints for it.
	Text map[string]string
}

// Install registers handlers for the stock tool names on f.
func (s *Simulation) Install(f *FakeRunner) {
	f.Handle("pdftoppm", s.pdftoppm)
	f.Handle("tesseract", s.tesseract)
	f.Handle("pdftk", s.pdftk)
	f.Handle("gs", s.ghostscript)
	f.Handle("gswin64c", s.ghostscript)
	f.Handle("pdftotext", s.pdftotext)
}

func (s *Simulation) pdftoppm(c Call) (tools.Output, error) {
	if len(c.Args) < 2 {
		return tools.Output{}, Fail(c, 99, "usage")
	}
	input := c.Resolve(c.Args[len(c.Args)-2])
	if _, err := os.Stat(input); err != nil {
		return tools.Output{}, Fail(c, 1, "I/O Error: Couldn't open file")
	}
	prefix := c.Resolve(c.Args[len(c.Args)-1])
	width := len(fmt.Sprint(s.Pages))
	for n := 1; n <= s.Pages; n++ {
		name := fmt.Sprintf("%s-%0*d.jpg", prefix, width, n)
		if err := os.WriteFile(name, PageJPEG(n), 0o644); err != nil {
			return tools.Output{}, err
		}
	}
	return tools.Output{}, nil
}

func (s *Simulation) tesseract(c Call) (tools.Output, error) {
	if len(c.Args) < 2 {
		return tools.Output{}, Fail(c, 1, "usage")
	}
	img := c.Resolve(c.Args[0])
	base := c.Resolve(c.Args[1])
	content := "%PDF-ocr " + filepath.Base(img) + "\n"
	if err := os.WriteFile(base+".pdf", []byte(content), 0o644); err != nil {
		return tools.Output{}, err
	}
	return tools.Output{Combined: []byte("Tesseract Open Source OCR Engine\n")}, nil
}

func (s *Simulation) pdftk(c Call) (tools.Output, error) {
	idx := indexOf(c.Args, "output")
	if idx < 0 || idx+1 >= len(c.Args) {
		return tools.Output{}, Fail(c, 1, "missing output")
	}
	out := c.Resolve(c.Args[idx+1])

	var buf bytes.Buffer
	switch {
	case indexOf(c.Args, "cat") >= 0:
		for _, in := range c.Args[:indexOf(c.Args, "cat")] {
			b, err := os.ReadFile(c.Resolve(in))
			if err != nil {
				return tools.Output{}, Fail(c, 1, "Error: Unable to find file.")
			}
			buf.Write(b)
		}
	case indexOf(c.Args, "multistamp") >= 0:
		base, err := os.ReadFile(c.Resolve(c.Args[0]))
		if err != nil {
			return tools.Output{}, Fail(c, 1, "Error: Unable to find file.")
		}
		overlay, err := os.ReadFile(c.Resolve(c.Args[2]))
		if err != nil {
			return tools.Output{}, Fail(c, 1, "Error: Unable to find file.")
		}
		buf.WriteString("%PDF-stamped\n")
		buf.Write(base)
		buf.Write(overlay)
	case indexOf(c.Args, "dump_data_utf8") >= 0:
		buf.WriteString("InfoBegin\nInfoKey: Producer\nInfoValue: pdftk\n")
	default:
		return tools.Output{}, Fail(c, 1, "unknown operation")
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return tools.Output{}, err
	}
	return tools.Output{}, nil
}

func (s *Simulation) ghostscript(c Call) (tools.Output, error) {
	idx := indexOf(c.Args, "-o")
	if idx < 0 || idx+1 >= len(c.Args) {
		return tools.Output{}, Fail(c, 1, "missing -o")
	}
	in, err := os.ReadFile(c.Resolve(c.Args[len(c.Args)-1]))
	if err != nil {
		return tools.Output{}, Fail(c, 1, "Error: /undefinedfilename")
	}
	out := append([]byte("%PDF-noimg\n"), in...)
	if err := os.WriteFile(c.Resolve(c.Args[idx+1]), out, 0o644); err != nil {
		return tools.Output{}, err
	}
	return tools.Output{}, nil
}

func (s *Simulation) pdftotext(c Call) (tools.Output, error) {
	if len(c.Args) < 2 {
		return tools.Output{}, Fail(c, 99, "usage")
	}
	pdf := c.Resolve(c.Args[0])
	if _, err := os.Stat(pdf); err != nil {
		return tools.Output{}, Fail(c, 1, "I/O Error: Couldn't open file")
	}
	text := s.Text[filepath.Base(pdf)]
	if c.Args[1] == "-" {
		return tools.Output{Stdout: []byte(text), Combined: []byte(text)}, nil
	}
	if err := os.WriteFile(c.Resolve(c.Args[1]), []byte(text), 0o644); err != nil {
		return tools.Output{}, err
	}
	return tools.Output{}, nil
}

// PageJPEG encodes a small gray image whose shade depends on n.
func PageJPEG(n int) []byte {
	img := image.NewGray(image.Rect(0, 0, 40, 60))
	shade := uint8(200 - (n*13)%150)
	for x := 0; x < 40; x++ {
		for y := 0; y < 60; y++ {
			img.SetGray(x, y, color.Gray{Y: shade})
		}
	}
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, img, nil)
	return buf.Bytes()
}

func indexOf(args []string, s string) int {
	for i, a := range args {
		if strings.EqualFold(a, s) {
			return i
		}
	}
	return -1
}
