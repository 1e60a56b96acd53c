package obj

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// maxLineSize bounds a single statement.
const maxLineSize = 16 << 20

// statement is one non-empty line split into its keyword and arguments.
type statement struct {
	line    int
	keyword string
	args    []string
	text    string
}

// scan calls fn for every statement in r. Comments start at '#' and run to
// the end of the line. A trailing backslash joins the next line. An error
// returned by fn stops the scan.
func scan(r io.Reader, fn func(*statement) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	line := 0
	var pending strings.Builder
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimRight(text, " \t\r")
		if strings.HasSuffix(text, "\\") {
			pending.WriteString(text[:len(text)-1])
			pending.WriteByte(' ')
			continue
		}
		if pending.Len() > 0 {
			pending.WriteString(text)
			text = pending.String()
			pending.Reset()
		}

		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		st := &statement{line: line, keyword: fields[0], args: fields[1:], text: strings.TrimSpace(text)}
		if err := fn(st); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("line %d: %w", line+1, err)
	}
	return nil
}

// CountLines returns the number of lines in r, counting a final line
// without a newline.
func CountLines(r io.Reader) (int, error) {
	buf := make([]byte, 64*1024)
	count := 0
	last := byte('\n')
	for {
		n, err := r.Read(buf)
		if n > 0 {
			count += bytes.Count(buf[:n], []byte{'\n'})
			last = buf[n-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, err
		}
	}
	if last != '\n' {
		count++
	}
	return count, nil
}

func parseFloats(args []string, dst []float32) error {
	for i := range dst {
		f, err := strconv.ParseFloat(args[i], 32)
		if err != nil {
			return fmt.Errorf("%w: %q is not a number", ErrSyntax, args[i])
		}
		dst[i] = float32(f)
	}
	return nil
}

// checkArgs verifies that the statement has between lo and hi arguments.
// A negative hi means no upper bound.
func (s *statement) checkArgs(lo, hi int) error {
	n := len(s.args)
	if n < lo || (hi >= 0 && n > hi) {
		return fmt.Errorf("%w: %s takes %s, got %d", ErrSyntax, s.keyword, argRange(lo, hi), n)
	}
	return nil
}

func argRange(lo, hi int) string {
	switch {
	case hi < 0:
		return fmt.Sprintf("at least %d arguments", lo)
	case lo == hi:
		return fmt.Sprintf("%d arguments", lo)
	}
	return fmt.Sprintf("%d to %d arguments", lo, hi)
}
