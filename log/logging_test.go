/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package log

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"
)

type nopCloser struct{ *bytes.Buffer }

func (nopCloser) Close() error { return nil }

func newBufLogger() (*Logger, *bytes.Buffer) {
	var b bytes.Buffer
	return New(nopCloser{&b}), &b
}

func TestLevelFromString(t *testing.T) {
	if lvl, err := LevelFromString("warn"); err != nil || lvl != WARN {
		t.Fatalf("got %v, %v", lvl, err)
	}
	if _, err := LevelFromString("bogus"); err != ErrInvalidLevel {
		t.Fatalf("expected ErrInvalidLevel, got %v", err)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	lgr, buf := newBufLogger()
	if err := lgr.SetLevel(ERROR); err != nil {
		t.Fatal(err)
	}
	lgr.Warnf("should not appear")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below level, got %q", buf.String())
	}
	lgr.Errorf("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Fatalf("expected message in output, got %q", buf.String())
	}
}

func TestRatelimiterFoldsSuppressedCount(t *testing.T) {
	r := NewRatelimiter(time.Hour)
	lgr, buf := newBufLogger()

	r.Warnf(lgr, "fifo full")
	first := buf.String()
	if !strings.Contains(first, "fifo full") {
		t.Fatalf("expected first call to log, got %q", first)
	}

	buf.Reset()
	r.Warnf(lgr, "fifo full")
	r.Warnf(lgr, "fifo full")
	if buf.Len() != 0 {
		t.Fatalf("expected suppressed calls to produce no output, got %q", buf.String())
	}

	r.last = time.Time{} // force the next call through
	r.Warnf(lgr, "fifo full")
	if !strings.Contains(buf.String(), "2 suppressed") {
		t.Fatalf("expected suppressed count folded in, got %q", buf.String())
	}
}

var _ io.WriteCloser = discardCloser{}
