package main

import (
	"bytes"
	"testing"
	"time"
)

func TestProgressReporter(t *testing.T) {
	testCases := []struct {
		name string
		tty  bool
		want string
	}{
		{"tty", true, "\r1/4 rows 25%\r4/4 rows 100%\n"},
		{"log", false, "1/4 rows 25%\n4/4 rows 100%\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			p := newProgressReporter(buf, tc.tty, time.Hour)
			for done := 1; done <= 4; done++ {
				p.Report(done, 4)
			}
			if got := buf.String(); got != tc.want {
				t.Errorf("Got output %q, want %q", got, tc.want)
			}
		})
	}
}
