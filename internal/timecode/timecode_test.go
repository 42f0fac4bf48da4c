package timecode

import "testing"

func TestSaturatingSub(t *testing.T) {
	if got := Timestamp(5 * Second).SaturatingSub(2 * Second); got != 3*Second {
		t.Fatalf("expected 3s, got %s", got)
	}
	if got := Timestamp(2 * Second).SaturatingSub(5 * Second); got != 0 {
		t.Fatalf("expected clamp to zero, got %s", got)
	}
}

func TestClamp(t *testing.T) {
	dur := Timestamp(40 * Second)
	if got := Timestamp(90 * Second).Clamp(dur); got != dur {
		t.Fatalf("expected clamp to %s, got %s", dur, got)
	}
	if got := Timestamp(10 * Second).Clamp(dur); got != 10*Second {
		t.Fatalf("expected passthrough, got %s", got)
	}
}

func TestFrames(t *testing.T) {
	cases := []struct {
		ts     Timestamp
		frames uint64
	}{
		{0, 0},
		{Second, 75},
		{Second / 75, 1},
		// Half a frame rounds up.
		{Second / 150, 1},
		{Second/150 - 1, 0},
		{10 * Second, 750},
	}
	for _, tc := range cases {
		if got := tc.ts.Frames(); got != tc.frames {
			t.Fatalf("%d ns: expected %d frames, got %d", tc.ts.Nanos(), tc.frames, got)
		}
	}
}

func TestFromFramesRoundTrip(t *testing.T) {
	for _, frames := range []uint64{0, 1, 74, 75, 76, 7499, 123456} {
		if got := FromFrames(frames).Frames(); got != frames {
			t.Fatalf("frame %d round-tripped to %d", frames, got)
		}
	}
}

func TestMillis(t *testing.T) {
	ts := FromMillis(61_234)
	if ts.Millis() != 61_234 {
		t.Fatalf("expected 61234 ms, got %d", ts.Millis())
	}
}

func TestString(t *testing.T) {
	cases := []struct {
		ts   Timestamp
		want string
	}{
		{0, "00:00.000"},
		{90*Second + 250*Millisecond, "01:30.250"},
		{Hour + 2*Minute + 3*Second + 4*Millisecond, "01:02:03.004"},
	}
	for _, tc := range cases {
		if got := tc.ts.String(); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
	if got := (90*Second + 250*Millisecond).FormatWithHours(); got != "00:01:30.250" {
		t.Fatalf("unexpected hours format %q", got)
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		input string
		want  Timestamp
	}{
		{"11:42:20.010", 11*Hour + 42*Minute + 20*Second + 10*Millisecond},
		{"42:20.010", 42*Minute + 20*Second + 10*Millisecond},
		{"42:20.010.015", 42*Minute + 20*Second + 10*Millisecond + 15*Microsecond},
		{"42:20.010.015.002", 42*Minute + 20*Second + 10*Millisecond + 15*Microsecond + 2},
		{"00:00", 0},
		{"01:05", Minute + 5*Second},
	}
	for _, tc := range cases {
		got, err := Parse(tc.input)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("parse %q: expected %d, got %d", tc.input, tc.want, got)
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, input := range []string{"abc:15", "42:aa.015", "42:20a", "", "42", "42:"} {
		if _, err := Parse(input); err == nil {
			t.Fatalf("expected parse error for %q", input)
		}
	}
}

func TestParsePrefix(t *testing.T) {
	ts, rest, err := ParsePrefix("00:00:01.000\nCHAPTER01NAME=test")
	if err != nil {
		t.Fatalf("parse prefix: %v", err)
	}
	if ts != Second {
		t.Fatalf("expected 1s, got %s", ts)
	}
	if rest != "\nCHAPTER01NAME=test" {
		t.Fatalf("unexpected remainder %q", rest)
	}
}
