package snippet

import (
	"errors"
	"strings"
	"testing"
)

func TestTemplate_Apply(t *testing.T) {
	t.Parallel()

	bold, _ := Lookup("bold")
	heading, _ := Lookup("heading")

	tests := []struct {
		name      string
		tmpl      Template
		doc       string
		start     int
		end       int
		want      string
		wantStart int
		wantEnd   int
	}{
		{
			name: "insert selects placeholder",
			tmpl: bold, doc: "ab", start: 1, end: 1,
			want: "a*text*b", wantStart: 2, wantEnd: 6,
		},
		{
			name: "wrap selection",
			tmpl: bold, doc: "say hello now", start: 4, end: 9,
			want: "say *hello* now", wantStart: 4, wantEnd: 11,
		},
		{
			name: "selection containing the placeholder word is kept",
			tmpl: bold, doc: "context", start: 0, end: 7,
			want: "*context*", wantStart: 0, wantEnd: 9,
		},
		{
			name: "heading at end of document",
			tmpl: heading, doc: "x\n", start: 2, end: 2,
			want: "x\n= Heading\n", wantStart: 4, wantEnd: 11,
		},
		{
			name: "offsets are runes",
			tmpl: bold, doc: "héllo wörld", start: 6, end: 11,
			want: "héllo *wörld*", wantStart: 6, wantEnd: 13,
		},
		{
			name: "empty document",
			tmpl: bold, doc: "", start: 0, end: 0,
			want: "*text*", wantStart: 1, wantEnd: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.tmpl.Apply(tt.doc, tt.start, tt.end)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if got.Text != tt.want {
				t.Errorf("Text = %q, want %q", got.Text, tt.want)
			}
			if got.SelectionStart != tt.wantStart || got.SelectionEnd != tt.wantEnd {
				t.Errorf("selection = [%d, %d), want [%d, %d)", got.SelectionStart, got.SelectionEnd, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestTemplate_ApplyInvalidSelection(t *testing.T) {
	t.Parallel()

	bold, _ := Lookup("bold")
	for _, sel := range [][2]int{{-1, 0}, {2, 1}, {0, 4}} {
		if _, err := bold.Apply("abc", sel[0], sel[1]); !errors.Is(err, ErrSelection) {
			t.Errorf("Apply(%v) = %v, want ErrSelection", sel, err)
		}
	}
}

func TestTemplate_SelectedPlaceholderSelectsItself(t *testing.T) {
	t.Parallel()

	for _, tmpl := range All() {
		t.Run(tmpl.Name, func(t *testing.T) {
			t.Parallel()

			got, err := tmpl.Apply("", 0, 0)
			if err != nil {
				t.Fatal(err)
			}
			runes := []rune(got.Text)
			if sel := string(runes[got.SelectionStart:got.SelectionEnd]); sel != tmpl.Placeholder {
				t.Errorf("selected %q, want placeholder %q", sel, tmpl.Placeholder)
			}
			if got.Text != tmpl.Text() {
				t.Errorf("Text = %q, want %q", got.Text, tmpl.Text())
			}
		})
	}
}

func TestAll(t *testing.T) {
	t.Parallel()

	names := make([]string, 0)
	for _, tmpl := range All() {
		names = append(names, tmpl.Name)
	}
	want := "bold,italic,code,heading,list,math,figure,table,citation,reference"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("All() = %s, want %s", got, want)
	}

	all := All()
	all[0].Before = "changed"
	if b, _ := Lookup("bold"); b.Before != "*" {
		t.Error("All() must return a copy")
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	fig, ok := Lookup("figure")
	if !ok {
		t.Fatal("figure not found")
	}
	if !strings.Contains(fig.Text(), "caption: [Your caption here]") {
		t.Errorf("figure template = %q", fig.Text())
	}
	if _, ok := Lookup("nope"); ok {
		t.Error("unknown name should not be found")
	}
}
