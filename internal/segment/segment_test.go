package segment_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/alnah/go-mathocr/internal/segment"
)

func text(s string) segment.Segment {
	return segment.Segment{Kind: segment.KindText, Text: s}
}

func math(s string) segment.Segment {
	return segment.Segment{Kind: segment.KindMath, Text: `\begin{math}` + s + `\end{math}`}
}

// ---------------------------------------------------------------------------
// TestSplit_Mixed - Prose with dollar-delimited math
// ---------------------------------------------------------------------------

func TestSplit_Mixed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []segment.Segment
	}{
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
		{
			name:  "plain text",
			input: "no math here",
			want:  []segment.Segment{text("no math here")},
		},
		{
			name:  "inline math",
			input: "The answer is $x^2$.",
			want:  []segment.Segment{text("The answer is "), math("x^2"), text(".")},
		},
		{
			name:  "doubled marker is one toggle",
			input: "a $$y$$ b",
			want:  []segment.Segment{text("a "), math("y"), text(" b")},
		},
		{
			name:  "line break inside math splits the run",
			input: "$a\nb$",
			want:  []segment.Segment{math("a"), math("b")},
		},
		{
			name:  "carriage return line feed inside math",
			input: "$a\r\nb$",
			want:  []segment.Segment{math("a"), math("b")},
		},
		{
			name:  "row separator splits the run",
			input: `$a \\ b$`,
			want:  []segment.Segment{math("a "), math(" b")},
		},
		{
			name:  "matrix keywords split and drop",
			input: `$\begin{matrix}a & b\\c & d\end{matrix}$`,
			want:  []segment.Segment{math("a  b"), math("c  d")},
		},
		{
			name:  "pmatrix keywords split and drop",
			input: `$\begin{pmatrix}1\end{pmatrix}$`,
			want:  []segment.Segment{math("1")},
		},
		{
			name:  "array context keeps rows together",
			input: "$\\begin{array}{cc}a & b \\\\\nc & d\\end{array}$",
			want:  []segment.Segment{math("\\begin{array}{cc}a & b \\\\ c & d\\end{array}")},
		},
		{
			name:  "array without end is dropped",
			input: `$\begin{array}{c}a \\ b$`,
			want:  []segment.Segment{math("{c}a "), math(" b")},
		},
		{
			name:  "array end beyond scope does not count",
			input: `$\begin{array}a$ text $\end{array}$`,
			want:  []segment.Segment{math("a"), text(" text ")},
		},
		{
			name:  "escaped dollar is literal",
			input: `costs \$5 and $x$`,
			want:  []segment.Segment{text(`costs \$5 and `), math("x")},
		},
		{
			name:  "escaped dollar inside math",
			input: `$\$x$`,
			want:  []segment.Segment{math(`\$x`)},
		},
		{
			name:  "escaped ampersand kept",
			input: `$a\&b$`,
			want:  []segment.Segment{math(`a\&b`)},
		},
		{
			name:  "unmatched trailing marker is literal",
			input: "price $5",
			want:  []segment.Segment{text("price $5")},
		},
		{
			name:  "blank math dropped",
			input: "a $ $ b",
			want:  []segment.Segment{text("a "), text(" b")},
		},
		{
			name:  "bare line break segments dropped",
			input: "$x$\n$y$",
			want:  []segment.Segment{math("x"), math("y")},
		},
		{
			name:  "unicode content",
			input: "défini $α+β$ ici",
			want:  []segment.Segment{text("défini "), math("α+β"), text(" ici")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := segment.Split(tt.input, segment.ModeMixed)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestSplit_FormulaOnly - Bare formula input
// ---------------------------------------------------------------------------

func TestSplit_FormulaOnly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []segment.Segment
	}{
		{
			name:  "bare formula is one math run",
			input: `\frac{a}{b}`,
			want:  []segment.Segment{math(`\frac{a}{b}`)},
		},
		{
			name:  "bare formula lines split",
			input: "x=1\ny=2",
			want:  []segment.Segment{math("x=1"), math("y=2")},
		},
		{
			name:  "markers honored when present",
			input: "$x$",
			want:  []segment.Segment{math("x")},
		},
		{
			name:  "unmatched marker dropped",
			input: "x = 5$",
			want:  []segment.Segment{math("x = 5")},
		},
		{
			name:  "doubled unmatched marker dropped",
			input: "$$x + 1",
			want:  []segment.Segment{math("x + 1")},
		},
		{
			name:  "unmatched marker does not end the scope",
			input: `a$b^{2}`,
			want:  []segment.Segment{math(`ab^{2}`)},
		},
		{
			name:  "blank input",
			input: "  \n ",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := segment.Split(tt.input, segment.ModeFormulaOnly)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestSplit_TextOnly - No scanning
// ---------------------------------------------------------------------------

func TestSplit_TextOnly(t *testing.T) {
	t.Parallel()

	input := "a $x$\nb"
	got := segment.Split(input, segment.ModeTextOnly)
	want := []segment.Segment{text(input)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Split() = %#v, want %#v", got, want)
	}

	if got := segment.Split("", segment.ModeTextOnly); len(got) != 0 {
		t.Errorf("Split(\"\") = %#v, want empty", got)
	}
}

// ---------------------------------------------------------------------------
// TestSplit_Reconstruction - Content is preserved across segments
// ---------------------------------------------------------------------------

func TestSplit_Reconstruction(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"a $x$ b $$y$$ c",
		"$x+1$ and $z$",
		"plain",
		"p $\\frac{1}{2}$ q",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			t.Parallel()

			var b strings.Builder
			for _, seg := range segment.Split(in, segment.ModeMixed) {
				b.WriteString(segment.Unwrap(seg.Text))
			}
			want := strings.ReplaceAll(in, "$", "")
			if b.String() != want {
				t.Errorf("reconstructed %q, want %q", b.String(), want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestSplit_NoEmptySegments - Output filter
// ---------------------------------------------------------------------------

func TestSplit_NoEmptySegments(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"$$$$",
		"\n$\n$\n",
		`$\\$`,
		"$ \n \n $",
		`$\begin{matrix}\end{matrix}$`,
	}

	for _, in := range inputs {
		for _, seg := range segment.Split(in, segment.ModeMixed) {
			if seg.Text == "" || seg.Text == "\n" {
				t.Errorf("Split(%q) produced empty segment %#v", in, seg)
			}
			if seg.Kind == segment.KindMath && strings.TrimSpace(segment.Unwrap(seg.Text)) == "" {
				t.Errorf("Split(%q) produced blank math segment %#v", in, seg)
			}
		}
	}
}

// ---------------------------------------------------------------------------
// TestKind_String
// ---------------------------------------------------------------------------

func TestKind_String(t *testing.T) {
	t.Parallel()

	if got := segment.KindText.String(); got != "text" {
		t.Errorf("KindText.String() = %q", got)
	}
	if got := segment.KindMath.String(); got != "math" {
		t.Errorf("KindMath.String() = %q", got)
	}
	if got := segment.Kind(9).String(); got != "unknown" {
		t.Errorf("Kind(9).String() = %q", got)
	}
}

func TestIsMathText(t *testing.T) {
	t.Parallel()

	if !segment.IsMathText(`\begin{math}x\end{math}`) {
		t.Error("IsMathText(wrapped) = false")
	}
	if segment.IsMathText("x") {
		t.Error("IsMathText(plain) = true")
	}
	if got := segment.Unwrap("plain"); got != "plain" {
		t.Errorf("Unwrap(plain) = %q", got)
	}
}
