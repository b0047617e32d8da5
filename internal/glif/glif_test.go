package glif

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ufonorm/internal/xmlwriter"
)

func normalize(t *testing.T, input string) (string, string) {
	t.Helper()
	normalized, imageFileName, err := Normalize([]byte(input), xmlwriter.DefaultPrecision)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	return string(normalized), imageFileName
}

func TestNormalizeFormat1HoistsImpliedAnchors(t *testing.T) {
	input := `<?xml version="1.0" encoding="UTF-8"?>
<glyph name="A" format="1">
  <advance width="700"/>
  <unicode hex="0041"/>
  <outline>
    <contour>
      <point x="10" y="20" type="move" name="top"/>
    </contour>
    <contour>
      <point x="0" y="0" type="line"/>
      <point x="100" y="0" type="line"/>
      <point x="100" y="100" type="line"/>
    </contour>
  </outline>
</glyph>
`
	want := `<?xml version="1.0" encoding="UTF-8"?>
<glyph name="A" format="1">
	<unicode hex="0041"/>
	<advance width="700"/>
	<outline>
		<contour>
			<point x="0" y="0" type="line"/>
			<point x="100" y="0" type="line"/>
			<point x="100" y="100" type="line"/>
		</contour>
		<contour>
			<point name="top" x="10" y="20" type="move"/>
		</contour>
	</outline>
</glyph>
`
	got, _ := normalize(t, input)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeFormat2FullGlyph(t *testing.T) {
	input := `<?xml version="1.0" encoding="UTF-8"?>
<glyph format="2" name="B">
  <unicode hex="42"/>
  <advance height="0" width="650.0"/>
  <image fileName="b.png" xScale="1" yScale="2" color="1,0,0,1"/>
  <guideline x="1" y="2" angle="3"/>
  <guideline x="1" y="2"/>
  <guideline x="0" y="100"/>
  <anchor identifier="a1" name="top" x="5" y="6"/>
  <anchor x="5"/>
  <outline>
    <contour identifier="c1">
      <point x="368" y="0" type="curve" smooth="yes"/>
      <point x="369" y="1"/>
    </contour>
    <component identifier="comp1" xOffset="10" xScale="0.5" base="O"/>
  </outline>
  <lib>
    <dict>
      <key>public.markColor</key>
      <string>1,0,0,0.5</string>
    </dict>
  </lib>
  <note>
    Hello.
  </note>
</glyph>
`
	want := `<?xml version="1.0" encoding="UTF-8"?>
<glyph name="B" format="2">
	<unicode hex="0042"/>
	<advance width="650"/>
	<image fileName="b.png" yScale="2" color="1,0,0,1"/>
	<outline>
		<contour identifier="c1">
			<point x="368" y="0" type="curve" smooth="yes"/>
			<point x="369" y="1"/>
		</contour>
		<component base="O" xScale="0.5" xOffset="10" identifier="comp1"/>
	</outline>
	<anchor name="top" x="5" y="6" identifier="a1"/>
	<guideline x="1" y="2" angle="3"/>
	<guideline y="100"/>
	<lib>
		<dict>
			<key>public.markColor</key>
			<string>1,0,0,0.5</string>
		</dict>
	</lib>
	<note>
    Hello.
  </note>
</glyph>
`
	got, imageFileName := normalize(t, input)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
	if imageFileName != "b.png" {
		t.Errorf("imageFileName = %q, want b.png", imageFileName)
	}
}

func TestNormalizeFatalErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  ErrorKind
	}{
		{name: "missing format", input: `<glyph name="A"/>`, kind: MissingFormatVersion},
		{name: "non-integer format", input: `<glyph name="A" format="two"/>`, kind: UnsupportedData},
		{name: "malformed xml", input: `<glyph name="A" format="2"><outline></glyph>`, kind: UnsupportedData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Normalize([]byte(tt.input), xmlwriter.DefaultPrecision)
			var glifErr *Error
			if !errors.As(err, &glifErr) {
				t.Fatalf("got %v, want a *glif.Error", err)
			}
			if glifErr.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", glifErr.Kind, tt.kind)
			}
		})
	}
}

func TestNormalizeSilentDrops(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		want  string
	}{
		{
			name: "unparseable unicode hex",
			body: `<unicode hex="ZZZ"/>`,
			want: "",
		},
		{
			name: "missing unicode hex",
			body: `<unicode/>`,
			want: "",
		},
		{
			name: "zero advance",
			body: `<advance width="0" height="0"/>`,
			want: "",
		},
		{
			name: "unparseable advance width drops element",
			body: `<advance width="wide" height="10"/>`,
			want: "",
		},
		{
			name: "advance keeps nonzero height",
			body: `<advance width="0" height="10"/>`,
			want: "\t<advance height=\"10\"/>\n",
		},
		{
			name: "image without fileName",
			body: `<image xScale="2"/>`,
			want: "",
		},
		{
			name: "anchor missing y",
			body: `<anchor x="1"/>`,
			want: "",
		},
		{
			name: "anchor with invalid color keeps anchor",
			body: `<anchor x="1" y="2" color="bogus"/>`,
			want: "\t<anchor x=\"1\" y=\"2\"/>\n",
		},
		{
			name: "invalid point type kills its contour only",
			body: `<outline><contour><point x="1" y="2" type="wiggle"/></contour><contour><point x="3" y="4" type="move"/><point x="5" y="6" type="line"/></contour></outline>`,
			want: "\t<outline>\n\t\t<contour>\n\t\t\t<point x=\"3\" y=\"4\" type=\"move\"/>\n\t\t\t<point x=\"5\" y=\"6\" type=\"line\"/>\n\t\t</contour>\n\t</outline>\n",
		},
		{
			name: "smooth only as exactly yes",
			body: `<outline><contour><point x="1" y="2" type="line" smooth="true"/><point x="3" y="4" type="line" smooth="yes"/></contour></outline>`,
			want: "\t<outline>\n\t\t<contour>\n\t\t\t<point x=\"1\" y=\"2\" type=\"line\"/>\n\t\t\t<point x=\"3\" y=\"4\" type=\"line\" smooth=\"yes\"/>\n\t\t</contour>\n\t</outline>\n",
		},
		{
			name: "component without base",
			body: `<outline><component xScale="2"/></outline>`,
			want: "",
		},
		{
			name: "identity transform omitted",
			body: `<outline><component base="O" xScale="1" xyScale="0" yxScale="0" yScale="1" xOffset="0" yOffset="0"/></outline>`,
			want: "\t<outline>\n\t\t<component base=\"O\"/>\n\t</outline>\n",
		},
		{
			name: "unparseable transform axis falls back to default",
			body: `<outline><component base="O" xScale="big" xOffset="10"/></outline>`,
			want: "\t<outline>\n\t\t<component base=\"O\" xOffset=\"10\"/>\n\t</outline>\n",
		},
		{
			name: "empty note",
			body: "<note>   \n\t </note>",
			want: "",
		},
		{
			name: "empty lib",
			body: "<note></note><lib><dict/></lib>",
			want: "",
		},
		{
			name: "guideline with unparseable angle dropped",
			body: `<guideline x="1" y="2" angle="steep"/>`,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
				`<glyph name="x" format="2">` + tt.body + `</glyph>`
			want := `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
				`<glyph name="x" format="2">` + "\n" + tt.want + "</glyph>\n"
			got, _ := normalize(t, input)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("document mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeSingleLinePointStaysContour(t *testing.T) {
	// Only a lone "move" point denotes an implied anchor in format 1.
	input := `<?xml version="1.0"?>
<glyph name="x" format="1"><outline><contour><point x="1" y="2" type="line"/></contour></outline></glyph>`
	want := `<?xml version="1.0" encoding="UTF-8"?>
<glyph name="x" format="1">
	<outline>
		<contour>
			<point x="1" y="2" type="line"/>
		</contour>
	</outline>
</glyph>
`
	got, _ := normalize(t, input)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeFormat1IgnoresFormat2Elements(t *testing.T) {
	input := `<?xml version="1.0"?>
<glyph name="x" format="1"><image fileName="a.png"/><anchor x="1" y="2"/><guideline x="0" y="1"/></glyph>`
	want := `<?xml version="1.0" encoding="UTF-8"?>
<glyph name="x" format="1">
</glyph>
`
	got, imageFileName := normalize(t, input)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
	if imageFileName != "" {
		t.Errorf("imageFileName = %q, want empty", imageFileName)
	}
}

func TestNormalizeColorString(t *testing.T) {
	w := xmlwriter.New(xmlwriter.DefaultPrecision)
	tests := []struct {
		value string
		want  string
		ok    bool
	}{
		{value: "1,0,0,0.5", want: "1,0,0,0.5", ok: true},
		{value: " 0 , 0.5, 0.5 ,1", want: "0,0.5,0.5,1", ok: true},
		{value: "0.5000,0,0,1", want: "0.5,0,0,1", ok: true},
		{value: "1,0,0,2", ok: false},
		{value: "-0.1,0,0,1", ok: false},
		{value: "1,0,0", ok: false},
		{value: "1,0,0,0,0", ok: false},
		{value: "red,0,0,1", ok: false},
		{value: "", ok: false},
	}
	for _, tt := range tests {
		got, ok := NormalizeColorString(tt.value, w)
		if ok != tt.ok || got != tt.want {
			t.Errorf("NormalizeColorString(%q) = (%q, %v), want (%q, %v)", tt.value, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNormalizeGuideline(t *testing.T) {
	w := xmlwriter.New(xmlwriter.DefaultPrecision)
	f := func(v float64) *float64 { return &v }
	tests := []struct {
		name string
		in   Guideline
		want *Guideline
	}{
		{name: "x y angle kept", in: Guideline{X: f(1), Y: f(2), Angle: f(3)}, want: &Guideline{X: f(1), Y: f(2), Angle: f(3)}},
		{name: "x and y without angle dropped", in: Guideline{X: f(1), Y: f(2)}, want: nil},
		{name: "zero x treated as unset", in: Guideline{X: f(0), Y: f(100)}, want: &Guideline{Y: f(100)}},
		{name: "zero y treated as unset", in: Guideline{X: f(100), Y: f(0)}, want: &Guideline{X: f(100)}},
		{name: "both zero keeps y", in: Guideline{X: f(0), Y: f(0)}, want: &Guideline{Y: f(0)}},
		{name: "x only", in: Guideline{X: f(5)}, want: &Guideline{X: f(5)}},
		{name: "y only", in: Guideline{Y: f(5)}, want: &Guideline{Y: f(5)}},
		{name: "nothing set", in: Guideline{}, want: nil},
		{name: "angle without y dropped", in: Guideline{X: f(1), Angle: f(3)}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeGuideline(tt.in, w)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("guideline mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
